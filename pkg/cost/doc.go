// Package cost prices token usage accumulated over a scoring run.
//
// A Calculator collects per-request usage from scoring workers and
// derives input, output and total cost at configured per-million-token
// rates. Reasoning tokens, when the endpoint reports them, are billed
// at the output rate on top of the completion tokens. The Report method
// renders the summary block printed after a batch finishes.
package cost
