package cost

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vlmscore/pkg/config"
	"vlmscore/pkg/vlm"
)

// Calculator accumulates token usage across scoring requests and prices
// it. Input and output tokens bill at different per-million rates;
// reasoning tokens bill as output. Safe for concurrent use, workers
// report usage as they finish.
type Calculator struct {
	inputPerMtok  float64
	outputPerMtok float64
	currency      string

	mu               sync.Mutex
	promptTokens     int64
	completionTokens int64
	reasoningTokens  int64
	totalRequests    int64
	successful       int64
}

// NewCalculator creates a calculator priced from configuration. A nil
// config uses default pricing.
func NewCalculator(cfg *config.CostConfig) *Calculator {
	if cfg == nil {
		defaults := config.DefaultConfig().Cost
		cfg = &defaults
	}
	return &Calculator{
		inputPerMtok:  cfg.InputPerMtok,
		outputPerMtok: cfg.OutputPerMtok,
		currency:      cfg.Currency,
	}
}

// AddUsage records a successful request's token consumption.
func (c *Calculator) AddUsage(usage vlm.Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.successful++
	c.promptTokens += int64(usage.PromptTokens)
	c.completionTokens += int64(usage.CompletionTokens)
	c.reasoningTokens += int64(usage.ReasoningTokens())
}

// AddFailure counts a request that produced no usable result. It adds
// no tokens but keeps the request total honest for the summary.
func (c *Calculator) AddFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
}

// Totals snapshots the accumulated usage with costs derived at the
// configured prices.
func (c *Calculator) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	outputTokens := c.completionTokens + c.reasoningTokens
	inputCost := float64(c.promptTokens) / 1_000_000 * c.inputPerMtok
	outputCost := float64(outputTokens) / 1_000_000 * c.outputPerMtok

	return Totals{
		InputTokens:        c.promptTokens,
		OutputTokens:       c.completionTokens,
		ReasoningTokens:    c.reasoningTokens,
		TotalOutputTokens:  outputTokens,
		InputCost:          inputCost,
		OutputCost:         outputCost,
		TotalCost:          inputCost + outputCost,
		TotalRequests:      c.totalRequests,
		SuccessfulRequests: c.successful,
		Currency:           c.currency,
	}
}

// CostOf prices a single request's usage without accumulating it. The
// report command uses it for per-file costs when re-pricing stored
// sidecars.
func (c *Calculator) CostOf(usage vlm.Usage) float64 {
	inputCost := float64(usage.PromptTokens) / 1_000_000 * c.inputPerMtok
	outputCost := float64(usage.CompletionTokens+usage.ReasoningTokens()) / 1_000_000 * c.outputPerMtok
	return inputCost + outputCost
}

// Totals is a priced snapshot of accumulated token usage.
type Totals struct {
	InputTokens        int64
	OutputTokens       int64
	ReasoningTokens    int64
	TotalOutputTokens  int64
	InputCost          float64
	OutputCost         float64
	TotalCost          float64
	TotalRequests      int64
	SuccessfulRequests int64
	Currency           string
}

// AverageCost returns the cost per image over the given count, zero
// when nothing was scored.
func (t Totals) AverageCost(imageCount int) float64 {
	if imageCount <= 0 {
		return 0
	}
	return t.TotalCost / float64(imageCount)
}

// CostPerSecond returns the spend rate over the elapsed wall time.
func (t Totals) CostPerSecond(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return t.TotalCost / elapsed.Seconds()
}

// Symbol returns the display symbol for the configured currency.
func (t Totals) Symbol() string {
	switch strings.ToLower(t.Currency) {
	case "", "yuan", "cny", "rmb":
		return "¥"
	case "usd", "dollar", "dollars":
		return "$"
	case "eur", "euro", "euros":
		return "€"
	default:
		return t.Currency + " "
	}
}

// Report renders the end-of-run cost block. imageCount is the number of
// successfully scored images, used for the per-image average.
func (c *Calculator) Report(elapsed time.Duration, imageCount int) string {
	totals := c.Totals()
	symbol := totals.Symbol()
	printer := message.NewPrinter(language.English)

	var b strings.Builder
	rule := strings.Repeat("=", 50)

	b.WriteString("Cost Analysis Report\n")
	b.WriteString(rule + "\n")

	b.WriteString("Token usage:\n")
	fmt.Fprintf(&b, "  Input tokens:        %s\n", printer.Sprintf("%d", totals.InputTokens))
	fmt.Fprintf(&b, "  Output tokens:       %s\n", printer.Sprintf("%d", totals.OutputTokens))
	if totals.ReasoningTokens > 0 {
		fmt.Fprintf(&b, "  Reasoning tokens:    %s\n", printer.Sprintf("%d", totals.ReasoningTokens))
	}
	fmt.Fprintf(&b, "  Total output tokens: %s\n", printer.Sprintf("%d", totals.TotalOutputTokens))

	b.WriteString("\nCost breakdown:\n")
	fmt.Fprintf(&b, "  Input cost:     %s%.4f\n", symbol, totals.InputCost)
	fmt.Fprintf(&b, "  Output cost:    %s%.4f\n", symbol, totals.OutputCost)
	fmt.Fprintf(&b, "  Total cost:     %s%.4f\n", symbol, totals.TotalCost)
	if imageCount > 0 {
		fmt.Fprintf(&b, "  Cost per image: %s%.4f\n", symbol, totals.AverageCost(imageCount))
	}

	b.WriteString("\nRequest statistics:\n")
	fmt.Fprintf(&b, "  Successful requests: %d\n", totals.SuccessfulRequests)
	fmt.Fprintf(&b, "  Total requests:      %d\n", totals.TotalRequests)
	if elapsed > 0 {
		fmt.Fprintf(&b, "  Cost per second:     %s%.6f\n", symbol, totals.CostPerSecond(elapsed))
	}

	b.WriteString(rule + "\n")
	return b.String()
}
