// Package vlm provides a client for scoring images through an
// OpenAI-compatible chat-completions endpoint.
//
// This package includes:
//   - A configurable HTTP client with authentication headers, request
//     duration logging, and typed errors for every failure mode
//   - An embedded scoring prompt asking for AI-generation detection,
//     watermark detection, and a 0 to 10 quality score
//   - A lenient parser that digs the XML result block out of free-form
//     model output, including fenced and truncated variants
//   - Automatic downscale-and-resubmit when the endpoint rejects an
//     oversized image payload with HTTP 400
//
// Example usage:
//
//	client := vlm.NewClientWithConfig(cfg, log)
//
//	eval, err := client.ScoreImage(ctx, "photos/IMG_0042.jpg")
//	if err != nil {
//	    if errors.IsType(err, errors.ErrorTypeAuth) {
//	        // Token rejected, no point continuing the batch.
//	    }
//	    return err
//	}
//
//	fmt.Printf("%s scored %.1f (AI generated: %v)\n",
//	    "IMG_0042.jpg", eval.Score, eval.IsAIGenerated)
package vlm
