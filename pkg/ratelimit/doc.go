// Package ratelimit provides client-side rate limiting for the VLM API.
//
// This package implements multiple rate limiting algorithms to keep batch
// runs inside the endpoint's request budget instead of burning retry
// attempts on 429 responses.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation used by the scorer
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//   - Better for consistent request patterns
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - WaitContext(ctx) error - Block until allowed or the context is done
//   - RetryAfter() time.Duration - Time until the next request could pass
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Token bucket: 600 requests per minute
//	limiter := ratelimit.PerMinute(600)
//
//	if limiter.Allow() {
//	    // Proceed with request
//	} else {
//	    // Wait for rate limit to reset
//	    limiter.Wait()
//	}
//
//	// Sliding window: 100 requests per 15 minutes
//	limiter := ratelimit.NewSlidingWindow(100, 15*time.Minute)
//
//	// Block until allowed, bail out when the task is cancelled
//	if err := limiter.WaitContext(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
