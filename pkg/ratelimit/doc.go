// Package ratelimit provides client-side request limiting for the Parler client.
//
// The API answers bursts with 429 responses, which cost a retry and a
// reconnect from the client's budget. Pacing requests locally avoids them.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Selected with rate_limit.algorithm = "token_bucket"
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Used by PerMinute and the default rate_limit.algorithm
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait(ctx) error - Block until a request is allowed or ctx is done
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	limiter := ratelimit.PerMinute(30)
//	client, err := parler.NewClient(jst, mst, false, parler.WithLimiter(limiter))
package ratelimit
