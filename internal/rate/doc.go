// Package rate provides the Redis-backed fixed-window counter behind login
// throttling.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys:
//   - {prefix}:e:{email}: failed logins per email
//   - {prefix}:ip:{ip}:   failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide what a rate-limited caller sees (the Engine maps ErrRateLimited).
//   - Be imported outside the sessionauth module.
package rate
