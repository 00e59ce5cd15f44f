// Package internal contains helpers that are private to sessionauth, starting
// with session id generation and validation.
//
// # Sub-packages
//
//   - flows: generic flow orchestrators for login, resolution and admin grants
//   - rate: Redis-backed fixed-window login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessionauth API.
//   - Be imported by any package outside the sessionauth module.
package internal
