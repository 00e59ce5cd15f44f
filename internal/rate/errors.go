package rate

import (
	"errors"

	"github.com/MrEthical07/sessionauth/session"
)

var (
	// ErrRateLimited means the caller exhausted a login budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter backend failures. It is the session
	// store's sentinel so callers need a single errors.Is check.
	ErrRedisUnavailable = session.ErrRedisUnavailable
)
