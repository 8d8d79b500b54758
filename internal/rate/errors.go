package rate

import "errors"

// ErrRedisUnavailable wraps failures of the Redis-backed window.
var ErrRedisUnavailable = errors.New("redis unavailable")
