package session

import (
	"context"
	"time"
)

// WithTimeout wraps a runner so every call runs under its own timeout
// budget. An expired budget kills the subprocess and surfaces as a failed,
// cancelled call; it never bounds more than one call.
func WithTimeout(inner Runner, timeout time.Duration) Runner {
	if timeout <= 0 {
		return inner
	}
	return &timeoutRunner{inner: inner, timeout: timeout}
}

type timeoutRunner struct {
	inner   Runner
	timeout time.Duration
}

func (r *timeoutRunner) Run(ctx context.Context, req Request) Result {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Run(callCtx, req)
}
