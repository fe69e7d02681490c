package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/retry"
)

const (
	portBackoff    = 50 * time.Millisecond
	portBackoffMax = 500 * time.Millisecond
)

// portPolicy tries attempts ports with a linearly growing pause between them.
func portPolicy(attempts int, initial time.Duration) retry.Policy {
	return retry.Linear(initial, portBackoffMax, attempts-1)
}

// listen binds host:start, moving to the next port while the current one is
// in use. The policy bounds the number of ports tried.
func listen(ctx context.Context, host string, start int, policy retry.Policy, logger *slog.Logger) (net.Listener, error) {
	attempts := policy.Attempts()
	var lc net.ListenConfig
	var lastErr error
	for i := range attempts {
		port := start + i
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, ferrors.WrapError(err, ferrors.CategoryPortUnavailable, "cannot bind dev server").
				Fatal().
				WithContext("addr", addr).
				Build()
		}
		if i == attempts-1 {
			break
		}
		logger.Warn("Port in use, trying next", logfields.Port(port))

		select {
		case <-ctx.Done():
			return nil, ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "listen canceled").Build()
		case <-time.After(policy.Delay(i + 1)):
		}
	}
	return nil, ferrors.WrapError(lastErr, ferrors.CategoryPortUnavailable, "no free port for dev server").
		Fatal().
		WithContext("first_port", start).
		WithContext("attempts", attempts).
		Build()
}
