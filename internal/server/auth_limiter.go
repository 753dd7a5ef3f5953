package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	authFailureLimit     = 10
	authFailureWindow    = time.Minute
	authFailureBlockFor  = 5 * time.Minute
	authLimiterSweepEach = 64
)

// authFailureLimiter blocks a client after repeated bad bearer tokens.
type authFailureLimiter struct {
	mu         sync.Mutex
	clients    map[string]authFailureState
	limit      int
	window     time.Duration
	blockFor   time.Duration
	staleAfter time.Duration
	ops        int
}

type authFailureState struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newAuthFailureLimiter(limit int, window, blockFor time.Duration) *authFailureLimiter {
	if limit <= 0 || window <= 0 || blockFor <= 0 {
		return nil
	}
	return &authFailureLimiter{
		clients:    make(map[string]authFailureState),
		limit:      limit,
		window:     window,
		blockFor:   blockFor,
		staleAfter: 2 * max(window, blockFor),
	}
}

// Blocked reports whether client is currently locked out.
func (l *authFailureLimiter) Blocked(client string, now time.Time) bool {
	if l == nil || client == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.sweepLocked(now)

	state, ok := l.clients[client]
	if !ok {
		return false
	}
	state.lastSeen = now
	l.clients[client] = state
	return now.Before(state.blockedUntil)
}

// Fail records a rejected token for client.
func (l *authFailureLimiter) Fail(client string, now time.Time) {
	if l == nil || client == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.sweepLocked(now)

	state := l.clients[client]
	if state.windowStart.IsZero() || now.Sub(state.windowStart) > l.window {
		state.failures = 0
		state.windowStart = now
	}
	state.failures++
	if state.failures >= l.limit {
		state.blockedUntil = now.Add(l.blockFor)
		state.failures = 0
		state.windowStart = time.Time{}
	}
	state.lastSeen = now
	l.clients[client] = state
}

// Succeed clears any failure history for client.
func (l *authFailureLimiter) Succeed(client string) {
	if l == nil || client == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, client)
}

func (l *authFailureLimiter) sweepLocked(now time.Time) {
	l.ops++
	if l.ops%authLimiterSweepEach != 0 {
		return
	}
	for client, state := range l.clients {
		if now.Sub(state.lastSeen) > l.staleAfter {
			delete(l.clients, client)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
