// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrTooManyAttempts is returned by LoginLimiter.Check when a caller must
// wait before trying again.
var ErrTooManyAttempts = errors.New("too many login attempts")

// Limiter is a fixed-window request counter keyed by caller.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within limit.
// Expired windows are swept while the lock is held.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, k)
		}
	}

	w, ok := l.windows[key]
	if !ok {
		l.windows[key] = window{count: 1, expiresAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// ClientIP extracts the client IP from an HTTP request, preferring
// X-Forwarded-For, then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter limits sign-in attempts per client IP and per email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(10, time.Minute),
		byEmail: New(5, 5*time.Minute),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Check counts one attempt and returns ErrTooManyAttempts when either
// limit is exhausted.
func (ll *LoginLimiter) Check(r *http.Request, email string) error {
	if !ll.byIP.Allow(ClientIP(r)) {
		return ErrTooManyAttempts
	}
	if k := emailKey(email); k != "" && !ll.byEmail.Allow(k) {
		return ErrTooManyAttempts
	}
	return nil
}

// Succeeded clears the email's count after a successful sign-in.
func (ll *LoginLimiter) Succeeded(email string) {
	if k := emailKey(email); k != "" {
		ll.byEmail.Reset(k)
	}
}
