package ratelimit_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/copilot/internal/app/system/ratelimit"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("other keys are counted separately")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("reset key should be allowed again")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 10*time.Millisecond)
	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("second request in window should be limited")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("a") {
		t.Error("request after window should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded", "203.0.113.9, 10.0.0.1", "", "10.0.0.2:5000", "203.0.113.9"},
		{"real ip", "", "198.51.100.7", "10.0.0.2:5000", "198.51.100.7"},
		{"remote", "", "", "192.0.2.4:1234", "192.0.2.4"},
		{"remote no port", "", "", "192.0.2.4", "192.0.2.4"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ratelimit.ClientIP(r); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginLimiter_EmailLimit(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("POST", "/login", nil)
		r.RemoteAddr = "192.0.2.1:1"
		if err := ll.Check(r, "Una@Example.com"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "192.0.2.2:1"
	if err := ll.Check(r, " una@example.com "); !errors.Is(err, ratelimit.ErrTooManyAttempts) {
		t.Errorf("sixth attempt: got %v, want ErrTooManyAttempts", err)
	}

	ll.Succeeded("una@example.com")
	if err := ll.Check(r, "una@example.com"); err != nil {
		t.Errorf("after success: %v", err)
	}
}
