// Package apierr describes failed upstream calls. Every non-2xx response
// from Triton or Neptune becomes an *Error carrying the HTTP status and the
// best message the body offers.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBody bounds how much of an error body is read.
const maxBody = 64 << 10

// Error is a non-2xx upstream response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream error %d", e.Code)
	}
	return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
}

// FromResponse builds an *Error from resp. The message is the body's
// "error" or "message" field when the body is a JSON object, otherwise the
// raw body text, otherwise the status text. It does not close the body.
func FromResponse(resp *http.Response) *Error {
	e := &Error{Code: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	e.Message = parseMessage(raw)
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

func parseMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return text
	}
	if len(body.Error) > 0 {
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		if string(body.Error) != "null" {
			return string(body.Error)
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return text
}

// Code returns the HTTP status carried by err, or 0.
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsConflict reports whether err is an upstream 409.
func IsConflict(err error) bool { return Code(err) == http.StatusConflict }

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool { return Code(err) == http.StatusNotFound }

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool { return Code(err) == http.StatusUnauthorized }
