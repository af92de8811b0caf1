// Package htmlsanitize cleans user-supplied response field values before
// they are passed upstream or echoed back to clients.
package htmlsanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// SanitizeValue sanitizes a JSON field value. Strings and arrays or objects
// of strings are cleaned recursively; numbers, booleans and null pass
// through unchanged.
func SanitizeValue(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode field value: %w", err)
	}
	clean, changed := sanitizeAny(v)
	if !changed {
		return raw, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean); err != nil {
		return nil, fmt.Errorf("encode field value: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SanitizeBody returns a copy of body with every field value sanitized.
func SanitizeBody(body map[string]models.FieldValue) (map[string]models.FieldValue, error) {
	if body == nil {
		return nil, nil
	}
	out := make(map[string]models.FieldValue, len(body))
	for k, fv := range body {
		v, err := SanitizeValue(fv.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fv.Value = v
		out[k] = fv
	}
	return out, nil
}

func sanitizeAny(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		if IsPlainText(x) {
			return x, false
		}
		clean := Sanitize(x)
		// Text such as "x < y > z" only comes back entity-escaped.
		if html.UnescapeString(clean) == x {
			return x, false
		}
		return clean, true
	case []any:
		changed := false
		for i, e := range x {
			c, ch := sanitizeAny(e)
			x[i] = c
			changed = changed || ch
		}
		return x, changed
	case map[string]any:
		changed := false
		for k, e := range x {
			c, ch := sanitizeAny(e)
			x[k] = c
			changed = changed || ch
		}
		return x, changed
	default:
		return v, false
	}
}
