package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a body is neither the bare value nor
// an envelope keyed by the expected name.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// DecodeList decodes a bare JSON array, or the array stored under key in
// an envelope object such as {"teams": [...], "links": {...}}.
func DecodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '[':
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	case raw[0] == '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		inner, ok := env[key]
		if !ok || bytes.TrimSpace(inner)[0] == '{' {
			return nil, fmt.Errorf("%w: no %q list", ErrUnexpectedShape, key)
		}
		return DecodeList[T](inner, key)
	default:
		return nil, fmt.Errorf("%w: %.20q", ErrUnexpectedShape, raw)
	}
}

// DecodeOne decodes a bare JSON object, or the value stored under key in
// an envelope. An enveloped array must hold exactly one element.
func DecodeOne[T any](raw json.RawMessage, key string) (T, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return zero, fmt.Errorf("%w: want object", ErrUnexpectedShape)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	if inner, ok := env[key]; ok {
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '[' {
			items, err := DecodeList[T](inner, key)
			if err != nil {
				return zero, err
			}
			if len(items) != 1 {
				return zero, fmt.Errorf("%w: %d items under %q", ErrUnexpectedShape, len(items), key)
			}
			return items[0], nil
		}
		raw = inner
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	return out, nil
}
