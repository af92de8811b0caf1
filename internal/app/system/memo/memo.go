// Package memo memoizes pure functions on their inputs.
//
// Inputs must be comparable; callers pass table pointers, ids and dates
// rather than slices so that equal inputs mean an unchanged projection.
// Each memoized function keeps at most Size results and starts over when it
// fills up.
package memo

import "sync"

// Size bounds the number of results a memoized function retains.
const Size = 256

type key2[A, B comparable] struct {
	a A
	b B
}

type key3[A, B, C comparable] struct {
	a A
	b B
	c C
}

type table[K comparable, R any] struct {
	mu sync.Mutex
	m  map[K]R
}

func (t *table[K, R]) get(k K, compute func() R) R {
	t.mu.Lock()
	if r, ok := t.m[k]; ok {
		t.mu.Unlock()
		return r
	}
	t.mu.Unlock()

	// Computed outside the lock; two callers may race to compute the same
	// key, which is harmless for pure functions.
	r := compute()

	t.mu.Lock()
	if t.m == nil || len(t.m) >= Size {
		t.m = make(map[K]R)
	}
	t.m[k] = r
	t.mu.Unlock()
	return r
}

// Func1 memoizes a one-argument function.
func Func1[A comparable, R any](fn func(A) R) func(A) R {
	var t table[A, R]
	return func(a A) R {
		return t.get(a, func() R { return fn(a) })
	}
}

// Func2 memoizes a two-argument function.
func Func2[A, B comparable, R any](fn func(A, B) R) func(A, B) R {
	var t table[key2[A, B], R]
	return func(a A, b B) R {
		return t.get(key2[A, B]{a, b}, func() R { return fn(a, b) })
	}
}

// Func3 memoizes a three-argument function.
func Func3[A, B, C comparable, R any](fn func(A, B, C) R) func(A, B, C) R {
	var t table[key3[A, B, C], R]
	return func(a A, b B, c C) R {
		return t.get(key3[A, B, C]{a, b, c}, func() R { return fn(a, b, c) })
	}
}
