package triton

import "errors"

// ErrNoToken is returned when a login reply carries no Authorization header.
var ErrNoToken = errors.New("triton: login response has no token")
