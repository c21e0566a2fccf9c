package mocks

import "errors"

// ErrInjected is a convenience error for xxxFn overrides in tests.
var ErrInjected = errors.New("injected failure")
