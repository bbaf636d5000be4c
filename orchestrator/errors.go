package orchestrator

import "errors"

// ErrEngineFailure is returned by Handle when the council engine call fails.
// The user turn appended before the call stays recorded; the wrapped error
// carries the underlying cause.
var ErrEngineFailure = errors.New("council engine failure")
