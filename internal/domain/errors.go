package domain

import "errors"

// ErrValidation is returned when an incoming request fails shape validation
// (e.g. missing state code). Handlers should map this to HTTP 422.
var ErrValidation = errors.New("validation error")

// ErrCompile is returned by the query compiler for requests that cannot be
// turned into SQL (e.g. an unknown purpose). Compilation errors happen before
// any database connection is acquired. Handlers should map this to HTTP 400.
var ErrCompile = errors.New("compile error")
