package repository

import "errors"

// ErrVersionConflict is returned when an optimistic-concurrency update finds
// the row version changed since it was read. Callers re-read and retry.
var ErrVersionConflict = errors.New("optimistic version conflict")
