package domain

import "errors"

// ErrArchiveNotFound is returned by archive store backends when the path a
// caller named does not exist, notably when the completion marker tries to
// move an artifact that is already gone.
var ErrArchiveNotFound = errors.New("archive not found")
