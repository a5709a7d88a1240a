package repository

import "errors"

// ErrNotFound is returned when a camera configuration does not exist.
var ErrNotFound = errors.New("repository: not found")
