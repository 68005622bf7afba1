package database

import "errors"

// ErrNotFound is returned when no stored audit matches the lookup.
var ErrNotFound = errors.New("audit not found")
