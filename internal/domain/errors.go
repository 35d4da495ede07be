package domain

import "errors"

// ErrNotFound is returned by stores when no row matches the requested id.
// Cache lookups pass it through unchanged.
var ErrNotFound = errors.New("entity not found")
