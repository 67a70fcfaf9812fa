package registry

import "errors"

// ErrNotFound is returned by Lookup when no live entry exists for a role.
var ErrNotFound = errors.New("registry: entry not found")
