package postgres

import "errors"

// ErrDBRequired is returned when a repository is built without a database handle.
var ErrDBRequired = errors.New("database handle is required")
