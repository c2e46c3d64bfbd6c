package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a write would violate a relational constraint, for
// example deleting a team that other rows still reference without a cascade.
var ErrConflict = errors.New("repository: conflict")
