package domain

import "errors"

var (
	// ErrNotFound signals a missing record or blob key.
	ErrNotFound = errors.New("not found")
	// ErrReservedField signals a payload field that collides with a reserved
	// serialization key (id, uuid, epoch).
	ErrReservedField = errors.New("reserved payload field")
	// ErrNoCollection signals a record operation without a collection name.
	ErrNoCollection = errors.New("record has no collection")
	// ErrInvalidKey signals a malformed combined identifier.
	ErrInvalidKey = errors.New("invalid record key")
)
