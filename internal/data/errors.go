package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrClientIDRequired is returned when a session snapshot is written without a client id.
	ErrClientIDRequired = errors.New("client_id is required")
)
