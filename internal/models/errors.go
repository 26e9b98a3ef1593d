package models

import "errors"

var (
	// ErrNotFound is returned when a city name cannot be resolved or a row
	// does not exist for the session.
	ErrNotFound = errors.New("not found")

	// ErrUpstream covers network failures and non-success API responses.
	ErrUpstream = errors.New("upstream error")

	// ErrStore is a persistence failure.
	ErrStore = errors.New("store error")

	// ErrValidation rejects a request before it reaches the store.
	ErrValidation = errors.New("validation error")
)
