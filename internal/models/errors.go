package models

import "errors"

var (
	// ErrNotFound means the provider could not resolve the requested place.
	ErrNotFound = errors.New("location not found")
	// ErrTransient covers network faults and any other non-success provider response.
	ErrTransient = errors.New("weather provider unavailable")
	// ErrSuperseded is returned when a newer search for the same session finished first.
	ErrSuperseded = errors.New("search superseded by a newer request")
	ErrValidation = errors.New("validation failed")
)
