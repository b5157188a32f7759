package engine

import "errors"

var (
	// ErrInvalidSignature is returned when a signature is missing a required
	// field.
	ErrInvalidSignature = errors.New("invalid rule signature")

	// ErrSignatureConflict is returned when a signature's message arguments do
	// not agree with its bindings, or when a rule id is registered twice.
	ErrSignatureConflict = errors.New("rule signature conflict")

	// ErrRegistryFrozen is returned by RegisterRule once analysis has started.
	ErrRegistryFrozen = errors.New("rule registry is frozen")

	// ErrHostReporting wraps an error returned by a Sink.
	ErrHostReporting = errors.New("host rejected diagnostic")
)
