package domain

import "errors"

var (
	// ErrMissingID indicates an exercise definition without an identifier.
	ErrMissingID = errors.New("exercise has no id")

	// ErrNoSteps indicates an exercise definition with zero steps.
	ErrNoSteps = errors.New("exercise has no steps")
)
