package session

import "errors"

var (
	ErrNotFound       = errors.New("session not found")
	ErrNotActive      = errors.New("session is not active")
	ErrNotStarted     = errors.New("session has not been started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrStepMismatch   = errors.New("submission does not target the current step")
	ErrActionNotFound = errors.New("action not found in step")
	ErrActionMismatch = errors.New("action type does not match submission")
)
