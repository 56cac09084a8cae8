package agent

import "errors"

var (
	ErrNoSuspensionPending    = errors.New("no suspension pending")
	ErrUnknownSession         = errors.New("unknown session")
	ErrUnknownAnswer          = errors.New("no answer recorded for question")
	ErrMaxStepsExceeded       = errors.New("max steps exceeded")
	ErrIncompatibleCheckpoint = errors.New("incompatible checkpoint")
)
