package quiz

import "errors"

var (
	// ErrEmptyContent is returned when the user has no viewed characters
	// usable for the requested quiz kind.
	ErrEmptyContent = errors.New("no eligible content for quiz")
	// ErrAlreadyAnswered is returned by a second SubmitAnswer for the same
	// question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidChoice is returned when the choice index is out of range
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrNotInProgress is returned when a session is not running
	ErrNotInProgress = errors.New("quiz not in progress")
	// ErrAlreadyStarted is returned by Start on a session that was not reset
	ErrAlreadyStarted = errors.New("quiz already started")
	// ErrUnknownKind is returned for an unsupported quiz kind
	ErrUnknownKind = errors.New("unknown quiz kind")
	// ErrInvalidLength is returned when fewer than one question is requested
	ErrInvalidLength = errors.New("quiz length must be positive")
)
