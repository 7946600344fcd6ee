package story

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBusy means a generation request is still unresolved; player input is
	// gated until it settles.
	ErrBusy = errors.New("a request is already in flight")

	// ErrNoCredentials means no API key was configured at startup. Nothing can
	// be played in this condition.
	ErrNoCredentials = errors.New("no API key configured")

	// ErrNotPlaying means the action is not valid in the current phase.
	ErrNotPlaying = errors.New("no game in progress")

	// ErrAlreadyStarted means startGame was invoked mid-playthrough.
	ErrAlreadyStarted = errors.New("a game is already in progress")

	// ErrEmptyResponse means the provider answered but the payload held
	// nothing usable. Treated exactly like any other generation failure.
	ErrEmptyResponse = errors.New("provider returned no usable content")
)

// GenerationError wraps a provider failure. Op names the request kind.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// userMessage flattens any provider error into the plain string the view
// layer is allowed to see.
func userMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The storyteller took too long to answer. Please try again."
	case errors.Is(err, ErrEmptyResponse):
		return "The storyteller came back empty-handed. Please try again."
	default:
		return "The storyteller stumbled over that one. Please try again."
	}
}
