package domain

import "errors"

// ErrUserNotFound is returned when a user cannot be found in the store.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownState is returned when the driver is asked to run a state that is not registered.
var ErrUnknownState = errors.New("unknown state")

// ErrTraversalLimit is returned when a single turn hops through too many states.
var ErrTraversalLimit = errors.New("state traversal limit exceeded")

// ErrNoStartState is returned when an application has no start state configured.
var ErrNoStartState = errors.New("no start state configured")

// ErrorMessage is raised by validators to ask the user to try again.
// Its text is shown to the user as is.
type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string {
	return e.Message
}

// NewErrorMessage builds a user-visible validation error.
func NewErrorMessage(msg string) *ErrorMessage {
	return &ErrorMessage{Message: msg}
}

// AsErrorMessage unwraps err into an ErrorMessage if it is one.
func AsErrorMessage(err error) (*ErrorMessage, bool) {
	var em *ErrorMessage
	if errors.As(err, &em) {
		return em, true
	}
	return nil, false
}
