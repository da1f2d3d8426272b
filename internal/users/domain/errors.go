package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrFriendNotFound = errors.New("friend not found")
	ErrNoDestination  = errors.New("destination not set")
)

// StoreWriteError is returned by the visit operations when a store write
// fails. Its message is the raw store error text.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return e.Err.Error()
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
