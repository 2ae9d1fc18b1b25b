package store

import "errors"

var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateID indicates an insert collided with an existing row id.
	ErrDuplicateID = errors.New("store: duplicate id")
)

// StoreError wraps any persistence read/write failure. Callers receive it
// intact; there are no partial results.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
