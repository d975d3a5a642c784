package memos

import "errors"

var (
	// ErrNotFound is returned by callers that need a memo to exist.
	// The repository itself reports absence as found == false or zero rows.
	ErrNotFound     = errors.New("memo not found")
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError wraps a failure of the backing engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "memos: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
