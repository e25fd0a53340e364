package models

import "errors"

var (
	// ErrNotFound means the row is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means a recommendation or transaction cannot make the requested transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrConcurrentUpdate means a holding changed between read and write inside a unit of work.
	ErrConcurrentUpdate = errors.New("holding modified concurrently")
	// ErrInvalidFiscalYear means a fiscal-year string is not "YYYY-YY".
	ErrInvalidFiscalYear = errors.New("invalid fiscal year")
)
