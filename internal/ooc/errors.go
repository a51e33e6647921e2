package ooc

import "fmt"

// Malformed manifest or payload file. Aborts the scene load.
type FormatError struct {
	Source string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error in %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("format error in %s: %s", e.Source, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErrorf(source string, format string, args ...any) *FormatError {
	return &FormatError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// Storage failure while reading a payload. The loader contains it and
// retries on a later frame.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
