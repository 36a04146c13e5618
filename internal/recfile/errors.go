package recfile

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Decode wraps exactly one of them.
var (
	ErrMalformedContainer = errors.New("malformed container")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrTruncatedInput     = errors.New("truncated input")
)

// DecodeError describes where decoding stopped and why.
type DecodeError struct {
	Kind   error
	Op     string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("recfile: %s at offset %d: %v", e.Op, e.Offset, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ErrorKind classifies the failure for callers that report errors by kind.
func (e *DecodeError) ErrorKind() string {
	switch e.Kind {
	case ErrMalformedContainer:
		return "malformed"
	case ErrUnsupportedVersion:
		return "unsupported_version"
	case ErrTruncatedInput:
		return "truncated"
	default:
		return "unknown"
	}
}

func malformed(op string, offset int, err error) error {
	return &DecodeError{Kind: ErrMalformedContainer, Op: op, Offset: offset, Err: err}
}

func truncated(op string, offset int, err error) error {
	return &DecodeError{Kind: ErrTruncatedInput, Op: op, Offset: offset, Err: err}
}

func unsupported(op string, offset int, err error) error {
	return &DecodeError{Kind: ErrUnsupportedVersion, Op: op, Offset: offset, Err: err}
}
