package errors

import (
	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/internal/enum"
)

var (
	// connection errors
	ErrNotConnected      = errors.New("connection not established")
	ErrConnectionFailed  = errors.New("connection failed")
	ErrAuthentication    = errors.New("authentication rejected")
	ErrConnectionTimeout = errors.New("connection timeout")
)

// ConversionError is the failure of one PDF rasterization, carrying its
// classified kind and the tool's diagnostic output. The kind set is closed;
// callers switch on Kind rather than unwrapping types.
type ConversionError struct {
	Kind   enum.FailureKind
	Detail string
}

func (e *ConversionError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func NewConversionError(kind enum.FailureKind, detail string) *ConversionError {
	return &ConversionError{Kind: kind, Detail: detail}
}

// AsConversionError returns the classified conversion failure inside err, or
// a Generic one wrapping its message when err carries no classification.
func AsConversionError(err error) *ConversionError {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr
	}
	return &ConversionError{Kind: enum.FailureGeneric, Detail: err.Error()}
}
