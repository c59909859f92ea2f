package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDiscriminator is returned for records without a string msgType.
	ErrMissingDiscriminator = errors.New("missing msgType")
	// ErrInvalidDirection is returned for an isP2p/isWrite combination
	// that dCache does not produce.
	ErrInvalidDirection = errors.New("unexpected isP2p or isWrite")
	// ErrSchemaViolation is returned when a record lacks a required field
	// or carries a field of the wrong type.
	ErrSchemaViolation = errors.New("record does not match schema")
	// ErrInvalidUTF8 is returned for records that are not UTF-8 text.
	ErrInvalidUTF8 = errors.New("record is not valid UTF-8")
)

// DecodeError reports a billing record that could not be decoded.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode billing record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
