package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrPaymentNotCaptured = errors.New("payment not captured")
	ErrNotFound           = errors.New("not found")
	ErrUpstream           = errors.New("upstream failure")
)

// PaymentStatusError reports the gateway status of a payment that cannot be
// finalized. It matches ErrPaymentNotCaptured.
type PaymentStatusError struct {
	Status string
}

func (e *PaymentStatusError) Error() string {
	return fmt.Sprintf("payment not captured: status %q", e.Status)
}

func (e *PaymentStatusError) Unwrap() error {
	return ErrPaymentNotCaptured
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
