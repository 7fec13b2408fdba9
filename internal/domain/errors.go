package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyReconciled is returned by the ledger when a payment row already exists
// for the intent being reconciled.
var ErrAlreadyReconciled = errors.New("payment intent already reconciled")

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError covers malformed or incomplete requests. Fields lists every
// missing field when more than one is reported.
type ValidationError struct {
	Field  string
	Fields []string
	Msg    string
	Err    error
}

func (e ValidationError) Error() string {
	if len(e.Fields) > 0 {
		msg := e.Msg
		if msg == "" {
			msg = "missing required fields"
		}
		return fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

type PaymentsDisabledError struct{}

func (PaymentsDisabledError) Error() string { return "online payments are currently disabled" }

// InvalidSignatureError is returned when a webhook fails authenticity checks.
type InvalidSignatureError struct {
	Err error
}

func (e InvalidSignatureError) Error() string {
	if e.Err == nil {
		return "invalid webhook signature"
	}
	return "invalid webhook signature: " + e.Err.Error()
}

func (e InvalidSignatureError) Unwrap() error { return e.Err }

// ProcessorError wraps failures talking to the payment processor.
type ProcessorError struct {
	Op  string
	Err error
}

func (e ProcessorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("payment processor %s failed", e.Op)
	}
	return fmt.Sprintf("payment processor %s failed: %v", e.Op, e.Err)
}

func (e ProcessorError) Unwrap() error { return e.Err }

// ReconciliationError marks a local failure after the customer was charged.
type ReconciliationError struct {
	Step     string
	IntentID string
	Err      error
}

func (e ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation of %s failed at %s: %v", e.IntentID, e.Step, e.Err)
}

func (e ReconciliationError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsPaymentsDisabled(err error) bool {
	var target PaymentsDisabledError
	return errors.As(err, &target)
}

func IsInvalidSignature(err error) bool {
	var target InvalidSignatureError
	return errors.As(err, &target)
}

func IsProcessor(err error) bool {
	var target ProcessorError
	return errors.As(err, &target)
}

func IsReconciliation(err error) bool {
	var target ReconciliationError
	return errors.As(err, &target)
}
