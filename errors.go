package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal automation failure.
type ErrorKind string

const (
	KindConfigMissing   ErrorKind = "config-missing"
	KindElementNotFound ErrorKind = "element-not-found"
	KindAmbiguousMatch  ErrorKind = "ambiguous-match"
	KindTotalMismatch   ErrorKind = "total-mismatch"
	KindOTPRejected     ErrorKind = "otp-rejected"
	KindPaymentDeclined ErrorKind = "payment-declined"
	KindTimeout         ErrorKind = "timeout"
)

// StepError is a fatal error raised by one pipeline step. Every kind aborts
// the run: a one-shot payment flow must never retry past a failure.
type StepError struct {
	Step string
	Kind ErrorKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, kind ErrorKind, format string, args ...interface{}) *StepError {
	return &StepError{Step: step, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// kindOf returns the ErrorKind carried by err, or "" for plain errors.
func kindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
