// Package errors implements a small coded-error type used across the rig.
//
// It is deliberately narrower than github.com/nabbar/golib/errors: one code
// per row of the error-kind table, a single optional parent, and no
// gin/hashicorp adapters. What it keeps from the teacher is the shape: a
// private struct behind an exported interface, a Code accessor, and an
// Is/HasCode pair so callers can test kind without string matching.
package errors

import (
	"fmt"
)

// Code identifies one of the rig's error kinds (spec.md §7).
type Code uint8

const (
	// CodeNone is the zero value; never returned by a constructor below.
	CodeNone Code = iota
	// CodeConfigInvalid: config parse/validation failure. Fatal at startup.
	CodeConfigInvalid
	// CodeBlockCreation: a payload variant cannot satisfy cache constraints.
	CodeBlockCreation
	// CodeTransportConnect: TCP/UDS/gRPC connect failure. Recovered locally.
	CodeTransportConnect
	// CodeTransportWrite: mid-stream I/O error. Recovered locally.
	CodeTransportWrite
	// CodeScrapeFailure: target-metrics HTTP/expvar fetch failure. Logged, retried.
	CodeScrapeFailure
	// CodeShutdownTimeout: Shutdown.Wait exceeded its deadline.
	CodeShutdownTimeout
	// CodeTargetExit: the target server process returned an error.
	CodeTargetExit
)

func (c Code) String() string {
	switch c {
	case CodeConfigInvalid:
		return "ConfigInvalid"
	case CodeBlockCreation:
		return "BlockCreation"
	case CodeTransportConnect:
		return "TransportConnect"
	case CodeTransportWrite:
		return "TransportWrite"
	case CodeScrapeFailure:
		return "ScrapeFailure"
	case CodeShutdownTimeout:
		return "ShutdownTimeout"
	case CodeTargetExit:
		return "TargetExit"
	default:
		return "None"
	}
}

// Error is the rig's coded error. It satisfies the standard error interface
// and unwraps to its parent, so errors.Is/errors.As from the standard
// library keep working against it.
type Error interface {
	error
	Code() Code
	Unwrap() error
	Is(err error) bool
	HasCode(code Code) bool
}

type ers struct {
	c Code
	m string
	p error
}

// New builds a new coded error with no parent.
func New(code Code, message string, args ...interface{}) Error {
	return &ers{c: code, m: fmt.Sprintf(message, args...)}
}

// Wrap attaches code and message to an existing error, preserving it as the
// parent for Unwrap/Is chains.
func Wrap(code Code, parent error, message string, args ...interface{}) Error {
	return &ers{c: code, m: fmt.Sprintf(message, args...), p: parent}
}

func (e *ers) Error() string {
	if e == nil {
		return ""
	}
	if e.p != nil {
		return fmt.Sprintf("%s: %s: %s", e.c, e.m, e.p.Error())
	}
	return fmt.Sprintf("%s: %s", e.c, e.m)
}

func (e *ers) Code() Code {
	if e == nil {
		return CodeNone
	}
	return e.c
}

func (e *ers) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.p
}

func (e *ers) Is(err error) bool {
	if e == nil || err == nil {
		return false
	}
	if o, ok := err.(Error); ok {
		return e.c == o.Code()
	}
	return false
}

func (e *ers) HasCode(code Code) bool {
	if e == nil {
		return false
	}
	if e.c == code {
		return true
	}
	if o, ok := e.p.(Error); ok {
		return o.HasCode(code)
	}
	return false
}

// CodeOf extracts the Code carried by err, or CodeNone if err isn't one of
// ours (including err == nil).
func CodeOf(err error) Code {
	if o, ok := err.(Error); ok {
		return o.Code()
	}
	return CodeNone
}
