// Package faults defines the error taxonomy the executor and debugger
// use to report faults, built on github.com/pkg/errors so the faults
// wrapped by Decodef, StackUnderflowAt and DivisionByZeroAt carry a
// stack trace back to where they were raised.
package faults

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel fault kinds. Use errors.Is against these after unwrapping a
// wrapped fault.
var (
	// ErrDecodeFault is raised for an invalid opcode or an operand
	// that fails its register/value class check.
	ErrDecodeFault = errors.New("decode fault")

	// ErrStackUnderflow is raised by POP on an empty stack. RET on an
	// empty stack halts instead and does not raise it.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrDivisionByZero is raised by MOD when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInputClosed is raised when the input channel is closed or a
	// blocking readline is cancelled.
	ErrInputClosed = errors.New("input closed")

	// ErrSnapshotMiss is reported (not fatal) when loading an empty
	// snapshot slot or an out-of-range slot index.
	ErrSnapshotMiss = errors.New("snapshot miss")

	// ErrBadCommand is returned (not fatal) by the Controller when
	// LoadProgram or RunProgram is called in a state that does not
	// allow it.
	ErrBadCommand = errors.New("bad command")

	// ErrDebuggerHalt is the synthetic fault produced when the
	// debugger's halt command latches; see DESIGN.md's resolution of
	// spec.md's open question.
	ErrDebuggerHalt = errors.New("halted by debugger")
)

// Decodef wraps ErrDecodeFault with a formatted message, e.g. the
// offending IP and raw word.
func Decodef(format string, args ...interface{}) error {
	return errors.Wrap(ErrDecodeFault, fmt.Sprintf(format, args...))
}

// StackUnderflowAt wraps ErrStackUnderflow with the IP at which the
// underflow occurred.
func StackUnderflowAt(ip uint16) error {
	return errors.Wrapf(ErrStackUnderflow, "at IP=%04x", ip)
}

// DivisionByZeroAt wraps ErrDivisionByZero with the IP at which it
// occurred.
func DivisionByZeroAt(ip uint16) error {
	return errors.Wrapf(ErrDivisionByZero, "at IP=%04x", ip)
}

// Is reports whether err wraps target anywhere in its chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
