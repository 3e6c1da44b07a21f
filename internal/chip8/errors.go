package chip8

import (
	"errors"
	"fmt"
)

// FaultKind identifies the condition that stopped an instruction from executing.
type FaultKind int

// Fault kinds raised by the instruction dispatcher.
const (
	InvalidInstruction FaultKind = iota + 1 // fetched word matches no opcode
	PopEmptyStack                           // return executed with an empty call stack
)

// Sentinel errors wrapped by Fault, usable with errors.Is.
var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrPopEmptyStack      = errors.New("pop from empty stack")
)

// Fault is returned by Tick when an instruction could not be executed.
// It carries the address of the opcode and its raw nibbles for diagnostics.
type Fault struct {
	Kind    FaultKind
	PC      uint16
	Nibbles [4]byte
}

// Error implements the error interface.
func (f *Fault) Error() string {
	n := f.Nibbles
	switch f.Kind {
	case PopEmptyStack:
		return fmt.Sprintf("[pc = %03X]; Tried to pop an empty stack: %X%X%X%X", f.PC, n[0], n[1], n[2], n[3])
	default:
		return fmt.Sprintf("[pc = %03X]; Illegal instruction: %X%X%X%X", f.PC, n[0], n[1], n[2], n[3])
	}
}

// Unwrap returns the sentinel error matching the fault kind.
func (f *Fault) Unwrap() error {
	if f.Kind == PopEmptyStack {
		return ErrPopEmptyStack
	}
	return ErrInvalidInstruction
}

// Opcode returns the 16-bit opcode assembled from the nibbles.
func (f *Fault) Opcode() uint16 {
	n := f.Nibbles
	return uint16(n[0])<<12 | uint16(n[1])<<8 | uint16(n[2])<<4 | uint16(n[3])
}
