package pvm

import (
	"errors"
	"fmt"

	"github.com/dennis-doyensec/r2pickledec/disasm"
)

// Sentinel errors returned by individual opcode handlers. pvm deliberately
// sticks to plain errors.New/fmt.Errorf rather than a wrapping library -
// the interpreter has exactly one place (OpError, below) that needs to
// attach context to a failure, and errors.Is/As over stdlib sentinels
// covers every check the rest of the module needs to make.
var (
	ErrStackUnderflow = errors.New("pvm: stack underflow")
	ErrNoMarker       = errors.New("pvm: no marker on metastack")
	ErrDictParity     = errors.New("pvm: dict built from an odd number of elements")
	ErrWrongType      = errors.New("pvm: operand has unexpected type")
	ErrUnsupportedOp  = errors.New("pvm: unsupported opcode")
	ErrMemoMiss       = errors.New("pvm: memo slot not bound")
	ErrBadMemoSlot    = errors.New("pvm: negative memo slot")
)

// OpError wraps a handler failure with the offset and opcode it happened
// at, so a diagnostic always carries both pieces of context a log line
// would want.
type OpError struct {
	Offset int64
	Code   disasm.Code
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("pvm: %s at offset 0x%x: %v", e.Code, e.Offset, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
