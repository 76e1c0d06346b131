package disasm

import (
	"math/big"
	"strconv"
)

// Instruction is one decoded pickle opcode plus whatever inline argument it
// carries. Only the fields relevant to Code are populated; the rest are
// left at their zero value.
type Instruction struct {
	Code Code
	Off  int64 // offset of the opcode byte itself
	Size int   // total encoded length, opcode byte included

	Int   int64
	Big   *big.Int // set for LONG/LONG1/LONG4 when the value doesn't fit int64
	Float float64
	Str   string
	Mod   string // module half of a GLOBAL opcode's two-line argument
	Bytes []byte

	// Frame, if Code == OpFrame, is the declared length of the framed
	// region that follows. The VM does not enforce it (framing is a
	// transport-layer optimization, not a semantic one) but surfaces it
	// for diagnostics.
	Frame int64
}

// String renders the mnemonic and, for opcodes with a simple scalar
// argument, that argument - useful for -v/debug tracing.
func (ins Instruction) String() string {
	switch ins.Code {
	case OpInt, OpBinint, OpBinint1, OpBinint2, OpLong, OpLong1, OpLong4,
		OpBinget, OpLongBinget, OpBinput, OpLongBinput, OpExt1, OpExt2, OpExt4:
		return ins.Code.String() + " " + strconv.FormatInt(ins.Int, 10)
	case OpFloat, OpBinfloat:
		return ins.Code.String() + " " + strconv.FormatFloat(ins.Float, 'g', -1, 64)
	case OpString, OpUnicode, OpShortBinstring, OpBinstring, OpBinunicode,
		OpShortBinunicode, OpBinunicode8, OpGlobal, OpStackGlobal, OpInst:
		return ins.Code.String() + " " + ins.Str
	default:
		return ins.Code.String()
	}
}
