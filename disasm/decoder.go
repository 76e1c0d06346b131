package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/dennis-doyensec/r2pickledec/internal/pyquote"
)

// ErrTruncated is returned by Next when buf does not contain enough bytes
// to decode the instruction starting at off - the pickle stream ends (or
// the analyzed buffer window ends) mid-instruction.
var ErrTruncated = errors.New("disasm: truncated instruction")

// ErrBadStringDelim is returned by Next for a protocol-0 STRING opcode
// whose line isn't a properly quoted and terminated Python string literal.
var ErrBadStringDelim = errors.New("disasm: malformed STRING literal")

// Next decodes the single instruction starting at byte offset off within
// buf. It never reads past len(buf); running out of bytes mid-instruction
// yields ErrTruncated rather than a panic, since buf is frequently a
// finite window into a larger address space supplied by the host.
func Next(buf []byte, off int64) (Instruction, error) {
	if off < 0 || off >= int64(len(buf)) {
		return Instruction{}, ErrTruncated
	}
	code := Code(buf[off])
	ins := Instruction{Code: code, Off: off}

	body := buf[off+1:]
	switch code {
	case OpMark, OpStop, OpPop, OpPopMark, OpDup, OpNone, OpNewtrue, OpNewfalse,
		OpReduce, OpBuild, OpAppend, OpAppends, OpSetitem, OpSetitems, OpAdditems,
		OpList, OpDict, OpTuple, OpTuple1, OpTuple2, OpTuple3, OpEmptyList,
		OpEmptyTuple, OpEmptyDict, OpEmptySet, OpFrozenset, OpNewobj, OpNewobjEx,
		OpObj, OpMemoize:
		ins.Size = 1

	case OpProto:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(body[0])
		ins.Size = 2

	case OpBinint:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		v := binary.LittleEndian.Uint32(body[:4])
		ins.Int = int64(int32(v))
		ins.Size = 5

	case OpBinint1:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(body[0])
		ins.Size = 2

	case OpBinint2:
		if len(body) < 2 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(binary.LittleEndian.Uint16(body[:2]))
		ins.Size = 3

	case OpLong1:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		n := int(body[0])
		if len(body) < 1+n {
			return Instruction{}, ErrTruncated
		}
		ins.Int, ins.Big, ins.Bytes = decodeLongBytes(body[1 : 1+n])
		ins.Size = 2 + n

	case OpLong4:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		n := int(binary.LittleEndian.Uint32(body[:4]))
		if n < 0 || len(body) < 4+n {
			return Instruction{}, ErrTruncated
		}
		ins.Int, ins.Big, ins.Bytes = decodeLongBytes(body[4 : 4+n])
		ins.Size = 5 + n

	case OpBinfloat:
		if len(body) < 8 {
			return Instruction{}, ErrTruncated
		}
		bits := binary.BigEndian.Uint64(body[:8])
		ins.Float = math.Float64frombits(bits)
		ins.Size = 9

	case OpBinget, OpBinput:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(body[0])
		ins.Size = 2

	case OpLongBinget:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(binary.LittleEndian.Uint32(body[:4]))
		ins.Size = 5

	case OpLongBinput:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(binary.LittleEndian.Uint32(body[:4]))
		ins.Size = 5

	case OpPut:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		v, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil {
			return Instruction{}, perr
		}
		ins.Int = v
		ins.Size = 1 + n

	case OpGet:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		v, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil {
			return Instruction{}, perr
		}
		ins.Int = v
		ins.Size = 1 + n

	case OpInt:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		switch string(line) {
		case "00":
			ins.Code = OpNewfalse
		case "01":
			ins.Code = OpNewtrue
		default:
			v, perr := strconv.ParseInt(string(line), 10, 64)
			if perr != nil {
				return Instruction{}, perr
			}
			ins.Int = v
		}
		ins.Size = 1 + n

	case OpFloat:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		v, perr := strconv.ParseFloat(string(line), 64)
		if perr != nil {
			return Instruction{}, perr
		}
		ins.Float = v
		ins.Size = 1 + n

	case OpLong:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		l := len(line)
		if l < 1 || line[l-1] != 'L' {
			return Instruction{}, ErrTruncated
		}
		v := new(big.Int)
		if _, ok := v.SetString(string(line[:l-1]), 10); !ok {
			return Instruction{}, fmt.Errorf("disasm: invalid LONG literal %q", line)
		}
		ins.Int = truncateBig(v)
		if !v.IsInt64() {
			ins.Big = v
		}
		ins.Size = 1 + n

	case OpString:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		s, derr := decodeQuotedString(line)
		if derr != nil {
			return Instruction{}, derr
		}
		ins.Str = s
		ins.Size = 1 + n

	case OpUnicode, OpPersid:
		line, n, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		ins.Str = string(line)
		ins.Size = 1 + n

	case OpShortBinstring, OpShortBinbytes:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		n := int(body[0])
		if len(body) < 1+n {
			return Instruction{}, ErrTruncated
		}
		data := body[1 : 1+n]
		if code == OpShortBinstring {
			ins.Str = string(data)
		} else {
			ins.Bytes = append([]byte(nil), data...)
		}
		ins.Size = 2 + n

	case OpShortBinunicode:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		n := int(body[0])
		if len(body) < 1+n {
			return Instruction{}, ErrTruncated
		}
		ins.Str = string(body[1 : 1+n])
		ins.Size = 2 + n

	case OpBinstring, OpBinbytes:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		n := int(binary.LittleEndian.Uint32(body[:4]))
		if n < 0 || len(body) < 4+n {
			return Instruction{}, ErrTruncated
		}
		data := body[4 : 4+n]
		if code == OpBinstring {
			ins.Str = string(data)
		} else {
			ins.Bytes = append([]byte(nil), data...)
		}
		ins.Size = 5 + n

	case OpBinunicode:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		n := int(binary.LittleEndian.Uint32(body[:4]))
		if n < 0 || len(body) < 4+n {
			return Instruction{}, ErrTruncated
		}
		ins.Str = string(body[4 : 4+n])
		ins.Size = 5 + n

	case OpBinunicode8, OpBinbytes8, OpBytearray8:
		if len(body) < 8 {
			return Instruction{}, ErrTruncated
		}
		n64 := binary.LittleEndian.Uint64(body[:8])
		if n64 > math.MaxInt32 || uint64(len(body)) < 8+n64 {
			return Instruction{}, ErrTruncated
		}
		n := int(n64)
		data := body[8 : 8+n]
		if code == OpBinunicode8 {
			ins.Str = string(data)
		} else {
			ins.Bytes = append([]byte(nil), data...)
		}
		ins.Size = 9 + n

	case OpGlobal, OpStackGlobal, OpInst:
		// GLOBAL and INST carry two newline-terminated lines (module,
		// name); STACK_GLOBAL takes both from the stack and carries none.
		if code == OpStackGlobal {
			ins.Size = 1
			break
		}
		modLine, n1, err := readLine(body)
		if err != nil {
			return Instruction{}, err
		}
		nameLine, n2, err := readLine(body[n1:])
		if err != nil {
			return Instruction{}, err
		}
		ins.Mod = string(modLine)
		ins.Str = string(nameLine)
		ins.Size = 1 + n1 + n2

	case OpExt1:
		if len(body) < 1 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(body[0])
		ins.Size = 2

	case OpExt2:
		if len(body) < 2 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(binary.LittleEndian.Uint16(body[:2]))
		ins.Size = 3

	case OpExt4:
		if len(body) < 4 {
			return Instruction{}, ErrTruncated
		}
		ins.Int = int64(int32(binary.LittleEndian.Uint32(body[:4])))
		ins.Size = 5

	case OpFrame:
		if len(body) < 8 {
			return Instruction{}, ErrTruncated
		}
		ins.Frame = int64(binary.LittleEndian.Uint64(body[:8]))
		ins.Size = 9

	case OpBinpersid:
		ins.Size = 1

	case OpNextBuffer, OpReadonlyBuffer:
		ins.Size = 1

	default:
		return Instruction{}, fmt.Errorf("disasm: unknown opcode 0x%02x at offset %d", byte(code), off)
	}

	if off+int64(ins.Size) > int64(len(buf)) {
		return Instruction{}, ErrTruncated
	}
	return ins, nil
}

// readLine scans buf for a '\n' terminator, returning the line (without
// the terminator) and the number of bytes consumed including it.
func readLine(buf []byte) ([]byte, int, error) {
	for i, b := range buf {
		if b == '\n' {
			line := buf[:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return line, i + 1, nil
		}
	}
	return nil, 0, ErrTruncated
}

// decodeQuotedString strips the quote delimiters pickletools' STRING
// opcode wraps literals in and decodes the Python2 string-escape body
// inside them (backslash escapes, \xNN, \n/\t/etc.), so callers get the
// real bytes the pickle encoded rather than the still-escaped source text.
func decodeQuotedString(line []byte) (string, error) {
	if len(line) < 2 {
		return "", ErrBadStringDelim
	}
	delim := line[0]
	if delim != '\'' && delim != '"' {
		return "", ErrBadStringDelim
	}
	if line[len(line)-1] != delim {
		return "", ErrBadStringDelim
	}
	return pyquote.DecodeStringEscape(string(line[1 : len(line)-1]))
}

// decodeLongBytes mirrors cpython's decode_long: little-endian two's
// complement, sign-extended from the top bit of the final byte. Big is
// only set when the value overflows int64, so callers can cheaply check
// `ins.Big != nil` instead of comparing against the clamped Int.
func decodeLongBytes(b []byte) (int64, *big.Int, []byte) {
	if len(b) == 0 {
		return 0, nil, nil
	}
	v := new(big.Int)
	neg := b[len(b)-1]&0x80 != 0
	le := make([]byte, len(b))
	for i, c := range b {
		le[len(b)-1-i] = c
	}
	v.SetBytes(le)
	if neg {
		max := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		v.Sub(v, max)
	}
	var big_ *big.Int
	if !v.IsInt64() {
		big_ = v
	}
	return truncateBig(v), big_, append([]byte(nil), b...)
}

// truncateBig returns v's int64 value, clamped to MinInt64/MaxInt64 if it
// doesn't fit. The exact value of an overflowing LONG/LONG1/LONG4 is
// carried separately in Instruction.Big, which pvm stores on the object.
func truncateBig(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	if v.Sign() < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}
