// Package pickletest builds pickle byte streams from ordinary Go values
// (no PROTO header; opcodes drawn from protocols 0 through 4), for tests that want a realistic opcode sequence instead of a
// hand-assembled byte literal.
package pickletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/dennis-doyensec/r2pickledec/disasm"
)

// Tuple marks a Go slice as a Python tuple rather than a list when passed
// to Encode.
type Tuple []any

// Encode renders v as a pickle byte stream ending in STOP. It supports the
// scalar kinds, []byte, string, Tuple, []any (list), and map[any]any
// (dict) - enough surface to build fixtures for the object model's
// container and scalar paths without reaching for a real Python pickler.
func Encode(v any) []byte {
	var buf bytes.Buffer
	encode(&buf, reflect.ValueOf(v))
	buf.WriteByte(byte(disasm.OpStop))
	return buf.Bytes()
}

func encode(buf *bytes.Buffer, rv reflect.Value) {
	if !rv.IsValid() {
		buf.WriteByte(byte(disasm.OpNone))
		return
	}

	switch rk := rv.Kind(); rk {
	case reflect.Bool:
		if rv.Bool() {
			buf.WriteByte(byte(disasm.OpNewtrue))
		} else {
			buf.WriteByte(byte(disasm.OpNewfalse))
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		encodeInt(buf, rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		encodeInt(buf, int64(rv.Uint()))

	case reflect.Float32, reflect.Float64:
		encodeFloat(buf, rv.Float())

	case reflect.String:
		encodeBytes(buf, []byte(rv.String()))

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			encodeBytes(buf, rv.Bytes())
			return
		}
		if rv.Type() == reflect.TypeOf(Tuple(nil)) {
			encodeTuple(buf, rv)
			return
		}
		encodeList(buf, rv)

	case reflect.Map:
		encodeDict(buf, rv)

	case reflect.Interface:
		encode(buf, rv.Elem())

	default:
		panic(fmt.Sprintf("pickletest: no support for kind %s", rk))
	}
}

func encodeInt(buf *bytes.Buffer, i int64) {
	switch {
	case i >= 0 && i <= math.MaxUint8:
		buf.WriteByte(byte(disasm.OpBinint1))
		buf.WriteByte(byte(i))
	case i >= 0 && i <= math.MaxUint16:
		buf.WriteByte(byte(disasm.OpBinint2))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(i))
		buf.Write(b[:])
	case i >= math.MinInt32 && i <= math.MaxInt32:
		buf.WriteByte(byte(disasm.OpBinint))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(i))
		buf.Write(b[:])
	default:
		buf.WriteByte(byte(disasm.OpLong))
		fmt.Fprintf(buf, "%dL\n", i)
	}
}

func encodeFloat(buf *bytes.Buffer, f float64) {
	buf.WriteByte(byte(disasm.OpBinfloat))
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	buf.Write(b[:])
}

func encodeBytes(buf *bytes.Buffer, b []byte) {
	if len(b) < 256 {
		buf.WriteByte(byte(disasm.OpShortBinunicode))
		buf.WriteByte(byte(len(b)))
		buf.Write(b)
		return
	}
	buf.WriteByte(byte(disasm.OpBinunicode))
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

func encodeTuple(buf *bytes.Buffer, rv reflect.Value) {
	n := rv.Len()
	switch n {
	case 0:
		buf.WriteByte(byte(disasm.OpEmptyTuple))
		return
	case 1, 2, 3:
		for i := 0; i < n; i++ {
			encode(buf, rv.Index(i))
		}
		buf.WriteByte(byte([]disasm.Code{disasm.OpTuple1, disasm.OpTuple2, disasm.OpTuple3}[n-1]))
		return
	}
	buf.WriteByte(byte(disasm.OpMark))
	for i := 0; i < n; i++ {
		encode(buf, rv.Index(i))
	}
	buf.WriteByte(byte(disasm.OpTuple))
}

func encodeList(buf *bytes.Buffer, rv reflect.Value) {
	buf.WriteByte(byte(disasm.OpEmptyList))
	n := rv.Len()
	if n == 0 {
		return
	}
	buf.WriteByte(byte(disasm.OpMark))
	for i := 0; i < n; i++ {
		encode(buf, rv.Index(i))
	}
	buf.WriteByte(byte(disasm.OpAppends))
}

func encodeDict(buf *bytes.Buffer, rv reflect.Value) {
	buf.WriteByte(byte(disasm.OpEmptyDict))
	keys := rv.MapKeys()
	if len(keys) == 0 {
		return
	}
	buf.WriteByte(byte(disasm.OpMark))
	for _, k := range keys {
		encode(buf, k)
		encode(buf, rv.MapIndex(k))
	}
	buf.WriteByte(byte(disasm.OpSetitems))
}
