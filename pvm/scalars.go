package pvm

import (
	"math/big"

	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

func (s *State) opNone() error {
	s.push(pyobj.New(s.offset, pyobj.TypeNone))
	return nil
}

func (s *State) pushBool(v bool) error {
	o := pyobj.New(s.offset, pyobj.TypeBool)
	o.Bool = v
	s.push(o)
	return nil
}

// pushInt handles every integer-producing opcode (INT, BININT*, LONG,
// LONG1, LONG4): disasm already normalized the wire encoding away, so
// all pvm does is carry the clamped int64 plus, if the literal didn't
// fit, the exact magnitude in big.
func (s *State) pushInt(v int64, big *big.Int) error {
	o := pyobj.New(s.offset, pyobj.TypeInt)
	o.Int = v
	o.BigInt = big
	s.push(o)
	return nil
}

func (s *State) pushFloat(v float64) error {
	o := pyobj.New(s.offset, pyobj.TypeFloat)
	o.Float = v
	s.push(o)
	return nil
}

// pushStr handles STRING/UNICODE/BINSTRING/BINUNICODE/BINBYTES and their
// short/8-byte-length variants alike - they all land on the same leaf
// type here, leaving the byte-vs-text distinction to whatever rendering
// backend quotes the value.
func (s *State) pushStr(v string) error {
	o := pyobj.New(s.offset, pyobj.TypeStr)
	o.Str = v
	s.push(o)
	return nil
}
