// Package pvm implements the pickle virtual machine: a single-threaded
// interpreter that walks a disasm.Instruction stream and builds the
// symbolic object graph defined by package pyobj, instead of evaluating
// the pickle the way cpython's unpickler would.
//
// State is not safe for concurrent use. A pickle is interpreted front to
// back by exactly one goroutine; nothing here uses a mutex.
package pvm

import (
	"github.com/rs/zerolog"

	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

// State is the VM's working memory: the operand stack, the stack of
// saved stacks MARK pushes onto, the pop-discard list POP/POP_MARK move
// dead values into, and the memo table.
type State struct {
	stack     []*pyobj.Obj
	metastack [][]*pyobj.Obj
	popstack  []*pyobj.Obj
	memo      *pyobj.Memo

	start       int64
	offset      int64
	end         int64
	ver         int
	recurse     uint64
	breakOnStop bool

	// Truncated is set when Run stops because the byte window ran out
	// rather than because it hit STOP or a real opcode failure.
	Truncated bool

	Log zerolog.Logger
}

// New returns a fresh VM state positioned to start decoding at start.
// end, if >= 0, is the offset Run must not read at or past; a negative
// end means "no limit, run until STOP or the buffer is exhausted".
func New(start, end int64, breakOnStop bool, log zerolog.Logger) *State {
	return &State{
		stack:       make([]*pyobj.Obj, 0, 16),
		memo:        pyobj.NewMemo(),
		start:       start,
		offset:      start,
		end:         end,
		breakOnStop: breakOnStop,
		Log:         log,
	}
}

// Offset returns the VM's current read position.
func (s *State) Offset() int64 { return s.offset }

// Protocol returns the pickle protocol version the PROTO opcode declared,
// or 0 if none was seen (protocol 0 pickles carry no PROTO opcode at all).
func (s *State) Protocol() int { return s.ver }

// Stack exposes what remains on the operand stack once Run returns. A
// well-formed pickle leaves exactly one object here: the decoded value.
func (s *State) Stack() []*pyobj.Obj { return s.stack }

// Close releases every reference the VM itself still owns: the memo
// table (shallow - its objects are also reachable from a stack) and then
// the three stacks deeply, so self-referential graphs left dangling by a
// truncated or erroring pickle don't leak or double-free.
func (s *State) Close() {
	s.memo.Close()
	for _, o := range s.stack {
		o.ReleaseDeep()
	}
	s.stack = nil
	for _, frame := range s.metastack {
		for _, o := range frame {
			o.ReleaseDeep()
		}
	}
	s.metastack = nil
	for _, o := range s.popstack {
		o.ReleaseDeep()
	}
	s.popstack = nil
}
