package pvm

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dennis-doyensec/r2pickledec/disasm"
	"github.com/dennis-doyensec/r2pickledec/pyobj"
)

func newState() *State {
	return New(0, -1, true, zerolog.Nop())
}

func TestRunEmptyListMemoize(t *testing.T) {
	s := newState()
	buf := []byte{byte(disasm.OpEmptyList), byte(disasm.OpMemoize), byte(disasm.OpStop)}
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(s.Stack()) != 1 {
		t.Fatalf("stack len = %d, want 1", len(s.Stack()))
	}
	top := s.Stack()[0]
	if top.Type != pyobj.TypeList || top.MemoID != 0 {
		t.Fatalf("top = %+v, want empty list bound to memo 0", top)
	}
	s.Close()
}

func TestRunDictBuiltFromMark(t *testing.T) {
	s := newState()
	buf := []byte{
		byte(disasm.OpEmptyDict), byte(disasm.OpMark),
		byte(disasm.OpShortBinunicode), 1, 'k',
		byte(disasm.OpBinint1), 9,
		byte(disasm.OpSetitems), byte(disasm.OpStop),
	}
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	top := s.Stack()[0]
	if top.Type != pyobj.TypeDict || len(top.Iter) != 2 {
		t.Fatalf("top = %+v, want a 1-pair dict", top)
	}
	if top.Iter[0].Str != "k" || top.Iter[1].Int != 9 {
		t.Fatalf("dict pair = %q:%d, want k:9", top.Iter[0].Str, top.Iter[1].Int)
	}
	s.Close()
}

func TestRunDictOddLengthFails(t *testing.T) {
	s := newState()
	buf := []byte{
		byte(disasm.OpEmptyDict), byte(disasm.OpMark),
		byte(disasm.OpBinint1), 1,
		byte(disasm.OpSetitems), byte(disasm.OpStop),
	}
	if err := s.Run(buf); err == nil {
		t.Fatalf("Run() error = nil, want dict parity error")
	}
	s.Close()
}

func TestPopUnderflowReportsError(t *testing.T) {
	s := newState()
	buf := []byte{byte(disasm.OpPop), byte(disasm.OpStop)}
	if err := s.Run(buf); err == nil {
		t.Fatalf("Run() error = nil, want stack underflow")
	}
	s.Close()
}

func TestUnsupportedOpcodeHalts(t *testing.T) {
	s := newState()
	buf := []byte{byte(disasm.OpGet), '0', '\n', byte(disasm.OpStop)}
	if err := s.Run(buf); err == nil {
		t.Fatalf("Run() error = nil, want ErrUnsupportedOp")
	}
	s.Close()
}

func TestAppendOnNonListRecordsWhat(t *testing.T) {
	s := newState()
	// a Func (GLOBAL) isn't a list, so APPEND must fall back to a What op
	// instead of failing outright.
	buf := append([]byte{byte(disasm.OpGlobal)}, []byte("builtins\nlist\n")...)
	buf = append(buf, byte(disasm.OpBinint1), 1, byte(disasm.OpAppend), byte(disasm.OpStop))

	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	top := s.Stack()[0]
	if top.Type != pyobj.TypeWhat {
		t.Fatalf("top.Type = %v, want TypeWhat", top.Type)
	}
	if len(top.What) != 2 || top.What[1].Op != pyobj.OpAppend {
		t.Fatalf("What chain = %+v, want [FAKE_INIT, APPEND]", top.What)
	}
	s.Close()
}

// TestReduceArgumentCycleInsertsSplit builds: memoize a REDUCE'd call, then build a one-element
// list containing a memo-GET back to that same REDUCE result, then REDUCE
// the callable again with that list as its argument - the classic
// constructor-argument cycle the Split mechanism exists to cut.
func TestReduceArgumentCycleInsertsSplit(t *testing.T) {
	s := newState()
	buf := append([]byte{byte(disasm.OpGlobal)}, []byte("builtins\nlist\n")...)
	buf = append(buf,
		byte(disasm.OpEmptyTuple), byte(disasm.OpReduce), byte(disasm.OpMemoize),
		byte(disasm.OpEmptyList), byte(disasm.OpMark),
		byte(disasm.OpBinget), 0,
		byte(disasm.OpAppends),
		byte(disasm.OpTuple1),
		byte(disasm.OpReduce),
		byte(disasm.OpStop),
	)
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	top := s.Stack()[0]
	if top.Type != pyobj.TypeWhat {
		t.Fatalf("top.Type = %v, want TypeWhat", top.Type)
	}
	last := top.What[len(top.What)-1]
	if last.Op != pyobj.OpReduce {
		t.Fatalf("last op = %v, want REDUCE", last.Op)
	}
	argTuple := last.Stack[0]
	innerList := argTuple.Iter[0]
	if innerList.Type != pyobj.TypeList {
		t.Fatalf("inner arg = %+v, want a list", innerList)
	}
	foundSplit := false
	for _, e := range innerList.Iter {
		if e.Type == pyobj.TypeSplit {
			foundSplit = true
		}
	}
	if !foundSplit {
		t.Fatalf("inner list %+v has no PY_SPLIT marker", innerList.Iter)
	}
	s.Close()
}

func TestTruncatedStreamSetsTruncatedNotError(t *testing.T) {
	s := newState()
	buf := []byte{byte(disasm.OpBinint1)} // missing its 1-byte operand
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v, want nil (truncated, not fatal)", err)
	}
	if !s.Truncated {
		t.Fatalf("Truncated = false, want true")
	}
	s.Close()
}

func TestProtoAwayFromStartWarnsNotFails(t *testing.T) {
	s := newState()
	buf := []byte{byte(disasm.OpNone), byte(disasm.OpPop), byte(disasm.OpProto), 2, byte(disasm.OpNone), byte(disasm.OpStop)}
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Protocol() != 0 {
		t.Fatalf("Protocol() = %d, want 0 (PROTO away from start is ignored, not recorded)", s.Protocol())
	}
	s.Close()
}
