package pvm

import (
	"fmt"

	"github.com/dennis-doyensec/r2pickledec/disasm"
)

// Step decodes and executes exactly one instruction from buf at the VM's
// current offset, advancing the offset by the instruction's encoded size.
// It returns the decoded instruction (mainly useful for -v tracing) and
// an error that is either a disassembly failure (from disasm.Next,
// unwrapped) or an *OpError wrapping a handler failure.
func (s *State) Step(buf []byte) (disasm.Instruction, error) {
	ins, err := disasm.Next(buf, s.offset)
	if err != nil {
		return ins, err
	}

	s.Log.Debug().Int64("offset", s.offset).Stringer("op", ins.Code).Msg("exec")
	if err := s.exec(ins); err != nil {
		return ins, &OpError{Offset: s.offset, Code: ins.Code, Err: err}
	}
	s.offset += int64(ins.Size)
	return ins, nil
}

// Run interprets buf (relative to the VM's start offset) until it hits
// STOP (only when breakOnStop is set; otherwise STOP is a no-op and
// decoding continues), runs off the end of buf, or a handler fails. A
// buffer that ends mid-instruction is not an error - Run sets Truncated
// and returns nil so callers can still render whatever the partial stack
// produced, rather than discarding a truncated capture outright. Running
// off the end of buf after at least one STOP does not set Truncated.
//
// On every path that finishes without a handler error, the memo table is
// released: by then every object it still named is also reachable from
// the stack (the invariant pyobj.Memo documents), so dropping it here
// keeps later refcounts - and the renderer's hoisting decisions built on
// them - reflecting only the graph's real shape.
func (s *State) Run(buf []byte) error {
	stopped := false
	for {
		if s.end >= 0 && s.offset >= s.end {
			s.finish()
			return nil
		}
		if s.offset < 0 || s.offset >= int64(len(buf)) {
			s.Truncated = len(buf) > 0 && !stopped
			s.finish()
			return nil
		}
		if s.breakOnStop && disasm.Code(buf[s.offset]) == disasm.OpStop {
			s.Log.Debug().Int64("offset", s.offset).Msg("stop requested before OpStop")
			s.finish()
			return nil
		}

		ins, err := s.Step(buf)
		if err != nil {
			if err == disasm.ErrTruncated {
				s.Truncated = true
				s.finish()
				return nil
			}
			return fmt.Errorf("pvm: run failed: %w", err)
		}
		if ins.Code == disasm.OpStop {
			if s.breakOnStop {
				s.finish()
				return nil
			}
			stopped = true
		}
	}
}

// finish closes the memo table, logging its final bound slots in
// ascending order first when debug tracing is on (gomap's own iteration
// order is unspecified, so pyobj.Memo.Slots sorts for us).
func (s *State) finish() {
	if e := s.Log.Debug(); e.Enabled() {
		e.Ints64("memo_slots", s.memo.Slots()).Msg("memo closed")
	}
	s.memo.Close()
}
