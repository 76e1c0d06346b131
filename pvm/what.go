package pvm

import "github.com/dennis-doyensec/r2pickledec/pyobj"

// stackTopToWhat turns the top of stack into a PyWhat chain if it isn't
// one already, replacing it in place and returning the (possibly new)
// What object. It never pops - callers that need the original value still
// reachable do so through the What's FAKE_INIT argument.
func stackTopToWhat(offset int64, stack []*pyobj.Obj) (*pyobj.Obj, error) {
	if len(stack) == 0 {
		return nil, ErrStackUnderflow
	}
	last := stack[len(stack)-1]
	if last.Type == pyobj.TypeWhat {
		return last, nil
	}
	wat := pyobj.NewWhat(offset, last)
	stack[len(stack)-1] = wat
	return wat, nil
}

// whatAddOp implements REDUCE/NEWOBJ/BUILD and the What-fallback of
// APPEND/SETITEM: pop argc arguments off the current stack, turn whatever
// is left on top into a What chain, and record this call against it. A
// REDUCE additionally has to check whether its own argument tuple embeds
// a back-reference to an object still under construction (see
// splitReduce) - pickle produces such cycles by design, most commonly
// for a class's __reduce__ returning state that includes the object
// itself.
func (s *State) whatAddOp(argc int, op pyobj.Op) error {
	args, err := s.popN(argc)
	if err != nil {
		return err
	}
	obj, err := stackTopToWhat(s.offset, s.stack)
	if err != nil {
		s.stack = append(s.stack, args...)
		return err
	}
	obj.AddOp(s.offset, op, args)
	if op == pyobj.OpReduce {
		return s.splitReduce(obj.What[len(obj.What)-1])
	}
	return nil
}

// whatAddOpStack implements the mark-form fallback used by APPENDS,
// ADDITEMS and SETITEMS when their target isn't actually the expected
// container type: the entire stack since the last MARK becomes the
// operation's argument list, the saved outer stack is restored, and the
// call is recorded against whatever sits on top of it.
func (s *State) whatAddOpStack(op pyobj.Op) error {
	n := len(s.metastack)
	if n == 0 {
		return ErrNoMarker
	}
	oldstack := s.metastack[n-1]
	obj, err := stackTopToWhat(s.offset, oldstack)
	if err != nil {
		return err
	}
	args := s.stack
	obj.AddOp(s.offset, op, args)
	s.metastack = s.metastack[:n-1]
	s.stack = oldstack
	return nil
}

// splitReduce marks every mutable container reachable from a REDUCE's
// last argument (its argument tuple) with a cut point at the REDUCE
// itself, so the renderer can break the cycle by emitting a forward
// reference there instead of recursing forever. See pyobj.NewSplit and
// pyobj.AddSplits for the mechanics; this just owns the VM's epoch
// counter so every call gets a fresh traversal pass.
func (s *State) splitReduce(op *pyobj.Oper) error {
	if len(op.Stack) == 0 {
		return ErrStackUnderflow
	}
	target := op.Stack[len(op.Stack)-1]
	split := pyobj.NewSplit(s.offset, op)
	s.recurse++
	ok := pyobj.AddSplits(s.recurse, target, split)
	split.Release()
	if !ok {
		return ErrWrongType
	}
	return nil
}
