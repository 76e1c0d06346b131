package pvm

import "github.com/dennis-doyensec/r2pickledec/pyobj"

func (s *State) push(o *pyobj.Obj) {
	s.stack = append(s.stack, o)
}

func (s *State) pop() (*pyobj.Obj, error) {
	n := len(s.stack) - 1
	if n < 0 {
		return nil, ErrStackUnderflow
	}
	o := s.stack[n]
	s.stack = s.stack[:n]
	return o, nil
}

func (s *State) top() (*pyobj.Obj, error) {
	if len(s.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	return s.stack[len(s.stack)-1], nil
}

// nthFromTop returns the element skip slots below the top of stack
// (skip=0 is the top itself), without popping anything.
func nthFromTop(stack []*pyobj.Obj, skip int) (*pyobj.Obj, bool) {
	idx := len(stack) - 1 - skip
	if idx < 0 {
		return nil, false
	}
	return stack[idx], true
}

// popN pops the top n elements off, returned oldest-first (stack order),
// or fails the whole call leaving the stack untouched.
func (s *State) popN(n int) ([]*pyobj.Obj, error) {
	if len(s.stack) < n {
		return nil, ErrStackUnderflow
	}
	at := len(s.stack) - n
	args := append([]*pyobj.Obj(nil), s.stack[at:]...)
	s.stack = s.stack[:at]
	return args, nil
}

// opMark pushes a new MARK frame: the current stack is saved onto the
// metastack and a fresh, empty stack takes its place. Everything pushed
// until the matching POP_MARK/appends-to-mark opcode lands in the new one.
func (s *State) opMark() error {
	s.metastack = append(s.metastack, s.stack)
	s.stack = make([]*pyobj.Obj, 0, 4)
	return nil
}

// opPop discards the top of stack into the pop list rather than freeing it
// immediately - matches run_pvm keeping popped values alive until the VM
// itself tears down, so a pickle that pops a value it never otherwise
// references still decodes without use-after-free bookkeeping elsewhere.
func (s *State) opPop() error {
	o, err := s.pop()
	if err != nil {
		return err
	}
	s.popstack = append(s.popstack, o)
	return nil
}

func (s *State) opPopMark() error {
	n := len(s.metastack)
	if n == 0 {
		return ErrNoMarker
	}
	s.popstack = append(s.popstack, s.stack...)
	s.stack = s.metastack[n-1]
	s.metastack = s.metastack[:n-1]
	return nil
}

func (s *State) opDup() error {
	top, err := s.top()
	if err != nil {
		return err
	}
	s.push(top.Retain())
	return nil
}

// iterAppendMark drains everything since the last MARK into obj's Iter
// and restores the stack to what it was before the MARK. Used by every
// container-building opcode (LIST, TUPLE, DICT, SET, FROZENSET, and the
// mark-form APPENDS/SETITEMS/ADDITEMS).
func (s *State) iterAppendMark(obj *pyobj.Obj) error {
	n := len(s.metastack)
	if n == 0 {
		return ErrNoMarker
	}
	if obj.Type == pyobj.TypeDict && len(s.stack)%2 != 0 {
		return ErrDictParity
	}
	obj.Iter = append(obj.Iter, s.stack...)
	s.stack = s.metastack[n-1]
	s.metastack = s.metastack[:n-1]
	return nil
}

func (s *State) iterToMark(t pyobj.Type) (*pyobj.Obj, error) {
	obj := pyobj.NewIter(s.offset, t)
	if err := s.iterAppendMark(obj); err != nil {
		obj.Release()
		return nil, err
	}
	return obj, nil
}

// opTypeCreateAppend implements the TUPLE/LIST/DICT/FROZENSET opcodes:
// drain to the last mark into a new container of type t and push it.
func (s *State) opTypeCreateAppend(t pyobj.Type) error {
	obj, err := s.iterToMark(t)
	if err != nil {
		return err
	}
	s.push(obj)
	return nil
}

// opIterN implements EMPTY_* and TUPLE1/2/3: pop exactly n values off the
// stack (oldest first) into a new container of type t, and push it.
func (s *State) opIterN(n int, t pyobj.Type) error {
	args, err := s.popN(n)
	if err != nil {
		return err
	}
	obj := pyobj.NewIter(s.offset, t)
	obj.Iter = append(obj.Iter, args...)
	s.push(obj)
	return nil
}
