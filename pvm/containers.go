package pvm

import "github.com/dennis-doyensec/r2pickledec/pyobj"

// opAppend implements APPEND: list.append(x) for a single x on top of a
// list one slot below it. If that slot doesn't actually hold a list (the
// pickle is replaying a user __reduce__/__setstate__ call against some
// unresolved object instead) it falls back to recording the call as a
// What operation rather than failing outright.
func (s *State) opAppend() error {
	if len(s.stack) < 2 {
		return ErrStackUnderflow
	}
	target, _ := nthFromTop(s.stack, 1)
	if target.Type != pyobj.TypeList {
		return s.whatAddOp(1, pyobj.OpAppend)
	}
	val, err := s.pop()
	if err != nil {
		return err
	}
	target.Iter = append(target.Iter, val)
	return nil
}

// opAppends implements the mark-form APPENDS (list) and ADDITEMS (set):
// everything since the last MARK gets appended/added to the container one
// slot below that mark, or recorded as a What operation if that slot
// isn't actually a container of type t.
func (s *State) opAppends(op pyobj.Op, t pyobj.Type) error {
	n := len(s.metastack)
	if n == 0 {
		return ErrNoMarker
	}
	prevStack := s.metastack[n-1]
	if len(prevStack) == 0 {
		return ErrStackUnderflow
	}
	target := prevStack[len(prevStack)-1]
	if target.Type != t {
		return s.whatAddOpStack(op)
	}
	return s.iterAppendMark(target)
}

// opSetItem implements SETITEM: dict[key] = value, key/value the top two
// stack slots, dict the one below them.
func (s *State) opSetItem() error {
	if len(s.stack) < 3 {
		return ErrStackUnderflow
	}
	target, _ := nthFromTop(s.stack, 2)
	if target.Type != pyobj.TypeDict {
		return s.whatAddOp(2, pyobj.OpSetItem)
	}
	value, err := s.pop()
	if err != nil {
		return err
	}
	key, err := s.pop()
	if err != nil {
		s.push(value)
		return err
	}
	target.Iter = append(target.Iter, key, value)
	return nil
}

// opSetItems implements the mark-form SETITEMS: key,value pairs since the
// last MARK get folded into the dict one slot below that mark.
func (s *State) opSetItems() error {
	n := len(s.metastack)
	if n == 0 {
		return ErrNoMarker
	}
	prevStack := s.metastack[n-1]
	if len(prevStack) == 0 {
		return ErrStackUnderflow
	}
	target := prevStack[len(prevStack)-1]
	if target.Type == pyobj.TypeDict {
		return s.iterAppendMark(target)
	}
	return s.whatAddOpStack(pyobj.OpSetItems)
}
