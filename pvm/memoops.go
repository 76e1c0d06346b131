package pvm

// memoPut binds the current top of stack into memo slot loc, retaining a
// second reference (the memo table never owns the only reference to
// anything - see pyobj.Memo) and recording loc as the object's MemoID.
func (s *State) memoPut(loc int64) error {
	if loc < 0 {
		return ErrBadMemoSlot
	}
	top, err := s.top()
	if err != nil {
		return err
	}
	top.MemoID = loc
	s.memo.Put(loc, top)
	return nil
}

// opMemorize implements MEMOIZE: bind the top of stack into the next
// unused memo slot, where "next unused" is simply the table's current
// size - protocol 4 guarantees MEMOIZE is issued in increasing slot order.
func (s *State) opMemorize() error {
	return s.memoPut(int64(s.memo.Len()))
}

// memoGet pushes a new reference to whatever is bound at memo slot loc.
func (s *State) memoGet(loc int64) error {
	if loc < 0 {
		return ErrBadMemoSlot
	}
	obj, ok := s.memo.Get(loc)
	if !ok {
		return ErrMemoMiss
	}
	s.push(obj.Retain())
	return nil
}
