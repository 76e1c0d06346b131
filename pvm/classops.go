package pvm

import "github.com/dennis-doyensec/r2pickledec/pyobj"

// opGlobal implements GLOBAL: push a Func naming mod.name, both already
// known at decode time from the opcode's inline text argument.
func (s *State) opGlobal(mod, name string) error {
	modObj := pyobj.New(s.offset, pyobj.TypeStr)
	modObj.Str = mod
	nameObj := pyobj.New(s.offset, pyobj.TypeStr)
	nameObj.Str = name
	s.push(pyobj.NewFunc(s.offset, modObj, nameObj))
	return nil
}

// opStackGlobal implements STACK_GLOBAL: same as GLOBAL, but module and
// name were pushed by prior opcodes instead of encoded inline.
func (s *State) opStackGlobal() error {
	if len(s.stack) < 2 {
		return ErrStackUnderflow
	}
	name, err := s.pop()
	if err != nil {
		return err
	}
	mod, err := s.pop()
	if err != nil {
		s.push(name)
		return err
	}
	s.push(pyobj.NewFunc(s.offset, mod, name))
	return nil
}

// instantiate is the shared tail of INST and OBJ: both amount to pushing
// a class and an argument list back onto the stack in the same shape
// GLOBAL+REDUCE would have left them, then recording the call as a What
// operation.
func (s *State) instantiate(op pyobj.Op, cls, args *pyobj.Obj) error {
	s.push(cls)
	s.push(args)
	return s.whatAddOp(1, op)
}

// opInst implements INST: like GLOBAL followed by building a LIST from
// the mark and then REDUCE, but the class name is the opcode's inline
// argument rather than something already on the stack.
func (s *State) opInst(mod, name string) error {
	modObj := pyobj.New(s.offset, pyobj.TypeStr)
	modObj.Str = mod
	nameObj := pyobj.New(s.offset, pyobj.TypeStr)
	nameObj.Str = name
	cls := pyobj.NewFunc(s.offset, modObj, nameObj)
	args, err := s.iterToMark(pyobj.TypeList)
	if err != nil {
		cls.Release()
		return err
	}
	return s.instantiate(pyobj.OpInst, cls, args)
}

// opObj implements OBJ: like LIST followed by REDUCE, but the class comes
// from the head of the marked region (pushed right after MARK) instead
// of the stack top.
func (s *State) opObj() error {
	if len(s.stack) == 0 {
		return ErrStackUnderflow
	}
	cls := s.stack[0]
	s.stack = append([]*pyobj.Obj(nil), s.stack[1:]...)
	args, err := s.iterToMark(pyobj.TypeList)
	if err != nil {
		s.stack = append([]*pyobj.Obj{cls}, s.stack...)
		return err
	}
	return s.instantiate(pyobj.OpObj, cls, args)
}
