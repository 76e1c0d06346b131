package pyobj

// NewWhat wraps obj as the initial object of a fresh PyWhat chain: a single
// OpFakeInit entry whose argument stack holds obj. This is the building
// block behind stack_top_to_what in the interpreter - turning a concrete
// value (usually a Func) into the start of an unresolved-construction
// chain once an opcode needs to record a call against it.
func NewWhat(offset int64, obj *Obj) *Obj {
	wat := New(offset, TypeWhat)
	init := NewOper(offset, OpFakeInit, true)
	init.Stack = append(init.Stack, obj)
	wat.What = []*Oper{init}
	return wat
}

// AddOp appends a new operation to a What's chain, taking ownership of
// args (they are not retained again - callers pass already-owned objects
// popped off a VM stack).
func (o *Obj) AddOp(offset int64, op Op, args []*Obj) {
	if o.Type != TypeWhat {
		panic("pyobj: AddOp on non-What object")
	}
	p := NewOper(offset, op, false)
	p.Stack = args
	o.What = append(o.What, p)
}
