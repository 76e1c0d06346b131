package pyobj

// Oper is one entry in a PyWhat's operator chain: "the operation that
// produced it, plus the arguments it consumed". The chain's first entry is
// always OpFakeInit, wrapping the single object the chain started from.
type Oper struct {
	Op     Op
	Offset int64
	Stack  []*Obj

	refcnt int
}

// NewOper allocates an Oper. When initList is true the argument Stack is
// pre-allocated empty (used by FAKE_INIT, which always has exactly one
// argument pushed immediately after construction).
func NewOper(offset int64, op Op, initList bool) *Oper {
	p := &Oper{Op: op, Offset: offset, refcnt: 1}
	if initList {
		p.Stack = make([]*Obj, 0, 1)
	}
	return p
}

// Retain increments the Oper's reference count, mirroring Obj.Retain. Opers
// become shared when a Split embeds a reference to the REDUCE that
// produced the cycle (see split.go).
func (p *Oper) Retain() *Oper {
	if p != nil {
		p.refcnt++
	}
	return p
}
