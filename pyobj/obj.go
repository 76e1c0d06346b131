package pyobj

import "math/big"

// Func is the payload of a TypeFunc object: a symbolic reference to a
// callable, named by module and qualified name (as produced by GLOBAL /
// STACK_GLOBAL). Both fields are always *Obj of TypeStr.
type Func struct {
	Module *Obj
	Name   *Obj
}

// Obj is a node in the symbolic object graph. Every appearance on a VM
// stack, inside a container's Iter, as a memo value, or inside an Oper's
// argument stack is one owning reference, tracked by refcnt.
//
// Obj is not safe for concurrent use - the VM that builds the graph is
// single-threaded by design (see the package-level concurrency notes in
// the pvm package).
type Obj struct {
	Type    Type
	Offset  int64
	MemoID  int64
	Varname string

	// recurse is the VM's global traversal epoch the last time this
	// object was visited; used to break cycles during split propagation
	// and deep release without an explicit visited-set allocation.
	recurse uint64
	refcnt  int

	// scalar payloads
	Bool    bool
	Int     int64
	BigInt  *big.Int // non-nil overrides Int for values outside int64 range
	Float   float64
	Str     string

	// container payload: Tuple, List, Dict (flat key,value,key,value...),
	// Set, FrozenSet
	Iter []*Obj

	// TypeFunc payload
	Fn Func

	// TypeWhat payload: FAKE_INIT followed by zero or more operations
	What []*Oper

	// TypeSplit payload: the REDUCE operation this split marks a
	// back-reference to
	Reduce *Oper
}

// New allocates a leaf/scalar Obj of the given type, stamped with the
// offset it was produced at.
func New(offset int64, t Type) *Obj {
	return &Obj{
		Type:   t,
		Offset: offset,
		MemoID: UnsetMemoID,
		refcnt: 1,
	}
}

// NewIter allocates a container Obj (Tuple/List/Dict/Set/FrozenSet) with an
// initialized, empty Iter slice. Panics if t does not carry an Iter payload
// - this mirrors pytype_has_depth's r_return_val_if_fail guard in the
// original C: callers always know statically which type they're building.
func NewIter(offset int64, t Type) *Obj {
	if !t.HasIter() {
		panic("pyobj: NewIter on non-iterable type " + t.String())
	}
	o := New(offset, t)
	o.Iter = make([]*Obj, 0)
	return o
}

// NewFunc allocates a TypeFunc object from already-built module/name
// strings.
func NewFunc(offset int64, module, name *Obj) *Obj {
	o := New(offset, TypeFunc)
	o.Fn = Func{Module: module, Name: name}
	return o
}

// Retain increments the reference count and returns the object, for
// chaining at push sites (mirrors obj->refcnt++ at every duplicate
// reference in the C original).
func (o *Obj) Retain() *Obj {
	if o != nil {
		o.refcnt++
	}
	return o
}

// RefCount reports the current reference count. Used by the renderer to
// decide whether an object must be hoisted into a named variable instead
// of inlined at every use site.
func (o *Obj) RefCount() int {
	if o == nil {
		return 0
	}
	return o.refcnt
}
