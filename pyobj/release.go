package pyobj

// Release disposal comes in two modes, mirroring the C original's
// py_obj_free vs py_obj_deep_free:
//
//   - Release (shallow): decrement the refcount; only recurse into the
//     payload once the count reaches zero. This is what the memo table
//     uses to drop its references - a memo-only reference is always backed
//     by another owning reference reachable from a stack, so shallow
//     release here can never leak.
//
//   - ReleaseDeep: null out every child reference first (recursing into
//     them with ReleaseDeep too), then drop the parent's own refcount.
//     Nulling children before the parent's refcount hits zero is what lets
//     a self-referential container (`a = []; a.append(a)`) be torn down
//     without a double free: by the time the outer Release would act on
//     the self-reference, the child slot has already been cleared.
//
// Both assume a single-threaded owner - refcounts are plain ints, not
// atomics (see the package-level concurrency notes in pvm).

// Release drops one reference to o. When the count reaches zero the
// payload is released shallowly (children get Release, not ReleaseDeep).
func (o *Obj) Release() {
	if o == nil {
		return
	}
	o.refcnt--
	if o.refcnt <= 0 {
		o.releaseChildren(false)
	}
}

// ReleaseDeep recursively clears o's children before decrementing o's own
// refcount, so self-referential graphs tear down without a double free.
func (o *Obj) ReleaseDeep() {
	if o == nil {
		return
	}
	o.releaseChildren(true)
	o.refcnt--
}

func (o *Obj) releaseChildren(deep bool) {
	releaseObj := (*Obj).Release
	releaseOper := (*Oper).Release
	if deep {
		releaseObj = (*Obj).ReleaseDeep
		releaseOper = (*Oper).ReleaseDeep
	}

	switch o.Type {
	case TypeNone, TypeBool, TypeInt, TypeFloat, TypeStr:
		// leaves: nothing to recurse into
	case TypeTuple, TypeList, TypeDict, TypeSet, TypeFrozenSet:
		items := o.Iter
		o.Iter = nil
		for _, c := range items {
			releaseObj(c)
		}
	case TypeFunc:
		mod, name := o.Fn.Module, o.Fn.Name
		o.Fn = Func{}
		releaseObj(name)
		releaseObj(mod)
	case TypeWhat:
		chain := o.What
		o.What = nil
		for _, p := range chain {
			releaseOper(p)
		}
	case TypeSplit:
		r := o.Reduce
		o.Reduce = nil
		if r != nil {
			releaseOper(r)
		}
	}
}

// Release drops one reference to p's argument list, releasing each
// argument shallowly once p's own refcount reaches zero.
func (p *Oper) Release() {
	if p == nil {
		return
	}
	p.refcnt--
	if p.refcnt <= 0 {
		args := p.Stack
		p.Stack = nil
		for _, a := range args {
			a.Release()
		}
	}
}

// ReleaseDeep clears p's arguments deeply before dropping p's own refcount.
func (p *Oper) ReleaseDeep() {
	if p == nil {
		return
	}
	args := p.Stack
	p.Stack = nil
	for _, a := range args {
		a.ReleaseDeep()
	}
	p.refcnt--
}
