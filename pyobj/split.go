package pyobj

// NewSplit allocates a PySplit marker owning a reference to reduce.
func NewSplit(offset int64, reduce *Oper) *Obj {
	s := New(offset, TypeSplit)
	s.Reduce = reduce.Retain()
	return s
}

// AddSplits walks obj (typically a REDUCE's argument tuple) inserting
// split as an extra trailing element into every mutable container (List,
// Set, FrozenSet, Dict) reachable from it. Tuples are recursed into but
// never modified - they're immutable, so a back-reference inside one can't
// be "appended back" the way a list/set/dict element can.
//
// epoch must be a value the caller bumps once per top-level call and never
// reuses for anything else concurrently - it is compared against each
// Obj's own last-visited epoch to make the walk cycle-safe without a
// separate visited set.
func AddSplits(epoch uint64, obj *Obj, split *Obj) bool {
	if obj.recurse == epoch {
		// already visited this pass - python allows `a.append(a)`
		return true
	}
	obj.recurse = epoch

	switch obj.Type {
	case TypeInt, TypeStr, TypeBool, TypeNone, TypeFloat, TypeFunc, TypeSplit:
		return true
	case TypeList, TypeFrozenSet, TypeSet, TypeDict, TypeTuple:
		for _, c := range obj.Iter {
			if !AddSplits(epoch, c, split) {
				return false
			}
		}
		if obj.Type == TypeTuple {
			return true
		}
		return addSplitToIter(obj, split)
	case TypeWhat:
		for _, p := range obj.What {
			for _, a := range p.Stack {
				if !AddSplits(epoch, a, split) {
					return false
				}
			}
		}
		return true
	default:
		return false
	}
}

// addSplitToIter appends split to list's Iter, coalescing with an
// already-trailing split (no point marking the same cut point twice).
func addSplitToIter(list *Obj, split *Obj) bool {
	if n := len(list.Iter); n > 0 && list.Iter[n-1].Type == TypeSplit {
		list.Iter[n-1].Release()
		list.Iter = list.Iter[:n-1]
	}
	list.Iter = append(list.Iter, split.Retain())
	return true
}
