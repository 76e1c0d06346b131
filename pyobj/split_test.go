package pyobj

import "testing"

func TestAddSplitsInsertsIntoNestedList(t *testing.T) {
	inner := NewIter(0, TypeList)
	inner.Iter = append(inner.Iter, New(0, TypeInt))

	tup := NewIter(0, TypeTuple)
	tup.Iter = append(tup.Iter, inner)

	reduceOp := NewOper(0, OpReduce, false)
	split := NewSplit(0, reduceOp)

	if !AddSplits(1, tup, split) {
		t.Fatalf("AddSplits failed")
	}

	// tuple itself is never mutated with a trailing split
	if last := tup.Iter[len(tup.Iter)-1]; last.Type == TypeSplit {
		t.Fatalf("tuple was mutated with a split element")
	}

	if len(inner.Iter) != 2 || inner.Iter[1].Type != TypeSplit {
		t.Fatalf("inner list missing trailing split, got %d elems", len(inner.Iter))
	}
}

func TestAddSplitsCoalescesDuplicateTrailingSplit(t *testing.T) {
	list := NewIter(0, TypeList)
	reduceOp := NewOper(0, OpReduce, false)
	split := NewSplit(0, reduceOp)

	AddSplits(1, list, split)
	AddSplits(1, list, split) // same epoch: second call is a no-op due to recurse guard

	if got := len(list.Iter); got != 1 {
		t.Fatalf("len(list.Iter) = %d, want 1 (no duplicate splits within one epoch)", got)
	}

	// a fresh epoch re-walks and must still coalesce rather than double up
	AddSplits(2, list, split)
	if got := len(list.Iter); got != 1 {
		t.Fatalf("len(list.Iter) after second epoch = %d, want 1 (coalesced)", got)
	}
}

func TestAddSplitsIsCycleSafe(t *testing.T) {
	list := NewIter(0, TypeList)
	list.Iter = append(list.Iter, list) // self-reference

	reduceOp := NewOper(0, OpReduce, false)
	split := NewSplit(0, reduceOp)

	// must terminate rather than loop forever on the self-reference; a
	// broken recurse-epoch guard would hang this test.
	if !AddSplits(1, list, split) {
		t.Fatalf("AddSplits returned false on self-referential list")
	}
}
