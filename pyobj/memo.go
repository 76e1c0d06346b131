package pyobj

import (
	"hash/maphash"

	"github.com/aristanetworks/gomap"
	"golang.org/x/exp/slices"
)

func memoEqual(a, b int64) bool { return a == b }

func memoHash(seed maphash.Seed, k int64) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(k >> (8 * i))
	}
	h.Write(buf[:])
	return h.Sum64()
}

// Memo is the pickle memo table: an integer-keyed map of shared objects,
// built on gomap's generic Map rather than a plain Go map so the hash and
// equality functions are explicit instead of relying on a comparable key.
//
// A PyObj reachable from the memo is always also reachable from one of the
// VM's stacks - Memo only ever holds a second, shared reference, so Close
// releases it shallowly.
type Memo struct {
	m *gomap.Map[int64, *Obj]
}

// NewMemo returns an empty memo table.
func NewMemo() *Memo {
	return &Memo{m: gomap.NewHint[int64, *Obj](0, memoEqual, memoHash)}
}

// Put binds obj into slot, retaining a reference. If slot was already
// bound, the previous occupant is released.
func (mo *Memo) Put(slot int64, obj *Obj) {
	if old, ok := mo.m.Get(slot); ok {
		old.Release()
	}
	mo.m.Set(slot, obj.Retain())
}

// Get returns the object bound to slot, or (nil, false).
func (mo *Memo) Get(slot int64) (*Obj, bool) {
	return mo.m.Get(slot)
}

// Len returns the number of bound memo slots - MEMOIZE uses this as "the
// smallest unused slot".
func (mo *Memo) Len() int {
	return mo.m.Len()
}

// Slots returns every bound memo slot in ascending order, for verbose
// diagnostics (gomap.Map iteration order is unspecified, so callers that
// want to print "memo: 0, 1, 2, ..." need this rather than ranging the
// map directly).
func (mo *Memo) Slots() []int64 {
	slots := make([]int64, 0, mo.m.Len())
	for it := mo.m.Iter(); it.Next(); {
		slots = append(slots, it.Key())
	}
	slices.Sort(slots)
	return slots
}

// Close releases every memo-held reference shallowly, then drops the
// table. It must run before the VM state's stacks, since memo references
// are never owning on their own.
func (mo *Memo) Close() {
	if mo == nil || mo.m == nil {
		return
	}
	for it := mo.m.Iter(); it.Next(); {
		it.Elem().Release()
	}
	mo.m = nil
}
