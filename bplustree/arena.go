package bplus

import "fmt"

// Handle names a node held by the arena. A handle goes stale once its slot
// is released; resolving a stale handle yields nil. The zero Handle never
// resolves.
type Handle struct {
	slot uint32
	gen  uint32
}

func (h Handle) IsNil() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", h.slot, h.gen)
}

type arenaSlot struct {
	node *Node
	gen  uint32 // odd while the slot is live
}

// arena owns every decoded node of a tree. Slots are recycled through a free
// list and their generation is bumped on both allocation and release.
type arena struct {
	slots []arenaSlot
	free  []uint32
	live  int
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) alloc(n *Node) Handle {
	var slot uint32
	if k := len(a.free); k > 0 {
		slot = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		slot = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{})
	}
	s := &a.slots[slot]
	s.gen++
	s.node = n
	a.live++
	n.handle = Handle{slot: slot, gen: s.gen}
	return n.handle
}

func (a *arena) get(h Handle) *Node {
	if h.IsNil() || int(h.slot) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.slot]
	if s.gen != h.gen {
		return nil
	}
	return s.node
}

// release frees the slot of h. It reports false if h was already stale.
func (a *arena) release(h Handle) bool {
	if a.get(h) == nil {
		return false
	}
	s := &a.slots[h.slot]
	s.gen++
	s.node = nil
	a.free = append(a.free, h.slot)
	a.live--
	return true
}

func (a *arena) len() int {
	return a.live
}
