package framesync

import "github.com/teslashibe/go-naneye/pkg/naneye"

// slot is a buffered frame tagged with its submission sequence number.
// The sequence number gives frames an identity for best-effort removal
// after a pair-matching scan.
type slot struct {
	frame naneye.Frame
	seq   uint64
}

// ring is a fixed-capacity circular buffer of frames for one channel.
// push is O(1) and allocation-free on the hot ingestion path; at capacity
// the oldest element is evicted so the newest `capacity` frames are always
// retained, in insertion order.
//
// Not safe for concurrent use on its own: the owning Queue's mutex guards
// every access.
type ring struct {
	slots []slot
	head  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{slots: make([]slot, capacity)}
}

func (r *ring) len() int { return r.count }

// push appends s at the tail, evicting the oldest element if the ring is
// full. Reports whether an eviction happened.
func (r *ring) push(s slot) (evicted bool) {
	if r.count == len(r.slots) {
		// Tail position coincides with head when full: overwriting the
		// head and advancing it drops the oldest and appends s in one step.
		r.slots[r.head] = s
		r.head = (r.head + 1) % len(r.slots)
		return true
	}
	r.slots[(r.head+r.count)%len(r.slots)] = s
	r.count++
	return false
}

// popFront removes and returns the oldest element.
func (r *ring) popFront() (slot, bool) {
	if r.count == 0 {
		return slot{}, false
	}
	s := r.slots[r.head]
	r.slots[r.head] = slot{} // drop the payload reference
	r.head = (r.head + 1) % len(r.slots)
	r.count--
	return s, true
}

// remove deletes the element with the given sequence number, preserving the
// order of the survivors. Removing an element that was already evicted is a
// no-op, not an error: eviction races with pair selection are expected.
func (r *ring) remove(seq uint64) bool {
	for i := 0; i < r.count; i++ {
		if r.slots[(r.head+i)%len(r.slots)].seq != seq {
			continue
		}
		for j := i; j < r.count-1; j++ {
			r.slots[(r.head+j)%len(r.slots)] = r.slots[(r.head+j+1)%len(r.slots)]
		}
		r.slots[(r.head+r.count-1)%len(r.slots)] = slot{}
		r.count--
		return true
	}
	return false
}

// snapshot returns the buffered elements oldest-first.
func (r *ring) snapshot() []slot {
	out := make([]slot, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return out
}
