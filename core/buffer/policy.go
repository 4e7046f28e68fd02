package buffer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPoolExhausted means no victim frame could be selected. Against a pool
// with occupied frames this indicates a policy bug, so callers treat it as
// fatal rather than retrying.
var ErrPoolExhausted = errors.New("buffer pool exhausted, no evictable frame")

// EvictionPolicy selects victim frames for the pool. Policies own whatever
// bookkeeping their strategy needs (FIFO's queue, CLOCK's hand); recency
// counters and reference bits live on the frames themselves.
//
// Victim must not modify the frames beyond policy bookkeeping such as
// clearing reference bits; the pool performs write-back and clearing.
// Evicted is invoked while the frame still carries its metadata.
type EvictionPolicy interface {
	Name() string
	// Installed notifies the policy that a page was installed into the frame.
	Installed(id FrameID)
	// Evicted notifies the policy that the frame is being cleared.
	Evicted(id FrameID)
	// Victim selects the next frame to evict.
	Victim(frames []*Frame) (FrameID, error)
}

// NewPolicy builds an eviction policy by name: "FIFO", "LRU" or "CLOCK".
func NewPolicy(name string) (EvictionPolicy, error) {
	switch strings.ToUpper(name) {
	case "FIFO":
		return NewFIFOPolicy(), nil
	case "LRU":
		return NewLRUPolicy(), nil
	case "CLOCK":
		return NewClockPolicy(), nil
	}
	return nil, fmt.Errorf("unknown eviction policy %q", name)
}

// FIFOPolicy evicts the page that was installed earliest. It keeps an
// explicit insertion-order queue of frame ids: scanning frames by slot index
// is not FIFO once any eviction has happened, because slot order drifts from
// insertion order.
type FIFOPolicy struct {
	queue []FrameID
}

func NewFIFOPolicy() *FIFOPolicy { return &FIFOPolicy{} }

func (p *FIFOPolicy) Name() string { return "FIFO" }

func (p *FIFOPolicy) Installed(id FrameID) {
	p.queue = append(p.queue, id)
}

func (p *FIFOPolicy) Evicted(id FrameID) {
	for i, q := range p.queue {
		if q == id {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

func (p *FIFOPolicy) Victim(frames []*Frame) (FrameID, error) {
	for _, id := range p.queue {
		if !frames[id].Free() {
			return id, nil
		}
	}
	return -1, ErrPoolExhausted
}

// LRUPolicy evicts the occupied frame with the smallest last-access counter,
// breaking ties toward the lowest frame index for determinism. The O(n) scan
// is fine at this pool scale.
type LRUPolicy struct{}

func NewLRUPolicy() *LRUPolicy { return &LRUPolicy{} }

func (p *LRUPolicy) Name() string { return "LRU" }

func (p *LRUPolicy) Installed(FrameID) {}

func (p *LRUPolicy) Evicted(FrameID) {}

func (p *LRUPolicy) Victim(frames []*Frame) (FrameID, error) {
	victim := FrameID(-1)
	var oldest uint64
	for _, f := range frames {
		if f.Free() {
			continue
		}
		if victim < 0 || f.lastAccessed < oldest {
			victim = f.id
			oldest = f.lastAccessed
		}
	}
	if victim < 0 {
		return -1, ErrPoolExhausted
	}
	return victim, nil
}

// ClockPolicy implements second-chance eviction. A circular hand inspects one
// frame per step and persists across calls. An occupied frame with its
// reference bit set has the bit cleared and is skipped; one with the bit
// clear is the victim; a free frame is immediately usable. Two revolutions
// bound the search: if every occupied frame starts with its bit set, the
// first pass clears them all and the second evicts the frame the hand
// started on.
type ClockPolicy struct {
	hand int
}

func NewClockPolicy() *ClockPolicy { return &ClockPolicy{} }

func (p *ClockPolicy) Name() string { return "CLOCK" }

func (p *ClockPolicy) Installed(FrameID) {}

func (p *ClockPolicy) Evicted(FrameID) {}

func (p *ClockPolicy) Victim(frames []*Frame) (FrameID, error) {
	n := len(frames)
	if n == 0 {
		return -1, ErrPoolExhausted
	}
	for i := 0; i < 2*n; i++ {
		f := frames[p.hand]
		p.hand = (p.hand + 1) % n
		if f.Free() {
			return f.id, nil
		}
		if f.refBit {
			f.refBit = false // second chance
			continue
		}
		return f.id, nil
	}
	return -1, ErrPoolExhausted
}
