package meter

import "sync/atomic"

// Publisher exposes the latest published result.
type Publisher interface {
	Latest() uint32
}

// PublisherFunc is func form of Publisher.
type PublisherFunc func() uint32

// Latest implements Publisher.
func (f PublisherFunc) Latest() uint32 {
	return f()
}

// Store is a single-writer double buffer of frequency results.
// The zero value holds 0 in both slots with slot 1 selected.
type Store struct {
	selected uint32 // slot index, 0 or 1
	slots    [2]uint32
}

// Publish writes hz into the slot not selected, then selects it.
// It must only be called from one context.
func (s *Store) Publish(hz uint32) {
	next := 1 - atomic.LoadUint32(&s.selected)
	atomic.StoreUint32(&s.slots[next], hz)
	atomic.StoreUint32(&s.selected, next)
}

// Latest implements Publisher. The value may be up to one window old.
func (s *Store) Latest() uint32 {
	return atomic.LoadUint32(&s.slots[atomic.LoadUint32(&s.selected)])
}

// Active returns the selected slot, 1 or 2.
func (s *Store) Active() uint8 {
	return uint8(atomic.LoadUint32(&s.selected)) + 1
}

// Slot returns the value held by slot n (1 or 2).
func (s *Store) Slot(n uint8) uint32 {
	return atomic.LoadUint32(&s.slots[(n-1)&1])
}
