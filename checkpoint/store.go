// Package checkpoint holds the speculative state of in-flight branches.
//
// A Store is a fixed-capacity, open-addressed table keyed by branch
// identity. Each identity moves through Predicted, then Advanced, and is
// removed when consumed at resolution. Any other transition is an error.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/sarchlab/condpred/cond"
)

// Errors returned for illegal transitions.
var (
	ErrDuplicate       = errors.New("checkpoint already exists")
	ErrMissing         = errors.New("no checkpoint")
	ErrNotAdvanced     = errors.New("history was not advanced")
	ErrAlreadyAdvanced = errors.New("history already advanced")
	ErrFull            = errors.New("too many branches in flight")
)

// State is the lifecycle position of a branch identity.
type State uint8

// Branch identity states. Unseen identities have no slot.
const (
	Unseen State = iota
	Predicted
	Advanced
)

func (s State) String() string {
	switch s {
	case Predicted:
		return "predicted"
	case Advanced:
		return "advanced"
	default:
		return "unseen"
	}
}

type slot[T any] struct {
	id    cond.ID
	state State
	value T
}

// Store maps in-flight branch identities to checkpoints of type T.
type Store[T any] struct {
	slots []slot[T]
	mask  uint64
	limit int
	size  int
}

// NewStore creates a store for at most maxInFlight outstanding branches.
func NewStore[T any](maxInFlight int) *Store[T] {
	if maxInFlight <= 0 {
		panic(fmt.Sprintf("checkpoint: maxInFlight must be > 0, got %d", maxInFlight))
	}

	// Keep the load factor at or below one half.
	n := 1
	for n < 2*maxInFlight {
		n <<= 1
	}

	return &Store[T]{
		slots: make([]slot[T], n),
		mask:  uint64(n - 1),
		limit: maxInFlight,
	}
}

// Len returns the number of outstanding checkpoints.
func (s *Store[T]) Len() int {
	return s.size
}

// Cap returns the maximum number of outstanding checkpoints.
func (s *Store[T]) Cap() int {
	return s.limit
}

// Record stores the checkpoint taken when id was predicted.
func (s *Store[T]) Record(id cond.ID, v T) error {
	i, found := s.find(id)
	if found {
		return fmt.Errorf("record %v: %w", id, ErrDuplicate)
	}
	if s.size >= s.limit {
		return fmt.Errorf("record %v: %w (%d)", id, ErrFull, s.limit)
	}

	s.slots[i] = slot[T]{id: id, state: Predicted, value: v}
	s.size++
	return nil
}

// Touch marks that the history of id has been advanced, letting fn attach
// whatever the advance produced to the checkpoint.
func (s *Store[T]) Touch(id cond.ID, fn func(*T)) error {
	i, found := s.find(id)
	if !found {
		return fmt.Errorf("touch %v: %w", id, ErrMissing)
	}
	if s.slots[i].state == Advanced {
		return fmt.Errorf("touch %v: %w", id, ErrAlreadyAdvanced)
	}

	if fn != nil {
		fn(&s.slots[i].value)
	}
	s.slots[i].state = Advanced
	return nil
}

// Consume removes and returns the checkpoint of id. The identity must have
// been advanced.
func (s *Store[T]) Consume(id cond.ID) (T, error) {
	var zero T

	i, found := s.find(id)
	if !found {
		return zero, fmt.Errorf("consume %v: %w", id, ErrMissing)
	}
	if s.slots[i].state != Advanced {
		return zero, fmt.Errorf("consume %v: %w", id, ErrNotAdvanced)
	}

	v := s.slots[i].value
	s.remove(i)
	return v, nil
}

// State returns the lifecycle state of id.
func (s *Store[T]) State(id cond.ID) State {
	i, found := s.find(id)
	if !found {
		return Unseen
	}
	return s.slots[i].state
}

// Clear drops every checkpoint.
func (s *Store[T]) Clear() {
	clear(s.slots)
	s.size = 0
}

func (s *Store[T]) home(id cond.ID) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return xxhash.Sum64(buf[:]) & s.mask
}

// find returns the slot holding id, or the empty slot where it would go.
func (s *Store[T]) find(id cond.ID) (uint64, bool) {
	i := s.home(id)
	for {
		sl := &s.slots[i]
		if sl.state == Unseen {
			return i, false
		}
		if sl.id == id {
			return i, true
		}
		i = (i + 1) & s.mask
	}
}

// remove empties slot i and shifts later members of the probe chain back
// so lookups never stop early at the hole.
func (s *Store[T]) remove(i uint64) {
	s.slots[i] = slot[T]{}
	s.size--

	j := i
	for {
		j = (j + 1) & s.mask
		if s.slots[j].state == Unseen {
			return
		}

		k := s.home(s.slots[j].id)
		// Move j into the hole unless its home lies cyclically in (i, j].
		if (i <= j && (k <= i || k > j)) || (i > j && k <= i && k > j) {
			s.slots[i] = s.slots[j]
			s.slots[j] = slot[T]{}
			i = j
		}
	}
}
