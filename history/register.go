// Package history implements the global branch history register.
//
// The register is a ring buffer of outcome bits addressed by age: age 0 is
// the most recently appended outcome, age 1 the one before it, and so on.
// Appending past capacity evicts the oldest bit. Bits older than what the
// register holds read as not-taken.
package history

import "fmt"

// Bits is a read-only, age-addressed view of an outcome sequence.
type Bits interface {
	// Len returns the number of valid bits.
	Len() int
	// Bit returns the outcome at the given age. Ages at or beyond Len read
	// as false.
	Bit(age int) bool
}

// Register is a bounded, append-only bit sequence of branch outcomes.
type Register struct {
	ring
}

// ring is the storage shared by the live register and its snapshots.
type ring struct {
	words    []uint64
	capacity int
	head     int // slot the next outcome is written to
	length   int
	pushed   uint64
}

// NewRegister creates an empty register holding at most capacity bits.
func NewRegister(capacity int) *Register {
	if capacity <= 0 {
		panic(fmt.Sprintf("history: capacity must be > 0, got %d", capacity))
	}

	return &Register{
		ring: ring{
			words:    make([]uint64, (capacity+63)/64),
			capacity: capacity,
		},
	}
}

// Capacity returns the maximum number of bits the register holds.
func (r *Register) Capacity() int {
	return r.capacity
}

// Pushed returns how many outcomes have been appended since creation or the
// last Clear. Restore rewinds it to the snapshot's count plus one.
func (r *Register) Pushed() uint64 {
	return r.pushed
}

// Advance appends one outcome, evicting the oldest once full.
func (r *Register) Advance(taken bool) {
	r.set(r.head, taken)
	r.head++
	if r.head == r.capacity {
		r.head = 0
	}
	if r.length < r.capacity {
		r.length++
	}
	r.pushed++
}

// Patch overwrites the bit at age in place, leaving every younger bit
// untouched. It returns false when the bit has already been evicted.
func (r *Register) Patch(age int, taken bool) bool {
	if age < 0 || age >= r.length {
		return false
	}

	r.set(r.slot(age), taken)
	return true
}

// Snapshot returns an independent copy of the current contents.
func (r *Register) Snapshot() Snapshot {
	return Snapshot{ring: r.clone()}
}

// Restore replaces the live contents with s and appends corrected. It is
// used when a mispredicted outcome must replace everything appended after
// the snapshot was taken.
func (r *Register) Restore(s Snapshot, corrected bool) {
	if s.capacity != r.capacity {
		panic(fmt.Sprintf("history: restoring %d-bit snapshot into %d-bit register",
			s.capacity, r.capacity))
	}

	copy(r.words, s.words)
	r.head = s.head
	r.length = s.length
	r.pushed = s.pushed
	r.Advance(corrected)
}

// Clear drops every bit and resets the push count.
func (r *Register) Clear() {
	for i := range r.words {
		r.words[i] = 0
	}
	r.head = 0
	r.length = 0
	r.pushed = 0
}

// Snapshot is an opaque copy of a Register used for exact restoration.
type Snapshot struct {
	ring
}

// Pushed returns the push count of the register when the snapshot was taken.
func (s Snapshot) Pushed() uint64 {
	return s.pushed
}

func (g ring) Len() int {
	return g.length
}

func (g ring) Bit(age int) bool {
	if age < 0 || age >= g.length {
		return false
	}

	pos := g.slot(age)
	return g.words[pos>>6]&(1<<(pos&63)) != 0
}

func (g ring) slot(age int) int {
	pos := g.head - 1 - age
	if pos < 0 {
		pos += g.capacity
	}
	return pos
}

func (g *ring) set(pos int, taken bool) {
	if taken {
		g.words[pos>>6] |= 1 << (pos & 63)
	} else {
		g.words[pos>>6] &^= 1 << (pos & 63)
	}
}

func (g *ring) clone() ring {
	c := *g
	c.words = append([]uint64(nil), g.words...)
	return c
}
