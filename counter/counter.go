// Package counter provides bounded integer ranges and saturating counters.
//
// Every learned quantity in the predictors (base counters, tagged confidence
// and usefulness, selection weights, the use-alternate counter) is a small
// integer of a configured bit width. Clamping is written once here and
// shared by all of them: values never wrap, they stick at the bounds.
package counter

import "fmt"

// MaxBits is the widest counter supported. Table storage uses 8-bit cells.
const MaxBits = 8

// Integer is the set of storage types a Range can clamp.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~uint8 | ~uint16
}

// Range is the closed interval [Min, Max] a counter is clamped to.
type Range struct {
	Min int32
	Max int32
}

// Signed returns the two's complement range of a bits-wide counter,
// e.g. Signed(3) is [-4, 3].
func Signed(bits uint8) Range {
	mustWidth(bits)
	return Range{
		Min: -(1 << (bits - 1)),
		Max: (1 << (bits - 1)) - 1,
	}
}

// Unsigned returns the range of a bits-wide unsigned counter,
// e.g. Unsigned(2) is [0, 3].
func Unsigned(bits uint8) Range {
	mustWidth(bits)
	return Range{
		Min: 0,
		Max: (1 << bits) - 1,
	}
}

func mustWidth(bits uint8) {
	if bits == 0 || bits > MaxBits {
		panic(fmt.Sprintf("counter: width %d outside 1..%d", bits, MaxBits))
	}
}

// Clamp limits v to the range.
func (r Range) Clamp(v int32) int32 {
	if v > r.Max {
		return r.Max
	}
	if v < r.Min {
		return r.Min
	}
	return v
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int32) bool {
	return v >= r.Min && v <= r.Max
}

// Add returns v+delta clamped to r.
func Add[T Integer](r Range, v T, delta int32) T {
	return T(r.Clamp(int32(v) + delta))
}

// Inc returns v+1 clamped to r.
func Inc[T Integer](r Range, v T) T {
	return Add(r, v, 1)
}

// Dec returns v-1 clamped to r.
func Dec[T Integer](r Range, v T) T {
	return Add(r, v, -1)
}

// Toward moves v one step up when up is true, one step down otherwise.
func Toward[T Integer](r Range, v T, up bool) T {
	if up {
		return Inc(r, v)
	}
	return Dec(r, v)
}

// Counter is a single saturating counter that carries its own range.
type Counter struct {
	r     Range
	value int32
}

// New creates a counter over r starting at initial (clamped).
func New(r Range, initial int32) Counter {
	return Counter{r: r, value: r.Clamp(initial)}
}

// Value returns the current count.
func (c Counter) Value() int32 {
	return c.value
}

// Range returns the bounds of the counter.
func (c Counter) Range() Range {
	return c.r
}

// Inc increments, saturating at Max.
func (c *Counter) Inc() {
	c.value = c.r.Clamp(c.value + 1)
}

// Dec decrements, saturating at Min.
func (c *Counter) Dec() {
	c.value = c.r.Clamp(c.value - 1)
}

// Set stores v clamped to the range.
func (c *Counter) Set(v int32) {
	c.value = c.r.Clamp(v)
}

// AtLeast reports whether the counter has reached threshold.
func (c Counter) AtLeast(threshold int32) bool {
	return c.value >= threshold
}
