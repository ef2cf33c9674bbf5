package tage

import "github.com/sarchlab/condpred/counter"

// BaseTable is the PC-indexed array of signed saturating counters used when
// no tagged table provides a prediction. Counters start at 0 (weakly taken).
type BaseTable struct {
	counters []int8
	r        counter.Range
	mask     uint64
}

// NewBaseTable creates a base table of 2^indexBits counters.
func NewBaseTable(indexBits, counterBits uint8) *BaseTable {
	n := 1 << indexBits
	return &BaseTable{
		counters: make([]int8, n),
		r:        counter.Signed(counterBits),
		mask:     uint64(n - 1),
	}
}

// Size returns the number of counters.
func (b *BaseTable) Size() int {
	return len(b.counters)
}

// Index returns pc modulo the table size.
func (b *BaseTable) Index(pc uint64) uint64 {
	return pc & b.mask
}

// Counter returns the counter serving pc.
func (b *BaseTable) Counter(pc uint64) int8 {
	return b.counters[b.Index(pc)]
}

// Predict returns true when the counter serving pc is non-negative.
func (b *BaseTable) Predict(pc uint64) bool {
	return b.Counter(pc) >= 0
}

// Update moves the counter serving pc one step toward taken.
func (b *BaseTable) Update(pc uint64, taken bool) {
	i := b.Index(pc)
	b.counters[i] = counter.Toward(b.r, b.counters[i], taken)
}

// Range returns the counter bounds.
func (b *BaseTable) Range() counter.Range {
	return b.r
}

// Reset returns every counter to 0.
func (b *BaseTable) Reset() {
	clear(b.counters)
}
