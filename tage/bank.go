package tage

import (
	"github.com/sarchlab/condpred/counter"
	"github.com/sarchlab/condpred/history"
)

// None marks the absence of a provider or alternate table.
const None = -1

// TaggedEntry is one entry of a tagged table.
type TaggedEntry struct {
	// Tag fingerprints the (pc, history) pair that allocated the entry.
	Tag uint16
	// Ctr is the signed confidence counter. Non-negative predicts taken.
	Ctr int8
	// Useful counts how often the entry decided a correct prediction.
	Useful uint8
}

// Taken returns the direction the entry predicts.
func (e TaggedEntry) Taken() bool {
	return e.Ctr >= 0
}

// Weak reports whether the confidence magnitude is at most one.
func (e TaggedEntry) Weak() bool {
	return e.Ctr >= -1 && e.Ctr <= 1
}

type taggedTable struct {
	cfg     TableConfig
	entries []TaggedEntry
	valid   []bool
	idxMask uint64
	tagMask uint64
}

// TableBank is the ordered set of tagged tables, shortest history first.
type TableBank struct {
	tables []taggedTable
	ctr    counter.Range
	useful counter.Range
}

// NewTableBank allocates zeroed tagged tables for cfg.
func NewTableBank(cfg *Config) *TableBank {
	b := &TableBank{
		tables: make([]taggedTable, len(cfg.Tables)),
		ctr:    counter.Signed(cfg.TaggedCounterBits),
		useful: counter.Unsigned(cfg.UsefulBits),
	}

	for i, tc := range cfg.Tables {
		b.tables[i] = taggedTable{
			cfg:     tc,
			entries: make([]TaggedEntry, tc.Entries()),
			valid:   make([]bool, tc.Entries()),
			idxMask: uint64(tc.Entries() - 1),
			tagMask: (uint64(1) << tc.TagBits) - 1,
		}
	}

	return b
}

// NumTables returns the number of tagged tables.
func (b *TableBank) NumTables() int {
	return len(b.tables)
}

// Config returns the geometry of table t.
func (b *TableBank) Config(t int) TableConfig {
	return b.tables[t].cfg
}

// Index hashes pc with the table's history length folded to its index
// width.
func (b *TableBank) Index(t int, pc uint64, h history.Bits) uint32 {
	tb := &b.tables[t]
	folded := history.Fold(h, tb.cfg.HistoryLength, int(tb.cfg.IndexBits))
	return uint32((pc ^ folded) & tb.idxMask)
}

// Tag hashes pc with two foldings of the table's history so that entries
// sharing an index rarely share a tag.
func (b *TableBank) Tag(t int, pc uint64, h history.Bits) uint16 {
	tb := &b.tables[t]
	width := int(tb.cfg.TagBits)
	folded := history.Fold(h, tb.cfg.HistoryLength, width)
	folded ^= history.Fold(h, tb.cfg.HistoryLength, width-1) << 1
	return uint16(((pc >> tb.cfg.IndexBits) ^ folded) & tb.tagMask)
}

// Lookup computes the index and tag of pc in every table.
func (b *TableBank) Lookup(pc uint64, h history.Bits) ([]uint32, []uint16) {
	indices := make([]uint32, len(b.tables))
	tags := make([]uint16, len(b.tables))
	for t := range b.tables {
		indices[t] = b.Index(t, pc, h)
		tags[t] = b.Tag(t, pc, h)
	}
	return indices, tags
}

// Entry returns a copy of entry idx of table t.
func (b *TableBank) Entry(t int, idx uint32) TaggedEntry {
	return b.tables[t].entries[idx]
}

// Valid reports whether entry idx of table t has ever been written.
func (b *TableBank) Valid(t int, idx uint32) bool {
	return b.tables[t].valid[idx]
}

// Put installs e as entry idx of table t, clamping its counters.
func (b *TableBank) Put(t int, idx uint32, e TaggedEntry) {
	tb := &b.tables[t]
	e.Tag &= uint16(tb.tagMask)
	e.Ctr = int8(b.ctr.Clamp(int32(e.Ctr)))
	e.Useful = uint8(b.useful.Clamp(int32(e.Useful)))
	tb.entries[idx] = e
	tb.valid[idx] = true
}

// Hits reports whether entry idx of table t is valid and carries tag.
func (b *TableBank) Hits(t int, idx uint32, tag uint16) bool {
	tb := &b.tables[t]
	return tb.valid[idx] && tb.entries[idx].Tag == tag
}

// FindProviderAndAlternate scans tables in rank order. The first tag hit is
// the provider, the next one the alternate. Either may be None.
func (b *TableBank) FindProviderAndAlternate(order []int, indices []uint32, tags []uint16) (provider, alt int) {
	provider, alt = None, None
	for _, t := range order {
		if !b.Hits(t, indices[t], tags[t]) {
			continue
		}
		if provider == None {
			provider = t
			continue
		}
		alt = t
		break
	}
	return provider, alt
}

// Train moves the confidence of entry idx of table t toward taken.
func (b *TableBank) Train(t int, idx uint32, taken bool) {
	e := &b.tables[t].entries[idx]
	e.Ctr = counter.Toward(b.ctr, e.Ctr, taken)
}

// Reward moves the usefulness of entry idx of table t up when correct and
// down otherwise.
func (b *TableBank) Reward(t int, idx uint32, correct bool) {
	e := &b.tables[t].entries[idx]
	e.Useful = counter.Toward(b.useful, e.Useful, correct)
}

// Allocate claims an entry for the resolved outcome in the first table with
// longer history than provider whose entry has zero usefulness. The entry
// gets the new tag and a weakly correct counter. It returns the table used,
// or None.
func (b *TableBank) Allocate(provider int, indices []uint32, tags []uint16, taken bool) int {
	for t := provider + 1; t < len(b.tables); t++ {
		if b.tables[t].entries[indices[t]].Useful != 0 {
			continue
		}

		ctr := int8(-1)
		if taken {
			ctr = 0
		}
		b.Put(t, indices[t], TaggedEntry{Tag: tags[t], Ctr: ctr, Useful: 0})
		return t
	}
	return None
}

// Each calls fn for every entry of every table.
func (b *TableBank) Each(fn func(t int, idx uint32, e TaggedEntry)) {
	for t := range b.tables {
		for i, e := range b.tables[t].entries {
			fn(t, uint32(i), e)
		}
	}
}

// HalveUseful halves the usefulness of every entry.
func (b *TableBank) HalveUseful() {
	for t := range b.tables {
		entries := b.tables[t].entries
		for i := range entries {
			entries[i].Useful >>= 1
		}
	}
}

// Reset zeroes and invalidates every entry.
func (b *TableBank) Reset() {
	for t := range b.tables {
		clear(b.tables[t].entries)
		clear(b.tables[t].valid)
	}
}
