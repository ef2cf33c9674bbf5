package simple

import "github.com/sarchlab/condpred/counter"

var _ Predictor = (*TwoLevel)(nil)

// weaklyNotTaken is the initial value of the TwoLevel pattern counters.
const weaklyNotTaken = 1

// TwoLevel is a per-address local history predictor. Each PC owns a k-bit
// history of its own outcomes, which selects a 2-bit counter within the
// pattern table set chosen by the PC.
type TwoLevel struct {
	tracker[uint16]

	local    []uint16
	pattern  []uint8
	histMask uint16
	sets     uint32
	bhtSize  uint32
}

// NewTwoLevel creates a TwoLevel predictor.
func NewTwoLevel(cfg Config) (*TwoLevel, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	perSet := uint32(1) << cfg.HistoryBits
	p := &TwoLevel{
		tracker:  newTracker[uint16]("two-level", cfg.MaxInFlight),
		local:    make([]uint16, cfg.BHTSize),
		pattern:  make([]uint8, cfg.PatternSets*perSet),
		histMask: uint16(perSet - 1),
		sets:     cfg.PatternSets,
		bhtSize:  cfg.BHTSize,
	}
	p.resetTables()

	return p, nil
}

func (p *TwoLevel) localIndex(pc uint64) uint32 {
	return uint32((pc >> 2) & uint64(p.bhtSize-1))
}

func (p *TwoLevel) patternIndex(pc uint64, hist uint16) uint32 {
	set := uint32((pc >> 2) % uint64(p.sets))
	return set*(uint32(p.histMask)+1) + uint32(hist&p.histMask)
}

// LocalHistory returns the speculative local history of pc, youngest
// outcome in bit 0.
func (p *TwoLevel) LocalHistory(pc uint64) uint16 {
	return p.local[p.localIndex(pc)]
}

// Counter returns the pattern counter pc would use with history hist.
func (p *TwoLevel) Counter(pc uint64, hist uint16) uint8 {
	return p.pattern[p.patternIndex(pc, hist)]
}

// Predict reads the counter selected by the local history of pc and
// checkpoints that history.
func (p *TwoLevel) Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool {
	hist := p.LocalHistory(pc)
	p.predicted(seqNo, piece, hist)
	return p.Counter(pc, hist) >= weaklyTaken
}

// HistoryUpdate shifts taken into the local history of pc.
func (p *TwoLevel) HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64) {
	p.advanced(seqNo, piece, nil)

	i := p.localIndex(pc)
	p.local[i] = p.shift(p.local[i], taken)
}

// Update trains the counter that made the prediction. On a misprediction
// the local history is rebuilt from the checkpoint and the resolved
// direction.
func (p *TwoLevel) Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64) {
	hist := p.resolved(seqNo, piece, resolveDir, predDir)

	j := p.patternIndex(pc, hist)
	p.pattern[j] = counter.Toward(twoBit, p.pattern[j], resolveDir)

	if resolveDir != predDir {
		p.local[p.localIndex(pc)] = p.shift(hist, resolveDir)
	}
}

func (p *TwoLevel) shift(hist uint16, taken bool) uint16 {
	hist <<= 1
	if taken {
		hist |= 1
	}
	return hist & p.histMask
}

// Terminate drops in-flight branches and resets both levels.
func (p *TwoLevel) Terminate() {
	p.clear()
	p.resetTables()
}

func (p *TwoLevel) resetTables() {
	clear(p.local)
	for i := range p.pattern {
		p.pattern[i] = weaklyNotTaken
	}
}
