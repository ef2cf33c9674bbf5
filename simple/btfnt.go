package simple

var _ Predictor = (*BTFNT)(nil)

// btbEntry remembers where a branch went the last time it was taken.
type btbEntry struct {
	pc     uint64
	target uint64
}

// BTBStats counts target buffer lookups.
type BTBStats struct {
	// Hits is the number of predictions that found a recorded target.
	Hits uint64
	// Misses is the number of predictions that found none.
	Misses uint64
}

// HitRate returns the target buffer hit rate as a percentage.
func (s BTBStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// BTFNT predicts backward branches taken and forward branches not taken.
// The direction comes from the last taken target seen for the PC; a branch
// with no recorded target is assumed to fall through.
type BTFNT struct {
	tracker[struct{}]

	btb      []btbEntry
	btbValid []bool
	btbSize  uint32

	btbStats BTBStats
}

// NewBTFNT creates a BTFNT predictor with cfg.BTBSize target entries.
func NewBTFNT(cfg Config) (*BTFNT, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &BTFNT{
		tracker:  newTracker[struct{}]("btfnt", cfg.MaxInFlight),
		btb:      make([]btbEntry, cfg.BTBSize),
		btbValid: make([]bool, cfg.BTBSize),
		btbSize:  cfg.BTBSize,
	}, nil
}

func (p *BTFNT) btbIndex(pc uint64) uint32 {
	return uint32((pc >> 2) & uint64(p.btbSize-1))
}

// Target returns the last taken target recorded for pc.
func (p *BTFNT) Target(pc uint64) (uint64, bool) {
	i := p.btbIndex(pc)
	if p.btbValid[i] && p.btb[i].pc == pc {
		return p.btb[i].target, true
	}
	return 0, false
}

// BTBStats returns the target buffer statistics.
func (p *BTFNT) BTBStats() BTBStats {
	return p.btbStats
}

// Predict returns taken when the recorded target lies at or before pc.
func (p *BTFNT) Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool {
	p.predicted(seqNo, piece, struct{}{})

	target, ok := p.Target(pc)
	if !ok {
		p.btbStats.Misses++
		return false
	}

	p.btbStats.Hits++
	return target <= pc
}

// HistoryUpdate records nextPC as the target of a speculatively taken
// branch.
func (p *BTFNT) HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64) {
	p.advanced(seqNo, piece, nil)
	if taken {
		p.record(pc, nextPC)
	}
}

// Update records nextPC as the target of a branch resolved taken.
func (p *BTFNT) Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64) {
	p.resolved(seqNo, piece, resolveDir, predDir)
	if resolveDir {
		p.record(pc, nextPC)
	}
}

func (p *BTFNT) record(pc, target uint64) {
	i := p.btbIndex(pc)
	p.btb[i] = btbEntry{pc: pc, target: target}
	p.btbValid[i] = true
}

// Terminate drops in-flight branches and clears the target buffer.
func (p *BTFNT) Terminate() {
	p.clear()
	clear(p.btbValid)
}
