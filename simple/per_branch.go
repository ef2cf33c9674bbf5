package simple

import "github.com/sarchlab/condpred/counter"

var _ Predictor = (*PerBranch)(nil)

// PerBranch is a bimodal predictor: a Branch History Table of 2-bit
// saturating counters indexed by PC.
type PerBranch struct {
	tracker[struct{}]

	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	bht     []uint8
	bhtSize uint32
}

// NewPerBranch creates a PerBranch predictor with cfg.BHTSize counters.
func NewPerBranch(cfg Config) (*PerBranch, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	p := &PerBranch{
		tracker: newTracker[struct{}]("per-branch", cfg.MaxInFlight),
		bht:     make([]uint8, cfg.BHTSize),
		bhtSize: cfg.BHTSize,
	}
	p.resetTable()

	return p, nil
}

// bhtIndex uses the lower bits of PC, excluding alignment bits.
func (p *PerBranch) bhtIndex(pc uint64) uint32 {
	return uint32((pc >> 2) & uint64(p.bhtSize-1))
}

// Counter returns the counter serving pc.
func (p *PerBranch) Counter(pc uint64) uint8 {
	return p.bht[p.bhtIndex(pc)]
}

// Predict returns taken if the counter serving pc is 2 or 3.
func (p *PerBranch) Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool {
	p.predicted(seqNo, piece, struct{}{})
	return p.Counter(pc) >= weaklyTaken
}

// HistoryUpdate keeps no history.
func (p *PerBranch) HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64) {
	p.advanced(seqNo, piece, nil)
}

// Update moves the counter serving pc toward the resolved direction.
func (p *PerBranch) Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64) {
	p.resolved(seqNo, piece, resolveDir, predDir)

	i := p.bhtIndex(pc)
	p.bht[i] = counter.Toward(twoBit, p.bht[i], resolveDir)
}

// Terminate drops in-flight branches and resets the table to weakly taken.
func (p *PerBranch) Terminate() {
	p.clear()
	p.resetTable()
}

func (p *PerBranch) resetTable() {
	for i := range p.bht {
		p.bht[i] = weaklyTaken
	}
}
