package simple

import "github.com/sarchlab/condpred/counter"

var _ Predictor = (*Saturating)(nil)

// weaklyTaken is the initial value of every 2-bit counter except those of
// TwoLevel. Values 2 and 3 predict taken.
const weaklyTaken = 2

var twoBit = counter.Unsigned(2)

// Saturating predicts every branch with one global 2-bit counter.
type Saturating struct {
	tracker[struct{}]

	ctr counter.Counter
}

// NewSaturating creates a Saturating predictor.
func NewSaturating(cfg Config) (*Saturating, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Saturating{
		tracker: newTracker[struct{}]("saturating", cfg.MaxInFlight),
		ctr:     counter.New(twoBit, weaklyTaken),
	}, nil
}

// Counter returns the current counter value.
func (p *Saturating) Counter() int32 {
	return p.ctr.Value()
}

// Predict returns the direction held by the counter.
func (p *Saturating) Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool {
	p.predicted(seqNo, piece, struct{}{})
	return p.ctr.AtLeast(weaklyTaken)
}

// HistoryUpdate keeps no history.
func (p *Saturating) HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64) {
	p.advanced(seqNo, piece, nil)
}

// Update moves the counter toward the resolved direction.
func (p *Saturating) Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64) {
	p.resolved(seqNo, piece, resolveDir, predDir)
	if resolveDir {
		p.ctr.Inc()
	} else {
		p.ctr.Dec()
	}
}

// Terminate drops in-flight branches and resets the counter.
func (p *Saturating) Terminate() {
	p.clear()
	p.ctr.Set(weaklyTaken)
}
