package simple

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/condpred/checkpoint"
	"github.com/sarchlab/condpred/cond"
)

// Predictor is a cond.Predictor that reports its statistics.
type Predictor interface {
	cond.Predictor
	Stats() cond.Stats
}

// tracker enforces the predict, history update, update order of every
// branch identity and carries what each predictor checkpoints.
type tracker[T any] struct {
	inflight *checkpoint.Store[T]
	log      log.Logger
	stats    cond.Stats
}

func newTracker[T any](name string, maxInFlight int) tracker[T] {
	return tracker[T]{
		inflight: checkpoint.NewStore[T](maxInFlight),
		log:      log.New("predictor", name),
	}
}

func (t *tracker[T]) predicted(seqNo uint64, piece uint8, v T) {
	id := cond.NewID(seqNo, piece)
	if err := t.inflight.Record(id, v); err != nil {
		t.violate("predict", id, err)
	}
}

func (t *tracker[T]) advanced(seqNo uint64, piece uint8, fn func(*T)) {
	id := cond.NewID(seqNo, piece)
	if err := t.inflight.Touch(id, fn); err != nil {
		t.violate("history_update", id, err)
	}
}

func (t *tracker[T]) resolved(seqNo uint64, piece uint8, resolveDir, predDir bool) T {
	id := cond.NewID(seqNo, piece)
	v, err := t.inflight.Consume(id)
	if err != nil {
		t.violate("update", id, err)
	}
	t.stats.Record(resolveDir, predDir)
	return v
}

func (t *tracker[T]) clear() {
	t.inflight.Clear()
}

// Stats returns the prediction statistics.
func (t *tracker[T]) Stats() cond.Stats {
	return t.stats
}

// InFlight returns the number of unresolved branches.
func (t *tracker[T]) InFlight() int {
	return t.inflight.Len()
}

func (t *tracker[T]) violate(op string, id cond.ID, err error) {
	t.log.Error("Branch predictor contract violated", "op", op, "id", id, "err", err)
	panic(&cond.ContractError{Op: op, ID: id, Err: err})
}
