// Package tage implements a tagged geometric-history branch direction
// predictor whose table priority is learned online.
//
// A Predictor keeps a base table of counters, a bank of tagged tables with
// increasing history lengths, and a selection policy that ranks the tagged
// tables for the current history. The first tag hit in rank order provides
// the prediction and the second is the alternate. Every prediction records
// a checkpoint so that resolution can repair history and repeat exactly the
// lookups that produced it, however many younger branches are in flight.
package tage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/condpred/checkpoint"
	"github.com/sarchlab/condpred/cond"
	"github.com/sarchlab/condpred/counter"
	"github.com/sarchlab/condpred/history"
)

var _ cond.Predictor = (*Predictor)(nil)

// speculation is the checkpoint of one in-flight branch.
type speculation struct {
	provider     int
	alt          int
	providerPred bool
	altPred      bool
	finalPred    bool
	usedAlt      bool

	// History push counts when predicted and right after the advance.
	predPushed uint64
	advPushed  uint64
	// Prediction-time history, kept in restore mode only.
	snapshot history.Snapshot

	indices []uint32
	tags    []uint16
	scores  []int32
}

// Predictor is the TAGE predictor with a learned table selection policy.
type Predictor struct {
	*sim.HookableBase

	id  string
	cfg *Config
	log log.Logger

	ghr      *history.Register
	base     *BaseTable
	bank     *TableBank
	policy   *SelectionPolicy
	useAlt   counter.Counter
	aging    ResetScheduler
	inflight *checkpoint.Store[speculation]

	stats cond.Stats
}

// New validates cfg, checks it against its memory budget and allocates a
// zeroed predictor.
func New(cfg *Config) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckBudget(); err != nil {
		return nil, err
	}

	cfg = cfg.Clone()
	id := uuid.NewString()

	p := &Predictor{
		HookableBase: sim.NewHookableBase(),
		id:           id,
		cfg:          cfg,
		log:          log.New("predictor", id),
		ghr:          history.NewRegister(cfg.HistoryCapacity()),
		base:         NewBaseTable(cfg.BaseIndexBits, cfg.BaseCounterBits),
		bank:         NewTableBank(cfg),
		policy: NewSelectionPolicy(len(cfg.Tables), cfg.SelectionWindow,
			cfg.WeightBits, cfg.LearningRate),
		aging:    NewResetScheduler(cfg.ResetPeriod),
		inflight: checkpoint.NewStore[speculation](cfg.MaxInFlight),
	}
	p.resetUseAlt()

	p.log.Info("Predictor memory budget",
		"used", cfg.FootprintBytes(), "limit", cfg.MaxBytes,
		"tables", len(cfg.Tables), "history", cfg.HistoryCapacity())

	return p, nil
}

// ID returns the instance identifier used in logs.
func (p *Predictor) ID() string {
	return p.id
}

// Config returns a copy of the configuration.
func (p *Predictor) Config() *Config {
	return p.cfg.Clone()
}

// History returns the live global history register.
func (p *Predictor) History() history.Bits {
	return p.ghr
}

// Base returns the base table.
func (p *Predictor) Base() *BaseTable {
	return p.base
}

// Bank returns the tagged tables.
func (p *Predictor) Bank() *TableBank {
	return p.bank
}

// Policy returns the table selection policy.
func (p *Predictor) Policy() *SelectionPolicy {
	return p.policy
}

// UseAlt returns the current use-alternate-on-weak counter.
func (p *Predictor) UseAlt() counter.Counter {
	return p.useAlt
}

// InFlight returns the number of unresolved branches.
func (p *Predictor) InFlight() int {
	return p.inflight.Len()
}

// Stats returns the predictor statistics.
func (p *Predictor) Stats() cond.Stats {
	return p.stats
}

// RankTables scores every tagged table against the live history and returns
// the tables in selection order with their scores.
func (p *Predictor) RankTables() ([]int, []int32) {
	scores := p.policy.Scores(p.ghr)
	return Rank(scores), scores
}

// Predict returns the predicted direction of the branch and records its
// checkpoint. It never touches the global history.
func (p *Predictor) Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool {
	id := cond.NewID(seqNo, piece)

	scores := p.policy.Scores(p.ghr)
	order := Rank(scores)
	indices, tags := p.bank.Lookup(pc, p.ghr)
	provider, alt := p.bank.FindProviderAndAlternate(order, indices, tags)

	s := speculation{
		provider:   provider,
		alt:        alt,
		altPred:    p.base.Predict(pc),
		predPushed: p.ghr.Pushed(),
		indices:    indices,
		tags:       tags,
		scores:     scores,
	}
	if alt != None {
		s.altPred = p.bank.Entry(alt, indices[alt]).Taken()
	}

	s.finalPred = s.altPred
	if provider != None {
		e := p.bank.Entry(provider, indices[provider])
		s.providerPred = e.Taken()
		s.finalPred = s.providerPred
		if e.Weak() && p.useAlt.AtLeast(p.cfg.UseAltThreshold) {
			s.finalPred = s.altPred
			s.usedAlt = true
		}
	}

	if p.cfg.RepairMode == RepairRestore {
		s.snapshot = p.ghr.Snapshot()
	}

	if err := p.inflight.Record(id, s); err != nil {
		p.violate("predict", id, err)
	}

	p.invoke(HookPosPredict, id, PredictEvent{
		PC:       pc,
		Provider: provider,
		Alt:      alt,
		Taken:    s.finalPred,
		UsedAlt:  s.usedAlt,
		Scores:   scores,
	})

	return s.finalPred
}

// HistoryUpdate speculatively appends taken to the global history.
func (p *Predictor) HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64) {
	id := cond.NewID(seqNo, piece)

	err := p.inflight.Touch(id, func(s *speculation) {
		s.advPushed = p.ghr.Pushed() + 1
	})
	if err != nil {
		p.violate("history_update", id, err)
	}

	p.ghr.Advance(taken)
}

// Update resolves the branch: it repairs history on a misprediction, trains
// the tables that took part in the prediction, allocates a new entry when
// the prediction was wrong and ages usefulness periodically.
func (p *Predictor) Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64) {
	id := cond.NewID(seqNo, piece)

	s, err := p.inflight.Consume(id)
	if err != nil {
		p.violate("update", id, err)
	}

	mispredicted := resolveDir != predDir
	view := p.repair(id, &s, resolveDir, mispredicted)

	if s.provider != None {
		p.trainProvider(&s, resolveDir)
	} else {
		p.base.Update(pc, resolveDir)
	}

	if mispredicted {
		p.allocate(id, pc, &s, resolveDir, view)
	}

	p.stats.Record(resolveDir, predDir)
	if s.provider != None {
		p.stats.ProviderHits++
	}
	if s.usedAlt {
		p.stats.AltOverrides++
	}

	if p.aging.Tick() {
		p.bank.HalveUseful()
		p.stats.AgingSweeps++
		p.log.Debug("Halved tagged usefulness", "resolutions", p.stats.Predictions)
		p.invoke(HookPosAging, nil, AgingEvent{Resolutions: p.stats.Predictions})
	}

	p.invoke(HookPosResolve, id, ResolveEvent{
		PC:         pc,
		Provider:   s.provider,
		ResolveDir: resolveDir,
		PredDir:    predDir,
	})
}

// repair fixes the global history after a misprediction and returns the
// history as it stood when the branch was predicted.
func (p *Predictor) repair(id cond.ID, s *speculation, resolveDir, mispredicted bool) history.Bits {
	if p.cfg.RepairMode == RepairRestore {
		if mispredicted {
			p.ghr.Restore(s.snapshot, resolveDir)
		}
		return s.snapshot
	}

	now := p.ghr.Pushed()
	view := history.Skip(p.ghr, int(now-s.predPushed))
	if mispredicted {
		age := int(now - s.advPushed)
		if !p.ghr.Patch(age, resolveDir) {
			p.log.Debug("Mispredicted history bit already evicted", "id", id, "age", age)
		}
	}
	return view
}

func (p *Predictor) trainProvider(s *speculation, resolveDir bool) {
	t := s.provider
	idx := s.indices[t]

	// The entry may have been reallocated since the prediction.
	if p.bank.Hits(t, idx, s.tags[t]) {
		p.bank.Train(t, idx, resolveDir)
		if s.providerPred != s.altPred {
			p.bank.Reward(t, idx, s.providerPred == resolveDir)
		}
	}

	if s.providerPred != s.altPred {
		if s.altPred == resolveDir {
			p.useAlt.Inc()
		} else {
			p.useAlt.Dec()
		}
	}
}

func (p *Predictor) allocate(id cond.ID, pc uint64, s *speculation, resolveDir bool, view history.Bits) {
	t := p.bank.Allocate(s.provider, s.indices, s.tags, resolveDir)
	if t == None {
		return
	}

	p.stats.Allocations++
	trained := p.policy.Train(t, view)

	p.invoke(HookPosAllocate, id, AllocateEvent{
		PC:      pc,
		Table:   t,
		Index:   s.indices[t],
		Tag:     s.tags[t],
		Trained: trained,
	})
}

func (p *Predictor) resetUseAlt() {
	p.useAlt = counter.New(counter.Unsigned(p.cfg.UseAltBits), p.cfg.UseAltThreshold)
}

// Terminate clears all learned and speculative state. Statistics are kept
// so they can be reported after the run.
func (p *Predictor) Terminate() {
	p.ghr.Clear()
	p.base.Reset()
	p.bank.Reset()
	p.policy.Reset()
	p.aging.Reset()
	p.inflight.Clear()
	p.resetUseAlt()

	p.log.Debug("Predictor terminated", "resolved", p.stats.Predictions,
		"accuracy", fmt.Sprintf("%.2f%%", p.stats.Accuracy()))
}

func (p *Predictor) violate(op string, id cond.ID, err error) {
	p.log.Error("Branch predictor contract violated", "op", op, "id", id, "err", err)
	panic(&cond.ContractError{Op: op, ID: id, Err: err})
}
