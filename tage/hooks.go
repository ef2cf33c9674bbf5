package tage

import "github.com/sarchlab/akita/v4/sim"

// Hook positions invoked by the Predictor. The hook context Item is the
// branch cond.ID (nil for aging) and Detail is the matching event.
var (
	HookPosPredict  = &sim.HookPos{Name: "Predict"}
	HookPosResolve  = &sim.HookPos{Name: "Resolve"}
	HookPosAllocate = &sim.HookPos{Name: "Allocate"}
	HookPosAging    = &sim.HookPos{Name: "Aging"}
)

// PredictEvent describes a prediction.
type PredictEvent struct {
	PC       uint64
	Provider int
	Alt      int
	Taken    bool
	UsedAlt  bool
	Scores   []int32
}

// ResolveEvent describes a resolution.
type ResolveEvent struct {
	PC         uint64
	Provider   int
	ResolveDir bool
	PredDir    bool
}

// AllocateEvent describes a tagged entry allocated on a misprediction.
type AllocateEvent struct {
	PC      uint64
	Table   int
	Index   uint32
	Tag     uint16
	Trained bool
}

// AgingEvent describes a usefulness sweep.
type AgingEvent struct {
	Resolutions uint64
}

func (p *Predictor) invoke(pos *sim.HookPos, item, detail any) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
