// Package cond defines the contract between a cycle-level simulator and a
// conditional branch direction predictor.
//
// The host drives every dynamic branch through three calls, in this order
// and exactly once each: Predict, HistoryUpdate, Update. Many branches may
// sit between their Predict and Update calls at the same time, and Update
// calls may arrive in any order relative to each other.
package cond

import "fmt"

// MaxPieces bounds the sub-instruction index of a branch identity.
const MaxPieces = 16

// Predictor is implemented by every conditional branch predictor.
type Predictor interface {
	// Predict returns the predicted direction of the branch identified by
	// (seqNo, piece). hint is an externally supplied prediction that
	// implementations may ignore.
	Predict(seqNo uint64, piece uint8, pc uint64, hint bool) bool

	// HistoryUpdate speculatively advances predictor history with the
	// direction the pipeline is going to follow.
	HistoryUpdate(seqNo uint64, piece uint8, pc uint64, taken bool, nextPC uint64)

	// Update resolves the branch with its real direction.
	Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64)

	// Terminate releases all state after the last Update.
	Terminate()
}

// ID identifies one in-flight branch instance.
type ID uint64

// NewID packs a sequence number and piece into an ID. It panics when the
// piece does not fit.
func NewID(seqNo uint64, piece uint8) ID {
	if piece >= MaxPieces {
		panic(&ContractError{
			Op:  "id",
			Err: fmt.Errorf("piece %d must be < %d", piece, MaxPieces),
		})
	}
	return ID(seqNo<<4 | uint64(piece))
}

// SeqNo returns the sequence number part of the ID.
func (id ID) SeqNo() uint64 {
	return uint64(id) >> 4
}

// Piece returns the sub-instruction index part of the ID.
func (id ID) Piece() uint8 {
	return uint8(id & 0xF)
}

func (id ID) String() string {
	return fmt.Sprintf("%d.%d", id.SeqNo(), id.Piece())
}

// ContractError reports a call sequence the host must never produce.
// Predictors panic with it: continuing would silently corrupt learned state.
type ContractError struct {
	Op  string
	ID  ID
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.ID, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}
