// Package simple provides the baseline direction predictors that share the
// cond.Predictor contract with the TAGE predictor: a single saturating
// counter, a per-branch counter table, backward-taken/forward-not-taken and
// a two-level local history predictor.
package simple

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config cannot be used.
var ErrInvalidConfig = errors.New("invalid simple predictor config")

// Config holds the table sizes of the simple predictors. Zero fields take
// their defaults.
type Config struct {
	// BHTSize is the number of per-branch counters, or of local histories
	// for TwoLevel. Must be a power of 2. Default is 1024.
	BHTSize uint32 `json:"bht_size"`

	// BTBSize is the number of taken-target entries kept by BTFNT.
	// Must be a power of 2. Default is 256.
	BTBSize uint32 `json:"btb_size"`

	// HistoryBits is the local history length of TwoLevel. Default is 4.
	HistoryBits uint8 `json:"history_bits"`

	// PatternSets is the number of pattern table sets of TwoLevel.
	// Default is 256.
	PatternSets uint32 `json:"pattern_sets"`

	// MaxInFlight bounds the number of unresolved branches. Default is 1024.
	MaxInFlight int `json:"max_in_flight"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BHTSize:     1024,
		BTBSize:     256,
		HistoryBits: 4,
		PatternSets: 256,
		MaxInFlight: 1024,
	}
}

// withDefaults fills zero fields and validates the result.
func (c Config) withDefaults() (Config, error) {
	d := DefaultConfig()
	if c.BHTSize == 0 {
		c.BHTSize = d.BHTSize
	}
	if c.BTBSize == 0 {
		c.BTBSize = d.BTBSize
	}
	if c.HistoryBits == 0 {
		c.HistoryBits = d.HistoryBits
	}
	if c.PatternSets == 0 {
		c.PatternSets = d.PatternSets
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = d.MaxInFlight
	}

	if c.BHTSize&(c.BHTSize-1) != 0 {
		return c, fmt.Errorf("%w: bht_size %d is not a power of 2", ErrInvalidConfig, c.BHTSize)
	}
	if c.BTBSize&(c.BTBSize-1) != 0 {
		return c, fmt.Errorf("%w: btb_size %d is not a power of 2", ErrInvalidConfig, c.BTBSize)
	}
	if c.HistoryBits > 16 {
		return c, fmt.Errorf("%w: history_bits must be in 1..16, got %d", ErrInvalidConfig, c.HistoryBits)
	}
	if c.MaxInFlight < 0 {
		return c, fmt.Errorf("%w: max_in_flight must be > 0", ErrInvalidConfig)
	}

	return c, nil
}

// New returns the predictor registered under name: "saturating",
// "per-branch", "btfnt" or "two-level".
func New(name string, cfg Config) (Predictor, error) {
	var (
		p   Predictor
		err error
	)

	switch name {
	case "saturating":
		p, err = NewSaturating(cfg)
	case "per-branch":
		p, err = NewPerBranch(cfg)
	case "btfnt":
		p, err = NewBTFNT(cfg)
	case "two-level":
		p, err = NewTwoLevel(cfg)
	default:
		return nil, fmt.Errorf("unknown predictor %q", name)
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}
