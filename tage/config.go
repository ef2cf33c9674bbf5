package tage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/condpred/counter"
)

// Errors returned when a configuration cannot be used.
var (
	ErrInvalidConfig  = errors.New("invalid predictor config")
	ErrBudgetExceeded = errors.New("predictor exceeds memory budget")
)

// RepairMode selects how history is repaired after a misprediction.
type RepairMode string

const (
	// RepairPatch rewrites the mispredicted bit in place and keeps every
	// bit appended after it by younger branches.
	RepairPatch RepairMode = "patch"
	// RepairRestore rewinds history to the prediction-time snapshot plus
	// the corrected bit, dropping younger speculative bits.
	RepairRestore RepairMode = "restore"
)

// TableConfig describes one tagged table.
type TableConfig struct {
	// HistoryLength is the number of global history bits hashed into the
	// index and tag.
	HistoryLength int `json:"history_length"`

	// IndexBits is log2 of the number of entries.
	IndexBits uint8 `json:"index_bits"`

	// TagBits is the width of the stored tag.
	TagBits uint8 `json:"tag_bits"`
}

// Entries returns the number of entries of the table.
func (t TableConfig) Entries() int {
	return 1 << t.IndexBits
}

// Config holds the geometry and tuning of the predictor.
type Config struct {
	// Tables lists the tagged tables in strictly increasing history order.
	Tables []TableConfig `json:"tables"`

	// BaseIndexBits is log2 of the number of base counters. Default: 14.
	BaseIndexBits uint8 `json:"base_index_bits"`

	// BaseCounterBits is the width of a signed base counter. Default: 2.
	BaseCounterBits uint8 `json:"base_counter_bits"`

	// TaggedCounterBits is the width of a signed tagged confidence counter.
	// Default: 3 (-4 to 3).
	TaggedCounterBits uint8 `json:"tagged_counter_bits"`

	// UsefulBits is the width of a tagged usefulness counter. Default: 2.
	UsefulBits uint8 `json:"useful_bits"`

	// UseAltBits is the width of the use-alternate-on-weak counter.
	// Default: 4.
	UseAltBits uint8 `json:"use_alt_bits"`

	// UseAltThreshold is the value at which weak providers defer to the
	// alternate prediction. Default: 8.
	UseAltThreshold int32 `json:"use_alt_threshold"`

	// WeightBits is the width of a signed table selection weight.
	// Default: 4.
	WeightBits uint8 `json:"weight_bits"`

	// LearningRate is the weight step applied per training. Default: 1.
	LearningRate int32 `json:"learning_rate"`

	// SelectionWindow is the number of history bits the selection policy
	// scores against. Default: the longest table history. LoadConfig
	// derives it from the loaded tables when the file leaves it out.
	SelectionWindow int `json:"selection_window"`

	// HistorySlack is the extra history kept beyond the longest table so
	// in-flight branches can still read their prediction-time history.
	// Default: 32.
	HistorySlack int `json:"history_slack"`

	// ResetPeriod is the number of resolutions between usefulness halvings.
	// Default: 512K.
	ResetPeriod uint64 `json:"reset_period"`

	// MaxInFlight bounds the number of unresolved branches. Default: 1024.
	MaxInFlight int `json:"max_in_flight"`

	// MaxBytes is the storage budget. Default: 192 KiB.
	MaxBytes uint64 `json:"max_bytes"`

	// RepairMode selects history repair on mispredictions. Default: patch.
	RepairMode RepairMode `json:"repair_mode"`
}

// DefaultTables returns the L-TAGE style 12-table geometry.
func DefaultTables() []TableConfig {
	return []TableConfig{
		{HistoryLength: 4, IndexBits: 10, TagBits: 7},
		{HistoryLength: 6, IndexBits: 10, TagBits: 7},
		{HistoryLength: 10, IndexBits: 11, TagBits: 8},
		{HistoryLength: 16, IndexBits: 11, TagBits: 8},
		{HistoryLength: 25, IndexBits: 11, TagBits: 9},
		{HistoryLength: 40, IndexBits: 11, TagBits: 10},
		{HistoryLength: 64, IndexBits: 10, TagBits: 11},
		{HistoryLength: 101, IndexBits: 10, TagBits: 12},
		{HistoryLength: 160, IndexBits: 10, TagBits: 12},
		{HistoryLength: 254, IndexBits: 9, TagBits: 13},
		{HistoryLength: 403, IndexBits: 9, TagBits: 14},
		{HistoryLength: 640, IndexBits: 9, TagBits: 15},
	}
}

// DefaultConfig returns a Config with the default geometry.
func DefaultConfig() *Config {
	return &Config{
		Tables:            DefaultTables(),
		BaseIndexBits:     14,
		BaseCounterBits:   2,
		TaggedCounterBits: 3,
		UsefulBits:        2,
		UseAltBits:        4,
		UseAltThreshold:   8,
		WeightBits:        4,
		LearningRate:      1,
		SelectionWindow:   640,
		HistorySlack:      32,
		ResetPeriod:       512 * 1024,
		MaxInFlight:       1024,
		MaxBytes:          192 * 1024,
		RepairMode:        RepairPatch,
	}
}

// windowFromTables marks a selection window left out of a config file.
const windowFromTables = -1

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig()
	config.SelectionWindow = windowFromTables
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse predictor config: %w", err)
	}
	if config.SelectionWindow == windowFromTables {
		config.SelectionWindow = config.MaxHistory()
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// MaxHistory returns the longest configured history length.
func (c *Config) MaxHistory() int {
	if len(c.Tables) == 0 {
		return 0
	}
	return c.Tables[len(c.Tables)-1].HistoryLength
}

// HistoryCapacity returns the size of the global history register.
func (c *Config) HistoryCapacity() int {
	return c.MaxHistory() + c.HistorySlack
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func checkWidth(name string, bits uint8) error {
	if bits == 0 || bits > counter.MaxBits {
		return invalid("%s must be in 1..%d, got %d", name, counter.MaxBits, bits)
	}
	return nil
}

// Validate checks that the configuration describes a usable predictor.
func (c *Config) Validate() error {
	if len(c.Tables) == 0 {
		return invalid("at least one tagged table is required")
	}

	prev := 0
	for i, t := range c.Tables {
		if t.HistoryLength <= prev {
			return invalid("table %d history_length %d must exceed %d", i, t.HistoryLength, prev)
		}
		if t.IndexBits == 0 || t.IndexBits > 24 {
			return invalid("table %d index_bits must be in 1..24, got %d", i, t.IndexBits)
		}
		if t.TagBits == 0 || t.TagBits > 16 {
			return invalid("table %d tag_bits must be in 1..16, got %d", i, t.TagBits)
		}
		prev = t.HistoryLength
	}

	if c.BaseIndexBits == 0 || c.BaseIndexBits > 24 {
		return invalid("base_index_bits must be in 1..24, got %d", c.BaseIndexBits)
	}

	widths := []struct {
		name string
		bits uint8
	}{
		{"base_counter_bits", c.BaseCounterBits},
		{"tagged_counter_bits", c.TaggedCounterBits},
		{"useful_bits", c.UsefulBits},
		{"use_alt_bits", c.UseAltBits},
		{"weight_bits", c.WeightBits},
	}
	for _, w := range widths {
		if err := checkWidth(w.name, w.bits); err != nil {
			return err
		}
	}

	if !counter.Unsigned(c.UseAltBits).Contains(c.UseAltThreshold) {
		return invalid("use_alt_threshold %d does not fit %d bits", c.UseAltThreshold, c.UseAltBits)
	}
	if c.LearningRate <= 0 {
		return invalid("learning_rate must be > 0")
	}
	if c.SelectionWindow < 0 || c.SelectionWindow > c.MaxHistory() {
		return invalid("selection_window must be in 0..%d, got %d", c.MaxHistory(), c.SelectionWindow)
	}
	if c.HistorySlack < 0 {
		return invalid("history_slack must be >= 0")
	}
	if c.ResetPeriod == 0 {
		return invalid("reset_period must be > 0")
	}
	if c.MaxInFlight <= 0 {
		return invalid("max_in_flight must be > 0")
	}
	if c.MaxBytes == 0 {
		return invalid("max_bytes must be > 0")
	}

	switch c.RepairMode {
	case RepairPatch, RepairRestore:
	default:
		return invalid("unknown repair_mode %q", c.RepairMode)
	}

	return nil
}

// FootprintBits returns the storage of the history register, the base
// table, the selection weights and the tagged tables, in bits.
func (c *Config) FootprintBits() uint64 {
	bits := uint64(c.HistoryCapacity())
	bits += (uint64(1) << c.BaseIndexBits) * uint64(c.BaseCounterBits)
	bits += uint64(c.WeightBits) * uint64(c.SelectionWindow+1) * uint64(len(c.Tables))

	// Tag, counters and a valid bit per entry.
	perEntry := uint64(c.TaggedCounterBits) + uint64(c.UsefulBits) + 1
	for _, t := range c.Tables {
		bits += uint64(t.Entries()) * (uint64(t.TagBits) + perEntry)
	}

	return bits
}

// FootprintBytes returns FootprintBits rounded up to whole bytes.
func (c *Config) FootprintBytes() uint64 {
	return (c.FootprintBits() + 7) / 8
}

// CheckBudget returns ErrBudgetExceeded if the footprint exceeds MaxBytes.
func (c *Config) CheckBudget() error {
	if used := c.FootprintBytes(); used > c.MaxBytes {
		return fmt.Errorf("%w: %dB used, %dB allowed", ErrBudgetExceeded, used, c.MaxBytes)
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Tables = append([]TableConfig(nil), c.Tables...)
	return &clone
}
