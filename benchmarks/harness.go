// Package benchmarks replays branch streams through direction predictors
// and reports how well each predictor did.
package benchmarks

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/condpred/cond"
)

// Predictor is a direction predictor that reports its statistics.
type Predictor interface {
	cond.Predictor
	Stats() cond.Stats
}

// PredictorFactory builds a fresh predictor for every benchmark.
type PredictorFactory func() (Predictor, error)

// Branch is one dynamic conditional branch of a stream.
type Branch struct {
	// PC is the address of the branch instruction.
	PC uint64
	// Target is where the branch goes when taken.
	Target uint64
	// Taken is the resolved direction.
	Taken bool
	// Piece identifies the branch within a multi-branch instruction.
	Piece uint8
}

// NextPC returns the address following the branch when it goes the given
// way.
func (b Branch) NextPC(taken bool) uint64 {
	if taken {
		return b.Target
	}
	return b.PC + 4
}

// BenchmarkResult holds the outcome of replaying a single benchmark.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark stresses
	Description string `json:"description"`

	// Branches is the number of branches replayed
	Branches uint64 `json:"branches"`

	// Predictor stats
	Predictions           uint64  `json:"predictions"`
	Correct               uint64  `json:"correct"`
	Mispredictions        uint64  `json:"mispredictions"`
	AccuracyPercent       float64 `json:"accuracy_percent"`
	MispredictionsPerKilo float64 `json:"mispredictions_per_kilo"`

	// Tagged table stats (TAGE only)
	ProviderHits uint64 `json:"provider_hits,omitempty"`
	AltOverrides uint64 `json:"alt_overrides,omitempty"`
	Allocations  uint64 `json:"allocations,omitempty"`
	AgingSweeps  uint64 `json:"aging_sweeps,omitempty"`

	// WallTime is the actual time taken to replay the stream
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark is a named branch stream.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark stresses
	Description string

	// Branches is the dynamic branch stream in program order
	Branches []Branch
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Depth is the number of branches in flight at once. 1 resolves every
	// branch right after its history update. Default is 8.
	Depth int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Depth:   8,
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness replays benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Depth <= 0 {
		config.Depth = 1
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll replays every benchmark through a fresh predictor.
func (h *Harness) RunAll(newPredictor PredictorFactory) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		p, err := newPredictor()
		if err != nil {
			return nil, fmt.Errorf("failed to create predictor for %s: %w", bench.Name, err)
		}

		result := h.runBenchmark(bench, p)
		results = append(results, result)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%s: %d branches, %.2f%% correct\n",
				bench.Name, result.Branches, result.AccuracyPercent)
		}
	}

	return results, nil
}

// runBenchmark replays a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark, p Predictor) BenchmarkResult {
	start := time.Now()
	Replay(p, bench.Branches, h.config.Depth)
	p.Terminate()
	wallTime := time.Since(start)

	stats := p.Stats()
	result := BenchmarkResult{
		Name:            bench.Name,
		Description:     bench.Description,
		Branches:        uint64(len(bench.Branches)),
		Predictions:     stats.Predictions,
		Correct:         stats.Correct,
		Mispredictions:  stats.Mispredictions,
		AccuracyPercent: stats.Accuracy(),
		ProviderHits:    stats.ProviderHits,
		AltOverrides:    stats.AltOverrides,
		Allocations:     stats.Allocations,
		AgingSweeps:     stats.AgingSweeps,
		WallTime:        wallTime,
	}
	if stats.Predictions > 0 {
		result.MispredictionsPerKilo = float64(stats.Mispredictions) * 1000 / float64(stats.Predictions)
	}

	return result
}

// Replay drives branches through p in program order. Each branch is
// predicted and its history speculatively advanced with the prediction. At
// most depth branches are in flight: once the window fills, the oldest one
// is resolved. The rest are resolved at the end of the stream. A branch with
// a non-zero piece shares the sequence number of the branch before it.
func Replay(p cond.Predictor, branches []Branch, depth int) {
	type inflight struct {
		seq  uint64
		br   Branch
		pred bool
	}

	if depth <= 0 {
		depth = 1
	}

	window := make([]inflight, 0, depth+1)
	resolveOldest := func() {
		f := window[0]
		window = window[1:]
		p.Update(f.seq, f.br.Piece, f.br.PC, f.br.Taken, f.pred, f.br.NextPC(f.br.Taken))
	}

	seq := uint64(0)
	for i, br := range branches {
		// Pieces after the first belong to the same instruction.
		if i > 0 && br.Piece == 0 {
			seq++
		}

		pred := p.Predict(seq, br.Piece, br.PC, false)
		p.HistoryUpdate(seq, br.Piece, br.PC, pred, br.NextPC(pred))

		window = append(window, inflight{seq: seq, br: br, pred: pred})
		if len(window) >= depth {
			resolveOldest()
		}
	}

	for len(window) > 0 {
		resolveOldest()
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Branch Predictor Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Branches:        %d\n", r.Branches)
		_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.Correct)
		_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:  %d\n", r.Mispredictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.2f%%\n", r.AccuracyPercent)
		_, _ = fmt.Fprintf(h.config.Output, "  MPKB:            %.2f\n", r.MispredictionsPerKilo)

		if r.ProviderHits > 0 || r.Allocations > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Tagged Tables ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Provider Hits:   %d\n", r.ProviderHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Alt Overrides:   %d\n", r.AltOverrides)
			_, _ = fmt.Fprintf(h.config.Output, "  Allocations:     %d\n", r.Allocations)
			_, _ = fmt.Fprintf(h.config.Output, "  Aging Sweeps:    %d\n", r.AgingSweeps)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,branches,correct,mispredictions,accuracy,mpkb,provider_hits,alt_overrides,allocations,aging_sweeps")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%.3f,%d,%d,%d,%d\n",
			r.Name,
			r.Branches,
			r.Correct,
			r.Mispredictions,
			r.AccuracyPercent,
			r.MispredictionsPerKilo,
			r.ProviderHits,
			r.AltOverrides,
			r.Allocations,
			r.AgingSweeps,
		)
	}
}
