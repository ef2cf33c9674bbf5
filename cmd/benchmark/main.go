// Command benchmark replays branch streams through a direction predictor.
//
// Usage:
//
//	go run ./cmd/benchmark [flags] [trace ...]
//
// Flags:
//
//	-predictor   tage, saturating, per-branch, btfnt or two-level (default: tage)
//	-config      TAGE configuration JSON file (default: built-in geometry)
//	-dump-config Write the effective TAGE configuration to a file and exit
//	-depth       Branches in flight before the oldest resolves (default: 8)
//	-core        Run only the core microbenchmarks
//	-csv         Output results in CSV format (default: human-readable)
//	-v           Verbose output and debug logging
//	-cpuprofile  Write a CPU profile to a file
//	-memprofile  Write a heap profile to a file
//
// With no trace arguments the synthetic microbenchmarks are replayed. Each
// trace file holds one branch per line as "<pc> <target> <T|N> [piece]".
//
// Example:
//
//	# Compare TAGE with a bimodal predictor
//	go run ./cmd/benchmark -csv > tage.csv
//	go run ./cmd/benchmark -predictor per-branch -csv > bimodal.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/condpred/benchmarks"
	"github.com/sarchlab/condpred/simple"
	"github.com/sarchlab/condpred/tage"
)

var (
	predictorName = flag.String("predictor", "tage", "Predictor: tage, saturating, per-branch, btfnt, two-level")
	configPath    = flag.String("config", "", "Path to TAGE configuration JSON file")
	dumpConfig    = flag.String("dump-config", "", "Write the effective TAGE configuration to this file and exit")
	depth         = flag.Int("depth", 8, "Branches in flight before the oldest resolves")
	coreOnly      = flag.Bool("core", false, "Run only the core microbenchmarks")
	csvOutput     = flag.Bool("csv", false, "Output results in CSV format")
	verbose       = flag.Bool("v", false, "Verbose output")
	cpuProfile    = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile    = flag.String("memprofile", "", "write memory profile to file")
)

func main() {
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = log.LevelDebug
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false)))

	tageConfig := tage.DefaultConfig()
	if *configPath != "" {
		var err error
		tageConfig, err = tage.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if *dumpConfig != "" {
		if err := tageConfig.SaveConfig(*dumpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	factory, err := predictorFactory(*predictorName, tageConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.Depth = *depth
	config.Verbose = *verbose
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if flag.NArg() > 0 {
		for _, path := range flag.Args() {
			bench, err := benchmarks.LoadTrace(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
				os.Exit(1)
			}
			harness.AddBenchmark(bench)
		}
	} else if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	results, err := harness.RunAll(factory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	// Output results
	if *csvOutput {
		harness.PrintCSV(results)
		return
	}

	fmt.Printf("Predictor: %s\n", *predictorName)
	fmt.Printf("Depth:     %d\n", config.Depth)
	if *predictorName == "tage" {
		fmt.Printf("Budget:    %d of %d bytes\n", tageConfig.FootprintBytes(), tageConfig.MaxBytes)
	}
	fmt.Println("")
	harness.PrintResults(results)
}

// predictorFactory returns a constructor for the named predictor.
func predictorFactory(name string, tageConfig *tage.Config) (benchmarks.PredictorFactory, error) {
	if name == "tage" {
		if err := tageConfig.Validate(); err != nil {
			return nil, err
		}
		if tageConfig.MaxInFlight < *depth {
			return nil, fmt.Errorf("depth %d exceeds max_in_flight %d", *depth, tageConfig.MaxInFlight)
		}
		return func() (benchmarks.Predictor, error) {
			return tage.New(tageConfig)
		}, nil
	}

	cfg := simple.DefaultConfig()
	if cfg.MaxInFlight < *depth {
		cfg.MaxInFlight = *depth
	}
	if _, err := simple.New(name, cfg); err != nil {
		return nil, err
	}
	return func() (benchmarks.Predictor, error) {
		return simple.New(name, cfg)
	}, nil
}
