package benchmarks

import "math/rand"

// GetMicrobenchmarks returns the standard set of synthetic branch streams.
// Each one targets a specific predictor capability.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		loopExit(),
		alternating(),
		correlated(),
		biased(),
		nestedLoops(),
		longPeriod(),
		splitInstructions(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 streams for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopExit(),
		alternating(),
		correlated(),
	}
}

// loopBranch appends the back edge of a loop running iterations times.
func loopBranch(out []Branch, pc, head uint64, iterations int) []Branch {
	for i := 0; i < iterations; i++ {
		out = append(out, Branch{PC: pc, Target: head, Taken: i != iterations-1})
	}
	return out
}

// 1. Loop Exit - a counted loop whose back edge falls through once
func loopExit() Benchmark {
	var branches []Branch
	for i := 0; i < 500; i++ {
		branches = loopBranch(branches, 0x1000, 0x0fc0, 8)
	}

	return Benchmark{
		Name:        "loop_exit",
		Description: "8-iteration loop back edge - tests exit prediction",
		Branches:    branches,
	}
}

// 2. Alternating - one forward branch flipping every execution
func alternating() Benchmark {
	branches := make([]Branch, 0, 4000)
	for i := 0; i < 4000; i++ {
		branches = append(branches, Branch{PC: 0x2000, Target: 0x2040, Taken: i%2 == 0})
	}

	return Benchmark{
		Name:        "alternating",
		Description: "T/N alternating branch - defeats bimodal counters",
		Branches:    branches,
	}
}

// 3. Correlated - the third branch is the XOR of two random ones
func correlated() Benchmark {
	rng := rand.New(rand.NewSource(3))
	branches := make([]Branch, 0, 4500)
	for i := 0; i < 1500; i++ {
		a := rng.Intn(2) == 0
		b := rng.Intn(2) == 0
		branches = append(branches,
			Branch{PC: 0x3000, Target: 0x3008, Taken: a},
			Branch{PC: 0x3010, Target: 0x3018, Taken: b},
			Branch{PC: 0x3020, Target: 0x3040, Taken: a != b},
		)
	}

	return Benchmark{
		Name:        "correlated",
		Description: "XOR of two random branches - needs global history",
		Branches:    branches,
	}
}

// 4. Biased - many branches, each strongly leaning one way
func biased() Benchmark {
	rng := rand.New(rand.NewSource(4))
	branches := make([]Branch, 0, 4096)
	for i := 0; i < 4096; i++ {
		site := uint64(rng.Intn(16))
		pc := 0x4000 + site*4
		towardTaken := site%2 == 0
		taken := towardTaken == (rng.Intn(10) != 0)
		branches = append(branches, Branch{PC: pc, Target: pc + 0x100, Taken: taken})
	}

	return Benchmark{
		Name:        "biased",
		Description: "16 branches with 90% bias - tests per-branch counters",
		Branches:    branches,
	}
}

// 5. Nested Loops - a 6-iteration inner loop inside a 4-iteration outer one
func nestedLoops() Benchmark {
	var branches []Branch
	for n := 0; n < 100; n++ {
		for outer := 0; outer < 4; outer++ {
			branches = loopBranch(branches, 0x5010, 0x5000, 6)
			branches = append(branches, Branch{PC: 0x5040, Target: 0x4ff0, Taken: outer != 3})
		}
	}

	return Benchmark{
		Name:        "nested_loops",
		Description: "6x4 nested loops - tests history across two back edges",
		Branches:    branches,
	}
}

// 6. Long Period - a random 40-outcome pattern repeated
func longPeriod() Benchmark {
	rng := rand.New(rand.NewSource(6))
	pattern := make([]bool, 40)
	for i := range pattern {
		pattern[i] = rng.Intn(2) == 0
	}

	branches := make([]Branch, 0, 4000)
	for i := 0; i < 4000; i++ {
		branches = append(branches, Branch{PC: 0x6000, Target: 0x6080, Taken: pattern[i%len(pattern)]})
	}

	return Benchmark{
		Name:        "long_period",
		Description: "40-outcome repeating pattern - needs long history tables",
		Branches:    branches,
	}
}

// 7. Split Instructions - two branch pieces per instruction
func splitInstructions() Benchmark {
	branches := make([]Branch, 0, 4000)
	for i := 0; i < 2000; i++ {
		branches = append(branches,
			Branch{PC: 0x7000, Target: 0x7100, Taken: i%3 == 0, Piece: 0},
			Branch{PC: 0x7000, Target: 0x7200, Taken: i%3 != 0, Piece: 1},
		)
	}

	return Benchmark{
		Name:        "split_instructions",
		Description: "two conditional pieces per instruction - tests piece identities",
		Branches:    branches,
	}
}
