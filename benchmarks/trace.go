package benchmarks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadTrace reads a branch trace file into a Benchmark named after the
// file.
//
// Each non-empty line that does not start with '#' describes one dynamic
// branch as whitespace-separated fields:
//
//	<pc> <target> <T|N> [piece]
//
// Addresses are hexadecimal with an optional 0x prefix. A non-zero piece
// continues the previous line's instruction and must exceed its piece.
func LoadTrace(path string) (Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return Benchmark{}, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	branches, err := ParseTrace(f)
	if err != nil {
		return Benchmark{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Benchmark{
		Name:        name,
		Description: fmt.Sprintf("trace %s", path),
		Branches:    branches,
	}, nil
}

// ParseTrace reads branches from r in the LoadTrace format.
func ParseTrace(r io.Reader) ([]Branch, error) {
	var branches []Branch

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		br, err := parseBranch(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(branches); n > 0 && br.Piece != 0 && br.Piece <= branches[n-1].Piece {
			return nil, fmt.Errorf("line %d: piece %d does not follow piece %d",
				line, br.Piece, branches[n-1].Piece)
		}
		branches = append(branches, br)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return branches, nil
}

func parseBranch(fields []string) (Branch, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return Branch{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(fields))
	}

	pc, err := parseAddr(fields[0])
	if err != nil {
		return Branch{}, fmt.Errorf("bad pc: %w", err)
	}
	target, err := parseAddr(fields[1])
	if err != nil {
		return Branch{}, fmt.Errorf("bad target: %w", err)
	}

	br := Branch{PC: pc, Target: target}
	switch strings.ToUpper(fields[2]) {
	case "T", "1":
		br.Taken = true
	case "N", "0":
	default:
		return Branch{}, fmt.Errorf("bad direction %q", fields[2])
	}

	if len(fields) == 4 {
		piece, err := strconv.ParseUint(fields[3], 10, 4)
		if err != nil {
			return Branch{}, fmt.Errorf("bad piece: %w", err)
		}
		br.Piece = uint8(piece)
	}

	return br, nil
}

func parseAddr(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}
