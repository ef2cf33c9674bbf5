package tage

import (
	"cmp"
	"slices"

	"github.com/sarchlab/condpred/counter"
	"github.com/sarchlab/condpred/history"
)

// SelectionPolicy learns which tagged table is most likely to be the best
// provider for the current global history. Each table owns a weight per
// history position plus a bias; its score is the dot product of the weights
// with the history read as ±1.
type SelectionPolicy struct {
	weights [][]int8 // [table][window+1], bias last
	r       counter.Range
	step    int32
	window  int
}

// NewSelectionPolicy creates a policy with all weights at zero.
func NewSelectionPolicy(numTables, window int, weightBits uint8, step int32) *SelectionPolicy {
	p := &SelectionPolicy{
		weights: make([][]int8, numTables),
		r:       counter.Signed(weightBits),
		step:    step,
		window:  window,
	}
	for t := range p.weights {
		p.weights[t] = make([]int8, window+1)
	}
	return p
}

// Window returns the number of history bits the policy scores.
func (p *SelectionPolicy) Window() int {
	return p.window
}

// Range returns the weight bounds.
func (p *SelectionPolicy) Range() counter.Range {
	return p.r
}

// Weight returns weight j of table t. j == Window() is the bias.
func (p *SelectionPolicy) Weight(t, j int) int8 {
	return p.weights[t][j]
}

// Bias returns the bias weight of table t.
func (p *SelectionPolicy) Bias(t int) int8 {
	return p.weights[t][p.window]
}

// signs reads at most the window's worth of available history as ±1.
func (p *SelectionPolicy) signs(h history.Bits) []int8 {
	n := p.window
	if avail := h.Len(); avail < n {
		n = avail
	}
	return history.Signs(h, n)
}

// Score returns the selection score of table t. Only history bits the
// register actually holds contribute.
func (p *SelectionPolicy) Score(t int, h history.Bits) int32 {
	return p.score(t, p.signs(h))
}

func (p *SelectionPolicy) score(t int, signs []int8) int32 {
	w := p.weights[t]
	sum := int32(w[p.window])
	for j, s := range signs {
		sum += int32(s) * int32(w[j])
	}
	return sum
}

// Scores returns the score of every table.
func (p *SelectionPolicy) Scores(h history.Bits) []int32 {
	signs := p.signs(h)
	scores := make([]int32, len(p.weights))
	for t := range scores {
		scores[t] = p.score(t, signs)
	}
	return scores
}

// Rank orders tables by descending score. Equal scores put the longer
// history first, so an untrained policy scans longest-first.
func Rank(scores []int32) []int {
	order := make([]int, len(scores))
	for t := range order {
		order[t] = t
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})
	return order
}

// Train reinforces chosen as the table that should have been selected for
// history h and pushes every other table away from it. It does nothing and
// returns false when h holds fewer bits than the window.
func (p *SelectionPolicy) Train(chosen int, h history.Bits) bool {
	if h.Len() < p.window {
		return false
	}

	signs := history.Signs(h, p.window)
	for t, w := range p.weights {
		dir := -p.step
		if t == chosen {
			dir = p.step
		}
		for j, s := range signs {
			w[j] = counter.Add(p.r, w[j], dir*int32(s))
		}
		w[p.window] = counter.Add(p.r, w[p.window], dir)
	}
	return true
}

// Reset zeroes every weight.
func (p *SelectionPolicy) Reset() {
	for _, w := range p.weights {
		clear(w)
	}
}
