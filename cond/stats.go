package cond

// Stats holds statistics common to all predictors.
type Stats struct {
	// Predictions is the total number of branches resolved.
	Predictions uint64
	// Correct is the number of resolved branches whose prediction held.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// ProviderHits counts predictions served by a tagged table.
	ProviderHits uint64
	// AltOverrides counts predictions where a weak provider was overridden
	// by the alternate prediction.
	AltOverrides uint64
	// Allocations counts tagged entries allocated on mispredictions.
	Allocations uint64
	// AgingSweeps counts periodic usefulness resets.
	AgingSweeps uint64
}

// Record counts one resolved branch.
func (s *Stats) Record(resolveDir, predDir bool) {
	s.Predictions++
	if resolveDir == predDir {
		s.Correct++
	} else {
		s.Mispredictions++
	}
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}
