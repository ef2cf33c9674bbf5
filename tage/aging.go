package tage

// ResetScheduler counts resolutions and signals when the usefulness of every
// tagged entry is due to be halved.
type ResetScheduler struct {
	period uint64
	count  uint64
}

// NewResetScheduler creates a scheduler firing every period resolutions.
func NewResetScheduler(period uint64) ResetScheduler {
	return ResetScheduler{period: period}
}

// Tick counts one resolution and reports whether a sweep is due.
func (s *ResetScheduler) Tick() bool {
	s.count++
	if s.count < s.period {
		return false
	}
	s.count = 0
	return true
}

// Pending returns how many resolutions remain before the next sweep.
func (s *ResetScheduler) Pending() uint64 {
	return s.period - s.count
}

// Reset restarts the count.
func (s *ResetScheduler) Reset() {
	s.count = 0
}
