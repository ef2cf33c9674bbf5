package checkpoint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/condpred/checkpoint"
	"github.com/sarchlab/condpred/cond"
)

type marker struct {
	pred    int
	advance uint64
}

var _ = Describe("Store", func() {
	var s *checkpoint.Store[marker]

	BeforeEach(func() {
		s = checkpoint.NewStore[marker](8)
	})

	It("should walk an identity through its lifecycle", func() {
		id := cond.NewID(1, 0)
		Expect(s.State(id)).To(Equal(checkpoint.Unseen))

		Expect(s.Record(id, marker{pred: 7})).To(Succeed())
		Expect(s.State(id)).To(Equal(checkpoint.Predicted))
		Expect(s.Len()).To(Equal(1))

		Expect(s.Touch(id, func(m *marker) { m.advance = 42 })).To(Succeed())
		Expect(s.State(id)).To(Equal(checkpoint.Advanced))

		m, err := s.Consume(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(marker{pred: 7, advance: 42}))
		Expect(s.State(id)).To(Equal(checkpoint.Unseen))
		Expect(s.Len()).To(Equal(0))
	})

	It("should reject a duplicate record without overwriting", func() {
		id := cond.NewID(5, 2)
		Expect(s.Record(id, marker{pred: 1})).To(Succeed())

		err := s.Record(id, marker{pred: 2})
		Expect(err).To(MatchError(checkpoint.ErrDuplicate))

		Expect(s.Touch(id, nil)).To(Succeed())
		m, err := s.Consume(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.pred).To(Equal(1))
	})

	It("should reject out-of-order calls", func() {
		id := cond.NewID(9, 0)

		Expect(s.Touch(id, nil)).To(MatchError(checkpoint.ErrMissing))
		_, err := s.Consume(id)
		Expect(err).To(MatchError(checkpoint.ErrMissing))

		Expect(s.Record(id, marker{})).To(Succeed())
		_, err = s.Consume(id)
		Expect(err).To(MatchError(checkpoint.ErrNotAdvanced))

		Expect(s.Touch(id, nil)).To(Succeed())
		Expect(s.Touch(id, nil)).To(MatchError(checkpoint.ErrAlreadyAdvanced))

		_, err = s.Consume(id)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Consume(id)
		Expect(err).To(MatchError(checkpoint.ErrMissing))
	})

	It("should bound the number of in-flight branches", func() {
		for i := 0; i < 8; i++ {
			Expect(s.Record(cond.NewID(uint64(i), 0), marker{})).To(Succeed())
		}
		Expect(s.Record(cond.NewID(100, 0), marker{})).To(MatchError(checkpoint.ErrFull))
		Expect(s.Cap()).To(Equal(8))
	})

	It("should find every checkpoint under out-of-order resolution", func() {
		s = checkpoint.NewStore[marker](64)
		live := map[cond.ID]int{}

		next := uint64(0)
		for round := 0; round < 50; round++ {
			for len(live) < 64 {
				id := cond.NewID(next, uint8(next%3))
				Expect(s.Record(id, marker{pred: int(next)})).To(Succeed())
				Expect(s.Touch(id, nil)).To(Succeed())
				live[id] = int(next)
				next++
			}

			// Resolve roughly every third branch, in map order.
			n := 0
			for id, want := range live {
				if n%3 == 0 {
					m, err := s.Consume(id)
					Expect(err).NotTo(HaveOccurred())
					Expect(m.pred).To(Equal(want))
					delete(live, id)
				}
				n++
			}
			Expect(s.Len()).To(Equal(len(live)))
		}

		for id, want := range live {
			m, err := s.Consume(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.pred).To(Equal(want))
		}
		Expect(s.Len()).To(Equal(0))
	})

	It("should clear all checkpoints", func() {
		id := cond.NewID(3, 0)
		Expect(s.Record(id, marker{})).To(Succeed())
		s.Clear()

		Expect(s.Len()).To(Equal(0))
		Expect(s.State(id)).To(Equal(checkpoint.Unseen))
		Expect(s.Record(id, marker{})).To(Succeed())
	})
})
