package tage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/condpred/history"
	"github.com/sarchlab/condpred/tage"
)

var _ = Describe("SelectionPolicy", func() {
	var (
		policy *tage.SelectionPolicy
		h      *history.Register
	)

	BeforeEach(func() {
		policy = tage.NewSelectionPolicy(3, 8, 4, 1)
		h = history.NewRegister(16)
		for _, bit := range []bool{true, true, false, true, false, false, true, false} {
			h.Advance(bit)
		}
	})

	It("should start neutral and rank longest history first", func() {
		scores := policy.Scores(h)
		Expect(scores).To(Equal([]int32{0, 0, 0}))
		Expect(tage.Rank(scores)).To(Equal([]int{2, 1, 0}))
	})

	It("should rank by descending score", func() {
		Expect(tage.Rank([]int32{5, 9, 5})).To(Equal([]int{1, 2, 0}))
		Expect(tage.Rank([]int32{-3, -1, -2})).To(Equal([]int{1, 2, 0}))
	})

	It("should reinforce the chosen table and penalise the others", func() {
		Expect(policy.Train(0, h)).To(BeTrue())

		for j := 0; j < 8; j++ {
			want := int8(-1)
			if h.Bit(j) {
				want = 1
			}
			Expect(policy.Weight(0, j)).To(Equal(want))
			Expect(policy.Weight(1, j)).To(Equal(-want))
			Expect(policy.Weight(2, j)).To(Equal(-want))
		}
		Expect(policy.Bias(0)).To(Equal(int8(1)))
		Expect(policy.Bias(2)).To(Equal(int8(-1)))

		scores := policy.Scores(h)
		Expect(scores).To(Equal([]int32{9, -9, -9}))
		Expect(tage.Rank(scores)).To(Equal([]int{0, 2, 1}))
	})

	It("should skip training without a full window of history", func() {
		short := history.NewRegister(16)
		short.Advance(true)

		Expect(policy.Train(1, short)).To(BeFalse())
		Expect(policy.Scores(h)).To(Equal([]int32{0, 0, 0}))
		Expect(policy.Bias(1)).To(Equal(int8(0)))
	})

	It("should score only the bits the register holds", func() {
		Expect(policy.Train(0, h)).To(BeTrue())

		short := history.NewRegister(16)
		short.Advance(false)
		// one history bit agrees with weight 0 (-1 * -1) plus bias 1
		Expect(policy.Score(0, short)).To(Equal(int32(2)))
	})

	It("should keep every weight within its width", func() {
		r := policy.Range()
		for i := 0; i < 40; i++ {
			policy.Train(i%3, h)
			policy.Train(2, h)
		}

		for t := 0; t < 3; t++ {
			for j := 0; j <= policy.Window(); j++ {
				Expect(r.Contains(int32(policy.Weight(t, j)))).To(BeTrue())
			}
		}
		Expect(policy.Bias(2)).To(Equal(int8(7)))
	})

	It("should score identically twice in a row", func() {
		policy.Train(1, h)
		policy.Train(1, h)
		policy.Train(0, h)

		first := policy.Scores(h)
		second := policy.Scores(h)
		Expect(second).To(Equal(first))
		Expect(tage.Rank(second)).To(Equal(tage.Rank(first)))
	})

	It("should reset to zero", func() {
		policy.Train(1, h)
		policy.Reset()
		Expect(policy.Scores(h)).To(Equal([]int32{0, 0, 0}))
	})
})
