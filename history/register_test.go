package history_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/condpred/history"
)

func push(r *history.Register, bits ...bool) {
	for _, b := range bits {
		r.Advance(b)
	}
}

var _ = Describe("Register", func() {
	var r *history.Register

	BeforeEach(func() {
		r = history.NewRegister(8)
	})

	It("should start empty", func() {
		Expect(r.Len()).To(Equal(0))
		Expect(r.Pushed()).To(Equal(uint64(0)))
		Expect(r.Bit(0)).To(BeFalse())
	})

	It("should address bits by age", func() {
		push(r, true, false, false)

		Expect(r.Len()).To(Equal(3))
		Expect(r.Bit(0)).To(BeFalse())
		Expect(r.Bit(1)).To(BeFalse())
		Expect(r.Bit(2)).To(BeTrue())
		Expect(r.Bit(3)).To(BeFalse())
	})

	It("should evict the oldest bit once full", func() {
		push(r, true)
		for i := 0; i < 8; i++ {
			r.Advance(false)
		}

		Expect(r.Len()).To(Equal(8))
		Expect(r.Pushed()).To(Equal(uint64(9)))
		for age := 0; age < 8; age++ {
			Expect(r.Bit(age)).To(BeFalse())
		}
	})

	It("should handle capacities that are not word aligned", func() {
		r = history.NewRegister(70)
		for i := 0; i < 150; i++ {
			r.Advance(i%3 == 0)
		}

		Expect(r.Len()).To(Equal(70))
		for age := 0; age < 70; age++ {
			Expect(r.Bit(age)).To(Equal((149-age)%3 == 0))
		}
	})

	Describe("Patch", func() {
		It("should rewrite one bit and keep younger bits", func() {
			push(r, false, true, true, false)

			Expect(r.Patch(3, true)).To(BeTrue())

			Expect(r.Bit(3)).To(BeTrue())
			Expect(r.Bit(2)).To(BeTrue())
			Expect(r.Bit(1)).To(BeTrue())
			Expect(r.Bit(0)).To(BeFalse())
			Expect(r.Pushed()).To(Equal(uint64(4)))
		})

		It("should refuse evicted positions", func() {
			push(r, true, true)
			Expect(r.Patch(2, false)).To(BeFalse())
			Expect(r.Patch(-1, false)).To(BeFalse())
		})
	})

	Describe("Snapshot and Restore", func() {
		It("should not alias the live register", func() {
			push(r, true, false)
			snap := r.Snapshot()
			push(r, true, true, true)

			Expect(snap.Len()).To(Equal(2))
			Expect(snap.Bit(0)).To(BeFalse())
			Expect(snap.Bit(1)).To(BeTrue())
			Expect(snap.Pushed()).To(Equal(uint64(2)))
		})

		It("should restore the snapshot and append the corrected bit", func() {
			push(r, true, false)
			snap := r.Snapshot()
			push(r, false, true, true)

			r.Restore(snap, true)

			Expect(r.Len()).To(Equal(3))
			Expect(r.Pushed()).To(Equal(uint64(3)))
			Expect(r.Bit(0)).To(BeTrue())
			Expect(r.Bit(1)).To(BeFalse())
			Expect(r.Bit(2)).To(BeTrue())
		})

		It("should reject snapshots of a different capacity", func() {
			other := history.NewRegister(16)
			Expect(func() { r.Restore(other.Snapshot(), true) }).To(Panic())
		})
	})

	It("should clear everything", func() {
		push(r, true, true, true)
		r.Clear()

		Expect(r.Len()).To(Equal(0))
		Expect(r.Pushed()).To(Equal(uint64(0)))
		Expect(r.Bit(0)).To(BeFalse())
	})
})
