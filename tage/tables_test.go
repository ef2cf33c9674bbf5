package tage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/condpred/history"
	"github.com/sarchlab/condpred/tage"
)

var _ = Describe("BaseTable", func() {
	var b *tage.BaseTable

	BeforeEach(func() {
		b = tage.NewBaseTable(4, 2)
	})

	It("should initially predict weakly taken", func() {
		Expect(b.Counter(0x1000)).To(Equal(int8(0)))
		Expect(b.Predict(0x1000)).To(BeTrue())
	})

	It("should index by pc modulo size", func() {
		Expect(b.Size()).To(Equal(16))
		Expect(b.Index(0x1003)).To(Equal(uint64(3)))

		b.Update(0x3, false)
		Expect(b.Counter(0x13)).To(Equal(int8(-1)))
	})

	It("should require two mispredictions to flip a strong counter", func() {
		pc := uint64(0x7)
		b.Update(pc, true)
		b.Update(pc, true) // saturates at 1

		b.Update(pc, false)
		Expect(b.Predict(pc)).To(BeTrue())
		b.Update(pc, false)
		Expect(b.Predict(pc)).To(BeFalse())

		for i := 0; i < 10; i++ {
			b.Update(pc, false)
		}
		Expect(b.Counter(pc)).To(Equal(int8(-2)))
	})

	It("should reset to neutral", func() {
		b.Update(0x1, false)
		b.Reset()
		Expect(b.Counter(0x1)).To(Equal(int8(0)))
	})
})

var _ = Describe("TableBank", func() {
	var (
		bank *tage.TableBank
		h    *history.Register
	)

	BeforeEach(func() {
		bank = tage.NewTableBank(smallConfig())
		h = history.NewRegister(16)
		for _, bit := range []bool{true, false, true, true, false, false, true, false, true} {
			h.Advance(bit)
		}
	})

	It("should hash deterministically", func() {
		other := history.NewRegister(32)
		for _, bit := range []bool{true, false, true, true, false, false, true, false, true} {
			other.Advance(bit)
		}

		for t := 0; t < bank.NumTables(); t++ {
			Expect(bank.Index(t, 0x4321, h)).To(Equal(bank.Index(t, 0x4321, other)))
			Expect(bank.Tag(t, 0x4321, h)).To(Equal(bank.Tag(t, 0x4321, other)))
			Expect(bank.Index(t, 0x4321, h)).To(BeNumerically("<", 64))
		}
	})

	It("should hash a skipped view like the history it hides back to", func() {
		other := h.Snapshot()
		h.Advance(true)
		h.Advance(true)
		h.Advance(true)

		a := history.Skip(h, 3)
		Expect(bank.Index(0, 0x99, a)).To(Equal(bank.Index(0, 0x99, other)))
		Expect(bank.Tag(2, 0x99, a)).To(Equal(bank.Tag(2, 0x99, other)))
	})

	It("should only hit written entries", func() {
		empty := history.NewRegister(16)
		indices, tags := bank.Lookup(0, empty)
		for t := range tags {
			Expect(indices[t]).To(BeZero())
			Expect(tags[t]).To(BeZero())
			Expect(bank.Hits(t, 0, 0)).To(BeFalse())
		}
		provider, _ := bank.FindProviderAndAlternate([]int{2, 1, 0}, indices, tags)
		Expect(provider).To(Equal(tage.None))

		bank.Put(1, 0, tage.TaggedEntry{})
		Expect(bank.Valid(1, 0)).To(BeTrue())
		Expect(bank.Hits(1, 0, 0)).To(BeTrue())

		bank.Reset()
		Expect(bank.Valid(1, 0)).To(BeFalse())
		Expect(bank.Hits(1, 0, 0)).To(BeFalse())
	})

	Describe("Provider precedence", func() {
		var (
			indices []uint32
			tags    []uint16
		)

		BeforeEach(func() {
			indices, tags = bank.Lookup(0x4321, h)
			for t := range tags {
				// Make sure nothing hits by accident.
				bank.Put(t, indices[t], tage.TaggedEntry{Tag: tags[t] ^ 1})
			}
		})

		It("should fall back to none without hits", func() {
			provider, alt := bank.FindProviderAndAlternate([]int{2, 1, 0}, indices, tags)
			Expect(provider).To(Equal(tage.None))
			Expect(alt).To(Equal(tage.None))
		})

		It("should pick the first two hits in rank order", func() {
			for t := range tags {
				bank.Put(t, indices[t], tage.TaggedEntry{Tag: tags[t]})
			}

			provider, alt := bank.FindProviderAndAlternate([]int{2, 1, 0}, indices, tags)
			Expect(provider).To(Equal(2))
			Expect(alt).To(Equal(1))

			provider, alt = bank.FindProviderAndAlternate([]int{0, 2, 1}, indices, tags)
			Expect(provider).To(Equal(0))
			Expect(alt).To(Equal(2))
		})

		It("should skip missing tables", func() {
			bank.Put(0, indices[0], tage.TaggedEntry{Tag: tags[0]})

			provider, alt := bank.FindProviderAndAlternate([]int{1, 0, 2}, indices, tags)
			Expect(provider).To(Equal(0))
			Expect(alt).To(Equal(tage.None))
		})
	})

	Describe("Allocate", func() {
		var (
			indices []uint32
			tags    []uint16
		)

		BeforeEach(func() {
			indices, tags = bank.Lookup(0x4321, h)
		})

		It("should use the shortest table when there is no provider", func() {
			t := bank.Allocate(tage.None, indices, tags, true)
			Expect(t).To(Equal(0))
			Expect(bank.Entry(0, indices[0])).To(Equal(tage.TaggedEntry{Tag: tags[0], Ctr: 0}))
		})

		It("should only consider longer tables than the provider", func() {
			t := bank.Allocate(0, indices, tags, false)
			Expect(t).To(Equal(1))
			Expect(bank.Entry(1, indices[1])).To(Equal(tage.TaggedEntry{Tag: tags[1], Ctr: -1}))
		})

		It("should skip useful entries", func() {
			bank.Put(1, indices[1], tage.TaggedEntry{Tag: 3, Useful: 1})

			t := bank.Allocate(0, indices, tags, true)
			Expect(t).To(Equal(2))
			Expect(bank.Entry(1, indices[1]).Tag).To(Equal(uint16(3)))
		})

		It("should give up when every candidate is useful", func() {
			bank.Put(2, indices[2], tage.TaggedEntry{Useful: 2})
			Expect(bank.Allocate(1, indices, tags, true)).To(Equal(tage.None))
		})
	})

	Describe("Counters", func() {
		It("should saturate confidence and usefulness", func() {
			for i := 0; i < 10; i++ {
				bank.Train(0, 5, true)
				bank.Reward(0, 5, true)
			}
			Expect(bank.Entry(0, 5).Ctr).To(Equal(int8(3)))
			Expect(bank.Entry(0, 5).Useful).To(Equal(uint8(3)))

			for i := 0; i < 10; i++ {
				bank.Train(0, 5, false)
				bank.Reward(0, 5, false)
			}
			Expect(bank.Entry(0, 5).Ctr).To(Equal(int8(-4)))
			Expect(bank.Entry(0, 5).Useful).To(Equal(uint8(0)))
		})

		It("should clamp entries written with Put", func() {
			bank.Put(1, 0, tage.TaggedEntry{Tag: 0xFFFF, Ctr: 100, Useful: 9})
			Expect(bank.Entry(1, 0)).To(Equal(tage.TaggedEntry{Tag: 63, Ctr: 3, Useful: 3}))
		})

		It("should classify weak entries", func() {
			Expect(tage.TaggedEntry{Ctr: -1}.Weak()).To(BeTrue())
			Expect(tage.TaggedEntry{Ctr: 1}.Weak()).To(BeTrue())
			Expect(tage.TaggedEntry{Ctr: 2}.Weak()).To(BeFalse())
			Expect(tage.TaggedEntry{Ctr: -2}.Weak()).To(BeFalse())
		})
	})

	Describe("Aging", func() {
		It("should halve every usefulness counter", func() {
			bank.Put(0, 1, tage.TaggedEntry{Useful: 3})
			bank.Put(2, 9, tage.TaggedEntry{Useful: 2})

			bank.HalveUseful()
			Expect(bank.Entry(0, 1).Useful).To(Equal(uint8(1)))
			Expect(bank.Entry(2, 9).Useful).To(Equal(uint8(1)))

			bank.HalveUseful()
			Expect(bank.Entry(0, 1).Useful).To(Equal(uint8(0)))
			Expect(bank.Entry(2, 9).Useful).To(Equal(uint8(0)))
		})

		It("should fire the scheduler once per period", func() {
			s := tage.NewResetScheduler(3)
			Expect(s.Tick()).To(BeFalse())
			Expect(s.Tick()).To(BeFalse())
			Expect(s.Pending()).To(Equal(uint64(1)))
			Expect(s.Tick()).To(BeTrue())
			Expect(s.Pending()).To(Equal(uint64(3)))
			Expect(s.Tick()).To(BeFalse())
		})
	})
})
