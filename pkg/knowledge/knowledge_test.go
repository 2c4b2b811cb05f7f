package knowledge_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/knowledge"
)

var _ = Describe("Triplet", func() {
	It("renders the embedded text form", func() {
		t := knowledge.Triplet{Subject: "earth", Predicate: "orbits", Object: "sun"}
		Expect(t.Text()).To(Equal("earth orbits sun"))
		Expect(t.String()).To(Equal("(earth, orbits, sun)"))
	})

	It("ignores payload when comparing keys", func() {
		a := knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c", Timestamp: "2025-01-01T00:00:00Z"}
		b := knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"}.WithRange(1, 2)
		Expect(a.Key()).To(Equal(b.Key()))
	})

	It("treats keys as case sensitive", func() {
		a := knowledge.Triplet{Subject: "Earth", Predicate: "orbits", Object: "sun"}
		b := knowledge.Triplet{Subject: "earth", Predicate: "orbits", Object: "sun"}
		Expect(a.Key()).NotTo(Equal(b.Key()))
	})

	DescribeTable("Valid",
		func(t knowledge.Triplet, valid bool) {
			Expect(t.Valid()).To(Equal(valid))
		},
		Entry("complete", knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"}, true),
		Entry("blank subject", knowledge.Triplet{Subject: " ", Predicate: "b", Object: "c"}, false),
		Entry("missing predicate", knowledge.Triplet{Subject: "a", Object: "c"}, false),
		Entry("missing object", knowledge.Triplet{Subject: "a", Predicate: "b"}, false),
	)

	It("omits absent payload from JSON", func() {
		data, err := json.Marshal(knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(MatchJSON(`{"subject":"a","predicate":"b","object":"c"}`))
	})

	It("carries the source range", func() {
		t := knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"}
		Expect(t.HasRange()).To(BeFalse())

		ranged := t.WithRange(2, 4.5)
		Expect(ranged.HasRange()).To(BeTrue())
		Expect(*ranged.Start).To(Equal(2.0))
		Expect(*ranged.End).To(Equal(4.5))
		Expect(t.HasRange()).To(BeFalse())
	})
})

var _ = Describe("Triplets", func() {
	It("strips fact IDs in order", func() {
		facts := []knowledge.Fact{
			{ID: 0, Triplet: knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"}},
			{ID: 1, Triplet: knowledge.Triplet{Subject: "d", Predicate: "e", Object: "f"}},
		}
		Expect(knowledge.Triplets(facts)).To(Equal([]knowledge.Triplet{facts[0].Triplet, facts[1].Triplet}))
	})
})
