package index_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/index"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/logger"
	testutils "github.com/papercomputeco/cake/pkg/utils/test"
	"github.com/papercomputeco/cake/pkg/vector"
	"github.com/papercomputeco/cake/pkg/vector/flat"
)

func fact(id uint64, s, p, o string) knowledge.Fact {
	return knowledge.Fact{ID: id, Triplet: knowledge.Triplet{Subject: s, Predicate: p, Object: o}}
}

var _ = Describe("Index", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		driver   *flat.Driver
		idx      *index.Index
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["cat likes fish"] = []float32{1, 0, 0}
		embedder.Embeddings["dog likes bones"] = []float32{0, 1, 0}
		embedder.Embeddings["bird likes seeds"] = []float32{0, 0, 1}
		embedder.Embeddings["what does the cat like"] = []float32{0.9, 0.1, 0}

		var err error
		driver, err = flat.NewDriver(flat.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		idx = index.New(embedder, driver, logger.Nop())
	})

	Describe("Sync", func() {
		It("embeds the canonical text and keys entries by fact ID", func() {
			Expect(idx.Sync(ctx, []knowledge.Fact{
				fact(0, "cat", "likes", "fish"),
				fact(1, "dog", "likes", "bones"),
			})).To(Succeed())

			n, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
			Expect(embedder.Calls()).To(Equal(1))
		})

		It("is a no-op for an empty batch", func() {
			Expect(idx.Sync(ctx, nil)).To(Succeed())
			Expect(embedder.Calls()).To(BeZero())
		})

		It("refuses a batch that skips past the indexed facts", func() {
			Expect(idx.Sync(ctx, []knowledge.Fact{fact(0, "cat", "likes", "fish")})).To(Succeed())

			err := idx.Sync(ctx, []knowledge.Fact{fact(2, "bird", "likes", "seeds")})
			Expect(err).To(MatchError(index.ErrOutOfOrder))

			n, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("refuses a batch with non-consecutive IDs before embedding", func() {
			err := idx.Sync(ctx, []knowledge.Fact{
				fact(0, "cat", "likes", "fish"),
				fact(2, "bird", "likes", "seeds"),
			})
			Expect(err).To(MatchError(index.ErrOutOfOrder))
			Expect(embedder.Calls()).To(BeZero())
		})

		It("leaves the index untouched when embedding fails", func() {
			Expect(idx.Sync(ctx, []knowledge.Fact{fact(0, "cat", "likes", "fish")})).To(Succeed())

			embedder.FailOn = "bird likes seeds"
			err := idx.Sync(ctx, []knowledge.Fact{
				fact(1, "dog", "likes", "bones"),
				fact(2, "bird", "likes", "seeds"),
			})
			Expect(err).To(MatchError(vector.ErrEmbedding))

			n, err := idx.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})

	Describe("Search", func() {
		It("returns an empty result from an empty index without embedding", func() {
			hits, err := idx.Search(ctx, "anything", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
			Expect(embedder.Calls()).To(BeZero())
		})

		Context("with indexed facts", func() {
			BeforeEach(func() {
				Expect(idx.Sync(ctx, []knowledge.Fact{
					fact(0, "cat", "likes", "fish"),
					fact(1, "dog", "likes", "bones"),
					fact(2, "bird", "likes", "seeds"),
				})).To(Succeed())
			})

			It("returns the nearest facts first", func() {
				hits, err := idx.Search(ctx, "what does the cat like", 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(hits).To(HaveLen(2))
				Expect(hits[0].ID).To(Equal(uint64(0)))
				Expect(hits[0].Text).To(Equal("cat likes fish"))
				Expect(hits[1].ID).To(Equal(uint64(1)))
			})

			It("returns every fact when k exceeds the index size", func() {
				hits, err := idx.Search(ctx, "what does the cat like", 5)
				Expect(err).NotTo(HaveOccurred())
				Expect(hits).To(HaveLen(3))
			})

			It("is deterministic across calls", func() {
				first, err := idx.Search(ctx, "what does the cat like", 3)
				Expect(err).NotTo(HaveOccurred())
				second, err := idx.Search(ctx, "what does the cat like", 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(second).To(Equal(first))
			})

			It("surfaces query embedding failures", func() {
				embedder.Err = errors.New("offline")
				_, err := idx.Search(ctx, "what does the cat like", 3)
				Expect(err).To(MatchError(ContainSubstring("offline")))
			})
		})
	})

	Describe("Reconcile", func() {
		facts := []knowledge.Fact{
			fact(0, "cat", "likes", "fish"),
			fact(1, "dog", "likes", "bones"),
			fact(2, "bird", "likes", "seeds"),
		}

		It("appends the missing tail", func() {
			Expect(idx.Sync(ctx, facts[:1])).To(Succeed())

			added, err := idx.Reconcile(ctx, facts)
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(Equal(2))

			hits, err := idx.Search(ctx, "bird likes seeds", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].ID).To(Equal(uint64(2)))
		})

		It("does nothing when the index is in sync", func() {
			Expect(idx.Sync(ctx, facts)).To(Succeed())
			added, err := idx.Reconcile(ctx, facts)
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeZero())
		})

		It("reports an index holding facts past a gap", func() {
			Expect(driver.Add(ctx, []vector.Document{
				{ID: 0, Text: "cat likes fish", Embedding: []float32{1, 0, 0}},
				{ID: 2, Text: "bird likes seeds", Embedding: []float32{0, 0, 1}},
			})).To(Succeed())

			_, err := idx.Reconcile(ctx, facts)
			Expect(err).To(MatchError(index.ErrNotPrefix))
			Expect(embedder.Calls()).To(BeZero())
		})

		It("reports a gap even when the index is as long as the store", func() {
			Expect(driver.Add(ctx, []vector.Document{
				{ID: 0, Text: "cat likes fish", Embedding: []float32{1, 0, 0}},
				{ID: 1, Text: "dog likes bones", Embedding: []float32{0, 1, 0}},
				{ID: 3, Text: "fox likes eggs", Embedding: []float32{0, 1, 1}},
			})).To(Succeed())

			_, err := idx.Reconcile(ctx, facts)
			Expect(err).To(MatchError(index.ErrNotPrefix))

			n, aligned, err := idx.Aligned(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))
			Expect(aligned).To(BeFalse())
		})

		It("reports an index ahead of the store", func() {
			Expect(idx.Sync(ctx, facts)).To(Succeed())
			_, err := idx.Reconcile(ctx, facts[:2])
			Expect(err).To(MatchError(index.ErrAhead))
		})
	})
})
