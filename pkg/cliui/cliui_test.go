package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/knowledge"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("reports success and returns the function's result", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Indexing", func() error { return nil })
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
			Expect(buf.String()).To(ContainSubstring("Indexing"))
		})

		It("marks failures", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Indexing", func() error { return errors.New("boom") })
			Expect(err).To(MatchError("boom"))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})
	})

	Describe("FormatDuration", func() {
		It("uses milliseconds below a second", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Provenance", func() {
		It("prefers the source time range", func() {
			t := knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c", Timestamp: "2024-11-03T09:30:00Z"}
			Expect(cliui.Provenance(t.WithRange(1.5, 9))).To(Equal("[1.5s-9s]"))
			Expect(cliui.Provenance(t)).To(Equal("[2024-11-03T09:30:00Z]"))
			Expect(cliui.Provenance(knowledge.Triplet{})).To(BeEmpty())
		})
	})

	Describe("FactLine", func() {
		It("includes the id and the triple", func() {
			line := cliui.FactLine(knowledge.Fact{ID: 7, Triplet: knowledge.Triplet{Subject: "engine", Predicate: "has", Object: "four cylinders"}})
			Expect(line).To(ContainSubstring("#7"))
			Expect(line).To(ContainSubstring("engine"))
			Expect(line).To(ContainSubstring("four cylinders"))
		})
	})

	Describe("RenderAnswer", func() {
		It("leaves output to non-terminals untouched", func() {
			var buf bytes.Buffer
			Expect(cliui.RenderAnswer(&buf, "**bold**")).To(Equal("**bold**"))
		})
	})
})
