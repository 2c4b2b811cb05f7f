package statuscmder

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

var _ = Describe("NewStatusCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewStatusCmd()
		Expect(cmd.Use).To(Equal("status"))
	})

	It("rejects any arguments", func() {
		cmd := NewStatusCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("printStatus", func() {
	var (
		cfg   *config.Config
		paths *config.Paths
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		paths = &config.Paths{Dir: "/tmp/kb"}
	})

	It("reports an in-sync index", func() {
		out := &bytes.Buffer{}
		printStatus(out, cfg, paths, knowledgebase.Stats{Facts: 3, Indexed: 3, InSync: true})

		Expect(out.String()).To(ContainSubstring("/tmp/kb"))
		Expect(out.String()).To(ContainSubstring("index in sync"))
		Expect(out.String()).To(ContainSubstring("ollama / llama3.2"))
	})

	It("points at reindex when the index lags", func() {
		out := &bytes.Buffer{}
		printStatus(out, cfg, paths, knowledgebase.Stats{Facts: 3, Indexed: 1})

		Expect(out.String()).To(ContainSubstring("cake reindex"))
	})
})
