package factscmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/factstore"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/logger"
)

var _ = Describe("Facts command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "facts-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("lists facts from the data directory", func() {
		store, err := factstore.New(filepath.Join(tmpDir, "knowledge.json"), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		start, end := 2.0, 4.5
		_, err = store.Propose(context.Background(), []knowledge.Triplet{
			{Subject: "earth", Predicate: "orbits", Object: "sun", Start: &start, End: &end},
		})
		Expect(err).NotTo(HaveOccurred())

		out := &bytes.Buffer{}
		cmd := NewFactsCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.PersistentFlags().Bool("debug", false, "")
		cmd.SetOut(out)
		cmd.SetArgs([]string{"--config-dir", tmpDir})
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("#0 earth orbits sun [2s-4.5s]"))
		Expect(out.String()).To(ContainSubstring("1 facts"))
	})

	It("prints an empty JSON array for an empty store", func() {
		out := &bytes.Buffer{}
		Expect(printJSON(out, nil)).To(Succeed())
		Expect(out.String()).To(MatchJSON(`[]`))
	})

	It("suggests how to add facts", func() {
		out := &bytes.Buffer{}
		printFacts(out, nil)
		Expect(out.String()).To(ContainSubstring("cake ingest"))
	})
})
