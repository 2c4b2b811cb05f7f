package ingestcmder

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewIngestCmd", func() {
	It("requires a file unless watching", func() {
		cmd := NewIngestCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"talk.json"})).To(Succeed())

		Expect(cmd.Flags().Set("watch", "incoming")).To(Succeed())
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
	})

	It("registers the knowledge base flags", func() {
		cmd := NewIngestCmd()
		for _, name := range []string{"model", "llm-provider", "vector-store-provider", "events-provider", "questions"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})

var _ = Describe("expand", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ingest-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.MkdirAll(filepath.Join(tmpDir, "dir", "sub"), 0o755)).To(Succeed())
		for _, name := range []string{"one.json", "dir/b.json", "dir/sub/a.json", "dir/notes.txt"} {
			Expect(os.WriteFile(filepath.Join(tmpDir, name), []byte("[]"), 0o644)).To(Succeed())
		}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("keeps files and scans directories for chunk files", func() {
		files, err := expand([]string{
			filepath.Join(tmpDir, "one.json"),
			filepath.Join(tmpDir, "dir"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{
			filepath.Join(tmpDir, "one.json"),
			filepath.Join(tmpDir, "dir", "b.json"),
			filepath.Join(tmpDir, "dir", "sub", "a.json"),
		}))
	})

	It("fails on missing paths", func() {
		_, err := expand([]string{filepath.Join(tmpDir, "missing.json")})
		Expect(err).To(HaveOccurred())
	})
})
