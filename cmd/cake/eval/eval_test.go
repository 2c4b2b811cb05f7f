package evalcmder

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/eval"
)

var _ = Describe("Eval command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "eval-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("refuses an empty questions file before opening the model", func() {
		path := filepath.Join(tmpDir, "questions.json")
		Expect(eval.SaveQuestions(path, nil)).To(Succeed())

		cmd := NewEvalCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--questions", path, "--config-dir", tmpDir})
		Expect(cmd.Execute()).To(MatchError("no questions to evaluate"))
	})

	It("reports a missing questions file", func() {
		cmd := NewEvalCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--questions", filepath.Join(tmpDir, "missing.json"), "--config-dir", tmpDir})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("loading questions")))
	})

	It("prints the score summary", func() {
		out := &bytes.Buffer{}
		printSummary(out, eval.Summary{
			Model:          "llama3.2",
			TotalQuestions: 4,
			Scores:         eval.Scores{WithKB: 3, WithoutKB: 1},
			Accuracy:       eval.Accuracy{WithKB: "75.00%", WithoutKB: "25.00%"},
			Improvement:    "50.00%",
		})

		Expect(out.String()).To(ContainSubstring("75.00% (3 correct)"))
		Expect(out.String()).To(ContainSubstring("25.00% (1 correct)"))
		Expect(out.String()).To(ContainSubstring("50.00%"))
	})
})
