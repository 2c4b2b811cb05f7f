package initcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/cake/cmd/cake/init"
	"github.com/papercomputeco/cake/pkg/config"
)

var _ = Describe("Init command", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cake-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates a local .cake directory", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".cake"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("is idempotent", func() {
		for range 2 {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{})
			Expect(cmd.Execute()).To(Succeed())
		}
	})

	It("writes a preset config", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "anthropic"})
		Expect(cmd.Execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".cake", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("anthropic"))
	})

	It("rejects unknown presets before creating anything", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "faiss"})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("unknown preset")))

		_, err := os.Stat(filepath.Join(tmpDir, ".cake"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
