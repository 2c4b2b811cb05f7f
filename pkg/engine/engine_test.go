package engine_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/credentials"
	"github.com/papercomputeco/cake/pkg/engine"
	"github.com/papercomputeco/cake/pkg/logger"
)

var _ = Describe("Open", func() {
	var (
		ctx    context.Context
		tmpDir string
		cfg    *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "engine-test-*")
		Expect(err).NotTo(HaveOccurred())

		cfg = config.NewDefaultConfig()
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
		GinkgoT().Setenv("OPENAI_API_KEY", "")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("opens an empty knowledge base under the config dir", func() {
		e, err := engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer e.Close()

		Expect(e.Paths.Knowledge).To(Equal(filepath.Join(tmpDir, "knowledge.json")))
		Expect(e.Paths.Index).To(Equal(filepath.Join(tmpDir, "knowledge.index")))
		Expect(e.Model).To(BeNil())

		stats, err := e.Base.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Facts).To(BeZero())
		Expect(stats.InSync).To(BeTrue())
	})

	It("builds the model-backed components on request", func() {
		e, err := engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, WithModel: true, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer e.Close()

		Expect(e.Model.Name()).To(Equal("llama3.2"))
		Expect(e.Extractor).NotTo(BeNil())
		Expect(e.Responder).NotTo(BeNil())
		Expect(e.Evaluator).NotTo(BeNil())
		Expect(e.HistoryWindow()).To(Equal(3))
	})

	It("requires an API key for hosted models", func() {
		cfg, err := config.PresetConfig("anthropic")
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, WithModel: true, Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("no API key for anthropic")))
	})

	It("uses stored credentials for hosted models", func() {
		mgr, err := credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

		cfg, err := config.PresetConfig("openai")
		Expect(err).NotTo(HaveOccurred())

		e, err := engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, WithModel: true, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer e.Close()
		Expect(e.Model.Name()).To(Equal("gpt-4o-mini"))
	})

	It("places the sqlite database in the storage dir by default", func() {
		cfg.VectorStore.Provider = "sqlite"

		e, err := engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer e.Close()

		Expect(filepath.Join(tmpDir, "knowledge.sqlite")).To(BeAnExistingFile())
	})

	It("rejects unknown providers", func() {
		cfg.VectorStore.Provider = "faiss"

		_, err := engine.Open(ctx, engine.Options{Config: cfg, ConfigDir: tmpDir, Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})
