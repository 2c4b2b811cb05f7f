// Package engine assembles the cake components from configuration. It is
// the single place where the language model handle, the embedder, the vector
// driver and the stores are constructed, once per process.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/conversation"
	"github.com/papercomputeco/cake/pkg/credentials"
	embeddingutils "github.com/papercomputeco/cake/pkg/embeddings/utils"
	"github.com/papercomputeco/cake/pkg/eval"
	eventstreamutils "github.com/papercomputeco/cake/pkg/eventstream/utils"
	"github.com/papercomputeco/cake/pkg/extract"
	"github.com/papercomputeco/cake/pkg/factstore"
	"github.com/papercomputeco/cake/pkg/index"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
	"github.com/papercomputeco/cake/pkg/llm"
	llmutils "github.com/papercomputeco/cake/pkg/llm/utils"
	"github.com/papercomputeco/cake/pkg/responder"
	vectorutils "github.com/papercomputeco/cake/pkg/vector/utils"
)

const defaultSQLiteFile = "knowledge.sqlite"

// Options configures Open.
type Options struct {
	Config *config.Config

	// ConfigDir overrides the .cake/ directory.
	ConfigDir string

	// WithModel builds the language model and the components that need it.
	// Commands that only read the knowledge base leave it false.
	WithModel bool

	Logger *slog.Logger
}

// Engine holds the assembled components.
type Engine struct {
	Config *config.Config
	Paths  *config.Paths

	Base         *knowledgebase.Base
	Conversation *conversation.Log

	// Set only when opened WithModel.
	Model     llm.Model
	Extractor *extract.Extractor
	Responder *responder.Responder
	Questions *eval.Generator
	Evaluator *eval.Evaluator

	logger *slog.Logger
}

// Open builds the engine described by o.Config.
func Open(ctx context.Context, o Options) (*Engine, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	log := o.Logger

	paths, err := config.ResolvePaths(cfg, o.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage paths: %w", err)
	}

	store, err := factstore.New(paths.Knowledge, log)
	if err != nil {
		return nil, err
	}

	conv, err := conversation.NewLog(paths.Conversation, log)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	vectorTarget := cfg.VectorStore.Target
	if cfg.VectorStore.Provider == vectorutils.ProviderSQLite && vectorTarget == "" {
		vectorTarget = filepath.Join(paths.Dir, defaultSQLiteFile)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    vectorTarget,
		IndexPath:    paths.Index,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       log,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       log,
	})
	if err != nil {
		_ = errors.Join(embedder.Close(), driver.Close())
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	e := &Engine{
		Config:       cfg,
		Paths:        paths,
		Base:         knowledgebase.New(store, index.New(embedder, driver, log), publisher, log),
		Conversation: conv,
		logger:       log,
	}

	log.Debug("opened knowledge base",
		"dir", paths.Dir,
		"vector_store_provider", cfg.VectorStore.Provider,
		"embedding_provider", cfg.Embedding.Provider,
		"embedding_model", cfg.Embedding.Model,
		"events_provider", cfg.Events.Provider,
	)

	if !o.WithModel {
		return e, nil
	}

	if err := e.openModel(o.ConfigDir); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) openModel(configDir string) error {
	cfg := e.Config

	apiKey, err := resolveAPIKey(cfg.LLM.Provider, configDir)
	if err != nil {
		return err
	}

	model, err := llmutils.NewModel(&llmutils.NewModelOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		APIKey:       apiKey,
		Logger:       e.logger,
	})
	if err != nil {
		return fmt.Errorf("creating language model: %w", err)
	}

	e.Model = model
	e.Extractor = extract.New(model, e.logger)
	e.Responder = responder.New(e.Base, model, e.logger,
		responder.WithTopK(int(cfg.Chat.TopK)),
		responder.WithInstructions(cfg.LLM.SystemMessage),
	)
	e.Questions = eval.NewGenerator(model, e.logger)
	e.Evaluator = eval.NewEvaluator(e.Base, model, e.logger)

	e.logger.Debug("language model ready", "provider", cfg.LLM.Provider, "model", model.Name())
	return nil
}

// resolveAPIKey finds the key for hosted providers in the cake credentials
// file or the environment.
func resolveAPIKey(providerType, configDir string) (string, error) {
	if !credentials.IsSupportedProvider(providerType) {
		return "", nil
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	key, err := mgr.Resolve(providerType)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("no API key for %s: run 'cake auth %s' or set %s",
			providerType, providerType, credentials.EnvVarForProvider(providerType))
	}
	return key, nil
}

// HistoryWindow is the number of previous messages sent with each question.
func (e *Engine) HistoryWindow() int {
	return int(e.Config.Chat.HistoryWindow)
}

// Close releases the knowledge base.
func (e *Engine) Close() error {
	return e.Base.Close()
}
