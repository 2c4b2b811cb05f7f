package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent cake configuration stored as config.toml
// in the .cake/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version" mapstructure:"version"`
	Storage     StorageConfig     `toml:"storage" mapstructure:"storage"`
	LLM         LLMConfig         `toml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `toml:"embedding" mapstructure:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store" mapstructure:"vector_store"`
	API         APIConfig         `toml:"api" mapstructure:"api"`
	Client      ClientConfig      `toml:"client" mapstructure:"client"`
	Chat        ChatConfig        `toml:"chat" mapstructure:"chat"`
	Events      EventsConfig      `toml:"events" mapstructure:"events"`
}

// StorageConfig locates the knowledge base files. Relative file names are
// resolved against Dir, or the .cake/ directory when Dir is empty.
type StorageConfig struct {
	Dir              string `toml:"dir,omitempty" mapstructure:"dir"`
	KnowledgeFile    string `toml:"knowledge_file,omitempty" mapstructure:"knowledge_file"`
	IndexFile        string `toml:"index_file,omitempty" mapstructure:"index_file"`
	ConversationFile string `toml:"conversation_file,omitempty" mapstructure:"conversation_file"`
}

// LLMConfig selects the language model used for extraction, answers and
// evaluation.
type LLMConfig struct {
	Provider      string `toml:"provider,omitempty" mapstructure:"provider"`
	Target        string `toml:"target,omitempty" mapstructure:"target"`
	Model         string `toml:"model,omitempty" mapstructure:"model"`
	SystemMessage string `toml:"system_message,omitempty" mapstructure:"system_message"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty" mapstructure:"provider"`
	Target     string `toml:"target,omitempty" mapstructure:"target"`
	Model      string `toml:"model,omitempty" mapstructure:"model"`
	Dimensions uint   `toml:"dimensions,omitempty" mapstructure:"dimensions"`
}

// VectorStoreConfig holds vector store settings. Target is a database path
// for sqlite and a URL for chroma and qdrant; the flat index ignores it.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty" mapstructure:"provider"`
	Target   string `toml:"target,omitempty" mapstructure:"target"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// cake API server.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty" mapstructure:"api_target"`
}

// ChatConfig tunes the retrieval-conditioned responder.
type ChatConfig struct {
	HistoryWindow uint `toml:"history_window,omitempty" mapstructure:"history_window"`
	TopK          uint `toml:"top_k,omitempty" mapstructure:"top_k"`
}

// EventsConfig selects where knowledge events are published.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty" mapstructure:"provider"`
	Brokers  string `toml:"brokers,omitempty" mapstructure:"brokers"`
	Topic    string `toml:"topic,omitempty" mapstructure:"topic"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.dir":               stringKey(func(c *Config) *string { return &c.Storage.Dir }),
	"storage.knowledge_file":    stringKey(func(c *Config) *string { return &c.Storage.KnowledgeFile }),
	"storage.index_file":        stringKey(func(c *Config) *string { return &c.Storage.IndexFile }),
	"storage.conversation_file": stringKey(func(c *Config) *string { return &c.Storage.ConversationFile }),

	"llm.provider":       stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":         stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":          stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.system_message": stringKey(func(c *Config) *string { return &c.LLM.SystemMessage }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"chat.history_window": uintKey("chat.history_window", func(c *Config) *uint { return &c.Chat.HistoryWindow }),
	"chat.top_k":          uintKey("chat.top_k", func(c *Config) *uint { return &c.Chat.TopK }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
