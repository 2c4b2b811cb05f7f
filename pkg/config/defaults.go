package config

const (
	defaultKnowledgeFile    = "knowledge.json"
	defaultIndexFile        = "knowledge.index"
	defaultConversationFile = "conversation.json"

	defaultProvider      = "ollama"
	defaultOllamaTarget  = "http://localhost:11434"
	defaultLLMModel      = "llama3.2"
	defaultSystemMessage = "answer concisely and say so when the retrieved knowledge does not cover the question."

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultVectorProvider = "flat"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultHistoryWindow = 3
	defaultTopK          = 5

	defaultEventsProvider = "nop"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "cake.knowledge"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			KnowledgeFile:    defaultKnowledgeFile,
			IndexFile:        defaultIndexFile,
			ConversationFile: defaultConversationFile,
		},
		LLM: LLMConfig{
			Provider:      defaultProvider,
			Target:        defaultOllamaTarget,
			Model:         defaultLLMModel,
			SystemMessage: defaultSystemMessage,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Chat: ChatConfig{
			HistoryWindow: defaultHistoryWindow,
			TopK:          defaultTopK,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
	}
}
