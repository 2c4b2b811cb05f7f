package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/cake/pkg/dotdir"
)

// Paths are the resolved locations of the knowledge base files.
type Paths struct {
	Dir          string
	Knowledge    string
	Index        string
	Conversation string
}

// ResolvePaths resolves the storage files of cfg. storage.dir wins over the
// .cake/ directory; absolute file names win over both.
func ResolvePaths(cfg *Config, configDir string) (*Paths, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		target, err := dotdir.NewManager().Target(configDir)
		if err != nil {
			return nil, err
		}
		dir = target
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	join := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}

	return &Paths{
		Dir:          dir,
		Knowledge:    join(cfg.Storage.KnowledgeFile),
		Index:        join(cfg.Storage.IndexFile),
		Conversation: join(cfg.Storage.ConversationFile),
	}, nil
}
