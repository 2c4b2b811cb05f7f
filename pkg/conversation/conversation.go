// Package conversation persists the chat turns exchanged through the
// request surface as a single JSON document.
package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
)

// Message is one recorded turn.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// LLMMessage strips the timestamp for use in a model prompt.
func (m Message) LLMMessage() llm.Message {
	return llm.Message{Role: m.Role, Content: m.Content}
}

// Log is the append-only conversation log.
type Log struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time
	mu     sync.Mutex
}

// NewLog returns a log persisted at path.
func NewLog(path string, logger *slog.Logger) (*Log, error) {
	if path == "" {
		return nil, errors.New("conversation log path is required")
	}
	return &Log{path: path, logger: logger, clock: time.Now}, nil
}

// Append records a message and returns it with its timestamp set.
func (l *Log) Append(ctx context.Context, role, content string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	messages, err := l.load()
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: l.clock().UTC().Format(time.RFC3339Nano),
	}
	messages = append(messages, msg)

	if err := l.write(messages); err != nil {
		return Message{}, err
	}

	l.logger.Debug("appended conversation message", "role", role, "total", len(messages))
	return msg, nil
}

// Recent returns up to the last n messages, oldest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Message, error) {
	messages, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}

// All returns every recorded message.
func (l *Log) All(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Log) load() ([]Message, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading conversation log %s: %w", l.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", knowledge.ErrStoreCorrupt, l.path, err)
	}
	return messages, nil
}

func (l *Log) write(messages []Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating conversation log directory: %w", err)
	}
	if err := renameio.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing conversation log %s: %w", l.path, err)
	}
	return nil
}
