// Package transcript reads the time-aligned text chunks produced by the
// transcription pipeline.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Chunk is a span of transcript text with its position in the source media,
// in seconds.
type Chunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type document struct {
	Chunks []Chunk `json:"chunks"`
}

// Load reads a chunk file. Both {"chunks": [...]} and a bare array are
// accepted.
func Load(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	chunks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return chunks, nil
}

// Parse decodes chunk JSON.
func Parse(data []byte) ([]Chunk, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var chunks []Chunk
		if err := json.Unmarshal(trimmed, &chunks); err != nil {
			return nil, err
		}
		return chunks, nil
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Chunks, nil
}

// ScanDir finds all chunk files (*.json) under dir, sorted by path.
func ScanDir(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsChunkFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// IsChunkFile reports whether path names a chunk file.
func IsChunkFile(path string) bool {
	return strings.HasSuffix(path, ".json")
}
