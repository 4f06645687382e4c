package materia

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the index as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a Store writing to path. Parent directories are created
// on first save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted index. A missing file, an unreadable file, or a
// payload without category buckets all return nil: persisted state is
// best-effort and never blocks startup.
func (s *Store) Load() *Index {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil
	}
	if idx.Categories == nil {
		return nil
	}
	return idx
}

// Save writes the index to disk, creating parent directories as needed.
func (s *Store) Save(idx *Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("materia: marshal index: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("materia: create data dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("materia: write index: %w", err)
	}
	return nil
}
