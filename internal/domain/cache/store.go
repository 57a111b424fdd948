package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/goccy/go-yaml"
)

// Store persists whole cache snapshots by name.
type Store interface {
	// Load decodes the named snapshot into v. A snapshot that was never
	// saved yields an error matching fs.ErrNotExist.
	Load(name string, v any) error
	Save(name string, v any) error
}

// FileStore keeps one YAML file per snapshot in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Load reads and decodes a snapshot
func (s *FileStore) Load(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Save encodes a snapshot and replaces the file atomically
func (s *FileStore) Save(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return filesystem.WriteFileAtomic(s.path(name), data, 0o644)
}

// MemoryStore keeps snapshots in memory. Used when no data directory is
// available and by tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load decodes a previously saved snapshot
func (s *MemoryStore) Load(name string, v any) error {
	s.mu.Lock()
	raw, ok := s.data[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("snapshot %s: %w", name, fs.ErrNotExist)
	}
	return yaml.Unmarshal(raw, v)
}

// Save encodes and keeps a snapshot
func (s *MemoryStore) Save(name string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[name] = raw
	s.mu.Unlock()
	return nil
}

// Raw returns the encoded snapshot, for inspection in tests
func (s *MemoryStore) Raw(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[name]
	return raw, ok
}

// SetRaw replaces an encoded snapshot
func (s *MemoryStore) SetRaw(name string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = raw
}

// loadSnapshot decodes the named snapshot as flavor -> key -> raw entry.
// Entries are decoded one by one later so a single malformed entry does not
// discard the rest.
func loadSnapshot(store Store, name string) (map[string]map[string]any, error) {
	var raw map[string]map[string]any
	if err := store.Load(name, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// decodeEntry converts one raw entry into out.
func decodeEntry(raw any, out any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
