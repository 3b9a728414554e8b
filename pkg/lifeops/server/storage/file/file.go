package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jr0d/lifeops/pkg/lifeops/server/storage"
)

// Store persists the record as a flat JSON object at Path. Every write replaces the whole
// file through a temp file and rename, so readers see either the old or the new record.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (*storage.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading token file %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	record := &storage.TokenRecord{}
	if err = json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("error parsing token file %s: %w", s.path, err)
	}
	if record.Empty() {
		return nil, nil
	}
	return record, nil
}

func (s *Store) Save(record *storage.TokenRecord) error {
	if record == nil {
		return s.Clear()
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal token record: %w", err)
	}
	return s.write(data)
}

func (s *Store) Clear() error {
	return s.write([]byte("{}"))
}

func (s *Store) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("error creating token directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp token file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error setting token file mode: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing token file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error syncing token file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing token file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("error replacing token file %s: %w", s.path, err)
	}
	committed = true
	return nil
}
