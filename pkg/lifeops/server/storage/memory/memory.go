package memory

import (
	"sync"

	"github.com/jr0d/lifeops/pkg/lifeops/server/storage"
)

// MemTokenStorage keeps the record in process memory. Nothing survives a restart.
type MemTokenStorage struct {
	record *storage.TokenRecord
	saves  int
	mutex  sync.RWMutex
}

func New() *MemTokenStorage {
	return &MemTokenStorage{}
}

func (ts *MemTokenStorage) Load() (*storage.TokenRecord, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	if ts.record.Empty() {
		return nil, nil
	}
	return ts.record.Clone(), nil
}

func (ts *MemTokenStorage) Save(record *storage.TokenRecord) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	ts.record = record.Clone()
	ts.saves++
	return nil
}

func (ts *MemTokenStorage) Clear() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	ts.record = nil
	ts.saves++
	return nil
}

// Saves returns how many times the state was written.
func (ts *MemTokenStorage) Saves() int {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	return ts.saves
}
