package storage

// TokenStore persists the single Token Record of the process.
type TokenStore interface {
	// Load returns nil, nil when nothing has been stored yet or the stored state is empty.
	Load() (*TokenRecord, error)
	// Save replaces the stored record as a whole.
	Save(record *TokenRecord) error
	// Clear persists the empty state.
	Clear() error
}
