package marketplace

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when a sale with the given ID is not stored.
var ErrNotFound = errors.New("sale not found")

// ErrInvalidID is returned when trying to store a sale with a zero ID.
var ErrInvalidID = errors.New("invalid sale ID")

// Storage is the main interface for the sale ledger.
type Storage interface {
	Set(sale *Sale) error
	Read(id uint64) (*Sale, error)
	// LastID returns the highest sale id ever stored, 0 for an empty ledger.
	LastID() (uint64, error)
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu   sync.RWMutex
	m    map[uint64]*Sale
	last uint64
}

// NewLocalStorage instantiates a new LocalStorage with an empty ledger.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[uint64]*Sale{},
	}
}

// Set stores a copy of the sale. Returns ErrInvalidID for a zero ID.
func (l *LocalStorage) Set(sale *Sale) error {
	if sale.ID == 0 {
		return ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[sale.ID] = sale.clone()
	if sale.ID > l.last {
		l.last = sale.ID
	}
	return nil
}

// Read retrieves a copy of a sale by ID. Returns ErrNotFound if absent.
func (l *LocalStorage) Read(id uint64) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// LastID returns the highest stored sale id.
func (l *LocalStorage) LastID() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last, nil
}
