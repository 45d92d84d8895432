// Package store holds the confirmed transaction sequence and its on-disk
// archive.
package store

import (
	"sync"

	"paisavoice/internal/domain"
)

// Store is the in-memory ordered collection of confirmed transactions, most
// recent first. It is append-only from the UI's perspective; Replace exists
// for bulk reload from the archive.
type Store struct {
	mu    sync.RWMutex
	items []domain.Transaction
}

func New() *Store {
	return &Store{}
}

// Prepend inserts a newly confirmed transaction at the head of the sequence.
func (s *Store) Prepend(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Transaction{tx}, s.items...)
}

// Replace swaps the full sequence, preserving the given order.
func (s *Store) Replace(txs []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Transaction(nil), txs...)
}

// All returns a copy of the sequence in order.
func (s *Store) All() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
