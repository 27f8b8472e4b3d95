// Package store persists uploaded documents and their project metadata.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/veridoc/veridoc/internal/model"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// Store is the document persistence surface
type Store interface {
	// Create inserts a document and returns it with ID and timestamp set
	Create(ctx context.Context, title, description, content string) (*model.Document, error)

	// Get returns a document by ID
	Get(ctx context.Context, id int64) (*model.Document, error)

	// List returns all documents, newest first
	List(ctx context.Context) ([]model.Document, error)

	// Close releases the underlying connection
	Close()
}

// MemoryStore keeps documents in process memory. Used by tests and when no
// database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	docs   map[int64]model.Document
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		docs:   make(map[int64]model.Document),
	}
}

// Create inserts a document
func (s *MemoryStore) Create(ctx context.Context, title, description, content string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.Document{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	s.docs[doc.ID] = doc
	s.nextID++

	return &doc, nil
}

// Get returns a document by ID
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// List returns all documents, newest first
func (s *MemoryStore) List(ctx context.Context) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]model.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID > docs[j].ID
	})
	return docs, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() {}
