// Package simulator implements a development stand-in for the hosted
// document service: an in-memory document store, a snapshot fan-out hub,
// and HTTP handlers for the sign-in, listen, and administrative surfaces.
package simulator

import (
	"sync"

	"github.com/google/uuid"
)

// Document is one stored entry: the assigned identifier plus raw JSON
// field data.
type Document struct {
	ID     string
	Fields []byte
}

// Store keeps document collections in memory, keyed by collection path.
// Documents preserve insertion order, which is the order snapshots are
// delivered in.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{collections: make(map[string][]Document)}
}

// Snapshot returns a copy of the collection at path in insertion order.
func (s *Store) Snapshot(path string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[path]
	out := make([]Document, len(docs))
	copy(out, docs)
	return out
}

// Insert adds a document with a freshly assigned identifier and returns it.
func (s *Store) Insert(path string, fields []byte) Document {
	doc := Document{ID: uuid.New().String(), Fields: fields}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[path] = append(s.collections[path], doc)
	return doc
}

// Update replaces the fields of the document with the given id, keeping
// its position in the collection. It reports whether the document existed.
func (s *Store) Update(path, id string, fields []byte) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[path]
	for i := range docs {
		if docs[i].ID == id {
			docs[i].Fields = fields
			return docs[i], true
		}
	}
	return Document{}, false
}

// Delete removes the document with the given id, reporting whether it
// existed.
func (s *Store) Delete(path, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[path]
	for i := range docs {
		if docs[i].ID == id {
			s.collections[path] = append(docs[:i:i], docs[i+1:]...)
			return true
		}
	}
	return false
}
