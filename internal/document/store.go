package document

import (
	"context"
	"sync"

	"solnav/internal/core/errors"
)

// FileReader supplies on-disk content for paths without an editor overlay.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Store is the session context for open editors: overlay content keyed by
// path takes precedence over what is on disk. A Store is owned by one host
// session and passed explicitly to queries; there is no ambient current
// document.
type Store struct {
	reader FileReader

	mu   sync.RWMutex
	open map[string]*Buffer
}

func NewStore(reader FileReader) *Store {
	return &Store{reader: reader, open: make(map[string]*Buffer)}
}

// Put installs or replaces the overlay for path.
func (s *Store) Put(path string, content []byte) *Buffer {
	b := NewBuffer(path, content)
	s.mu.Lock()
	s.open[path] = b
	s.mu.Unlock()
	return b
}

// Forget drops the overlay for path; subsequent opens read from disk again.
func (s *Store) Forget(path string) {
	s.mu.Lock()
	delete(s.open, path)
	s.mu.Unlock()
}

// Get returns the overlay buffer for path, or nil.
func (s *Store) Get(path string) *Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[path]
}

// Open returns the overlay buffer when one exists, and otherwise reads the
// file from disk. Disk reads are not cached: each call observes the current
// file content.
func (s *Store) Open(ctx context.Context, path string) (*Buffer, error) {
	if b := s.Get(path); b != nil {
		return b, nil
	}
	content, err := s.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "document unavailable")
	}
	return NewBuffer(path, content), nil
}
