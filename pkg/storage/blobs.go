package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrBlobNotFound is returned for unknown or already deleted blobs.
var ErrBlobNotFound = errors.New("blob not found")

// Blob is an immutable in-memory payload.
type Blob struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// MemoryStorage keeps preview payloads in process memory. Nothing is written to disk;
// a deleted blob is gone for good.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]Blob
	bytes int64
}

// NewMemoryStorage returns an empty blob registry.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]Blob)}
}

// Save stores data under id. Ids are single-use: saving over a live id is an error.
func (s *MemoryStorage) Save(id, contentType string, data []byte) error {
	if id == "" {
		return fmt.Errorf("blob id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[id]; exists {
		return fmt.Errorf("blob %s already exists", id)
	}
	s.blobs[id] = Blob{ID: id, ContentType: contentType, Data: data, CreatedAt: time.Now().UTC()}
	s.bytes += int64(len(data))
	return nil
}

// Open returns a reader over the blob contents.
func (s *MemoryStorage) Open(id string) (io.ReadSeeker, Blob, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, Blob{}, ErrBlobNotFound
	}
	return bytes.NewReader(blob.Data), blob, nil
}

// Delete removes a blob. Deleting an unknown id reports ErrBlobNotFound so callers can
// detect double deletes.
func (s *MemoryStorage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[id]
	if !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	s.bytes -= int64(len(blob.Data))
	return nil
}

// Len returns the number of live blobs.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Bytes returns the total size of live blobs.
func (s *MemoryStorage) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
