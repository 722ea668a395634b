// Package mocks provides a deterministic object store for tests.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// URLStore returns predictable URLs and records every call.
type URLStore struct {
	mu       sync.Mutex
	Contents map[string]string
	Calls    []Call
	Err      error
}

// Call is one recorded request.
type Call struct {
	Op     string
	Folder string
	Object string
	Expire time.Duration
}

// NewURLStore creates an empty store.
func NewURLStore() *URLStore {
	return &URLStore{Contents: make(map[string]string)}
}

// URL is what the store returns for op on folder/object.
func URL(op, folder, object string, expire time.Duration) string {
	return fmt.Sprintf("https://%s.example/%s/%s?expires=%d", op, folder, object, int(expire.Seconds()))
}

func (s *URLStore) record(op, folder, object string, expire time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, Call{Op: op, Folder: folder, Object: object, Expire: expire})
	return s.Err
}

func (s *URLStore) PutURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	if err := s.record("put", folder, object, expire); err != nil {
		return "", err
	}
	return URL("put", folder, object, expire), nil
}

func (s *URLStore) GetURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	if err := s.record("get", folder, object, expire); err != nil {
		return "", err
	}
	return URL("get", folder, object, expire), nil
}

func (s *URLStore) Content(ctx context.Context, folder, object string) (string, error) {
	if err := s.record("content", folder, object, 0); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.Contents[folder+"/"+object]
	if !ok {
		return "", fmt.Errorf("no object %s/%s", folder, object)
	}
	return content, nil
}
