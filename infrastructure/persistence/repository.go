// Package persistence provides the generic repository every handler stores
// its records through: one DynamoDB table plus, optionally, one S3 bucket.
package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"minicourse-backend/infrastructure/persistence/dynamodb"
)

// Lookup and insert failures wrap these, test with errors.Is.
var (
	ErrNotFound      = dynamodb.ErrNotFound
	ErrAlreadyExists = dynamodb.ErrAlreadyExists
	ErrNoBucket      = errors.New("repository has no bucket")
)

// Filter is a comparison on one non-key attribute.
type Filter = dynamodb.Filter

// ObjectStore hands out presigned URLs for bucket objects.
type ObjectStore interface {
	PutURL(ctx context.Context, folder, object string, expire time.Duration) (string, error)
	GetURL(ctx context.Context, folder, object string, expire time.Duration) (string, error)
	Content(ctx context.Context, folder, object string) (string, error)
}

// Stamper is implemented by records carrying audit fields.
type Stamper interface {
	Stamp(username string, at time.Time, update bool)
}

// Repository stores records of type T. The username of the current caller
// is injected before each request and stamped onto every write.
type Repository[T any] struct {
	resource string
	table    *dynamodb.Table
	store    ObjectStore
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	username string
}

// Option configures a Repository.
type Option[T any] func(*Repository[T])

// WithObjectStore attaches the bucket holding the records' files.
func WithObjectStore[T any](store ObjectStore) Option[T] {
	return func(r *Repository[T]) { r.store = store }
}

// WithClock replaces time.Now for audit stamps.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(r *Repository[T]) { r.now = now }
}

// NewRepository creates a repository for resource stored in table.
func NewRepository[T any](resource string, table *dynamodb.Table, logger *zap.Logger, opts ...Option[T]) *Repository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository[T]{
		resource: resource,
		table:    table,
		logger:   logger.With(zap.String("resource", resource)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetUsername records who is acting for the current request.
func (r *Repository[T]) SetUsername(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.username = username
}

// Username returns the last injected username.
func (r *Repository[T]) Username() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.username
}

// GetItemByID loads one record. A missing record wraps ErrNotFound.
func (r *Repository[T]) GetItemByID(ctx context.Context, id string) (*T, error) {
	var record T
	if err := r.table.Get(ctx, r.resource, id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetItem returns the first record matching keys and filters.
func (r *Repository[T]) GetItem(ctx context.Context, keys map[string]any, filters map[string]Filter) (*T, error) {
	records, err := r.Query(ctx, keys, filters, "")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, dynamodb.NotFound(r.resource, "")
	}
	return &records[0], nil
}

// Query returns all records matching the key equalities and filters on
// the table, or on index when given. No match is an empty slice.
func (r *Repository[T]) Query(ctx context.Context, keys map[string]any, filters map[string]Filter, index string) ([]T, error) {
	records := []T{}
	if err := r.table.Query(ctx, keys, filters, index, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Scan returns all records matching filters.
func (r *Repository[T]) Scan(ctx context.Context, filters map[string]Filter) ([]T, error) {
	records := []T{}
	if err := r.table.Scan(ctx, filters, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Save inserts record, or overwrites it by key when update is set. Inserting
// over an existing key wraps ErrAlreadyExists. Audit fields are stamped with
// the injected username.
func (r *Repository[T]) Save(ctx context.Context, record *T, update bool) error {
	username := r.Username()
	if s, ok := any(record).(Stamper); ok {
		s.Stamp(username, r.now(), update)
	}

	if err := r.table.Put(ctx, record, update); err != nil {
		return err
	}

	r.logger.Info("Record saved",
		zap.String("username", username),
		zap.Bool("update", update),
	)
	return nil
}

// Delete removes the record with id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	if err := r.table.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("Record deleted", zap.String("id", id), zap.String("username", r.Username()))
	return nil
}

// PutPresignedURL returns an upload URL for folder/object.
func (r *Repository[T]) PutPresignedURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	if r.store == nil {
		return "", ErrNoBucket
	}
	return r.store.PutURL(ctx, folder, object, expire)
}

// GetPresignedURL returns a download URL for folder/object.
func (r *Repository[T]) GetPresignedURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	if r.store == nil {
		return "", ErrNoBucket
	}
	return r.store.GetURL(ctx, folder, object, expire)
}

// GetObjectContent downloads folder/object as text.
func (r *Repository[T]) GetObjectContent(ctx context.Context, folder, object string) (string, error) {
	if r.store == nil {
		return "", ErrNoBucket
	}
	return r.store.Content(ctx, folder, object)
}
