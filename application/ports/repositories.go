// Package ports declares what the application services need from storage
// and mail. infrastructure/persistence and infrastructure/email satisfy them.
package ports

import (
	"context"
	"time"

	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
)

// Store persists records of one type keyed by id.
type Store[T any] interface {
	// GetItemByID fails wrapping persistence.ErrNotFound when id is unknown
	GetItemByID(ctx context.Context, id string) (*T, error)

	// Query matches key equalities on the table or a secondary index
	Query(ctx context.Context, keys map[string]any, filters map[string]persistence.Filter, index string) ([]T, error)

	// Scan reads the whole table
	Scan(ctx context.Context, filters map[string]persistence.Filter) ([]T, error)

	// Save inserts, failing wrapping persistence.ErrAlreadyExists on a taken
	// id, or overwrites when update is set
	Save(ctx context.Context, record *T, update bool) error

	Delete(ctx context.Context, id string) error
}

// FileStore hands out presigned URLs for the files belonging to records.
type FileStore interface {
	PutPresignedURL(ctx context.Context, folder, object string, expire time.Duration) (string, error)
	GetPresignedURL(ctx context.Context, folder, object string, expire time.Duration) (string, error)
}

// MinicourseRepository stores minicourses and their thumbnails.
type MinicourseRepository interface {
	Store[minicourse.Minicourse]
	FileStore
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	Store[minicourse.Category]
}

// VideoRepository stores videos and their files.
type VideoRepository interface {
	Store[minicourse.Video]
	FileStore
}

// Mailer sends HTML mail.
type Mailer interface {
	SendHTML(ctx context.Context, source string, to []string, subject, html string) (string, error)

	// VerifyAddress starts verification of a source address
	VerifyAddress(ctx context.Context, address string) error
}

var (
	_ MinicourseRepository = (*persistence.Repository[minicourse.Minicourse])(nil)
	_ CategoryRepository   = (*persistence.Repository[minicourse.Category])(nil)
	_ VideoRepository      = (*persistence.Repository[minicourse.Video])(nil)
)
