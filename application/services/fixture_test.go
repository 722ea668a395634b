package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/infrastructure/persistence/dynamodb"
	dynamomocks "minicourse-backend/infrastructure/persistence/dynamodb/mocks"
	storagemocks "minicourse-backend/infrastructure/storage/mocks"
)

var testNow = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

type fixture struct {
	api         *dynamomocks.MemoryAPI
	store       *storagemocks.URLStore
	minicourses *persistence.Repository[minicourse.Minicourse]
	categories  *persistence.Repository[minicourse.Category]
	videos      *persistence.Repository[minicourse.Video]
}

func newRepo[T any](api dynamodb.API, store persistence.ObjectStore, resource, table string) *persistence.Repository[T] {
	return persistence.NewRepository[T](resource, dynamodb.NewTable(api, table, nil), nil,
		persistence.WithObjectStore[T](store),
		persistence.WithClock[T](func() time.Time { return testNow }),
	)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := dynamomocks.NewMemoryAPI()
	store := storagemocks.NewURLStore()
	return &fixture{
		api:         api,
		store:       store,
		minicourses: newRepo[minicourse.Minicourse](api, store, "minicourse", "minicourses"),
		categories:  newRepo[minicourse.Category](api, store, "category", "categories"),
		videos:      newRepo[minicourse.Video](api, store, "video", "videos"),
	}
}

func (f *fixture) seedCategory(t *testing.T, c minicourse.Category) {
	t.Helper()
	if err := f.categories.Save(context.Background(), &c, false); err != nil {
		t.Fatalf("seed category: %v", err)
	}
}

func (f *fixture) seedMinicourse(t *testing.T, m minicourse.Minicourse) {
	t.Helper()
	if err := f.minicourses.Save(context.Background(), &m, false); err != nil {
		t.Fatalf("seed minicourse: %v", err)
	}
}

func (f *fixture) seedVideo(t *testing.T, v minicourse.Video) {
	t.Helper()
	if err := f.videos.Save(context.Background(), &v, false); err != nil {
		t.Fatalf("seed video: %v", err)
	}
}

// colliding reports the first n inserts as taken ids.
type colliding[T any] struct {
	*persistence.Repository[T]
	remaining int
	saves     int
}

func (c *colliding[T]) Save(ctx context.Context, record *T, update bool) error {
	c.saves++
	if !update && c.remaining != 0 {
		c.remaining--
		return fmt.Errorf("put failed: %w", persistence.ErrAlreadyExists)
	}
	return c.Repository.Save(ctx, record, update)
}
