package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
)

type testDoc struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestEntity_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:")

	doc := &testDoc{ID: "1", DisplayName: "Lobby Screen", Email: "a@example.com"}
	require.NoError(t, entity.Create(context.Background(), "1", doc))

	got, err := entity.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, doc.DisplayName, got.DisplayName)

	// Duplicate ID is rejected.
	err = entity.Create(context.Background(), "1", doc)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:")

	_, err := entity.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_IndexUniqueness(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:").
		WithIndex("email", func(d *testDoc) []string {
			return []string{d.Email}
		})

	require.NoError(t, entity.Create(context.Background(), "1",
		&testDoc{ID: "1", Email: "a@example.com"}))

	// Same email under a different ID conflicts.
	err := entity.Create(context.Background(), "2",
		&testDoc{ID: "2", Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// Lookup through the index finds the original.
	got, err := entity.GetByIndex(context.Background(), "email", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
}

func TestEntity_Update_MovesIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:").
		WithIndex("email", func(d *testDoc) []string {
			return []string{d.Email}
		})

	require.NoError(t, entity.Create(context.Background(), "1",
		&testDoc{ID: "1", Email: "old@example.com"}))

	require.NoError(t, entity.Update(context.Background(), "1",
		&testDoc{ID: "1", Email: "new@example.com"}))

	// Old index entry is gone, new one resolves.
	_, err := entity.GetByIndex(context.Background(), "email", "old@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := entity.GetByIndex(context.Background(), "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	// Updating a missing entity fails.
	err = entity.Update(context.Background(), "ghost", &testDoc{ID: "ghost"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Delete(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:").
		WithIndex("email", func(d *testDoc) []string {
			return []string{d.Email}
		})

	require.NoError(t, entity.Create(context.Background(), "1",
		&testDoc{ID: "1", Email: "a@example.com"}))
	require.NoError(t, entity.Delete(context.Background(), "1"))

	_, err := entity.Get(context.Background(), "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = entity.GetByIndex(context.Background(), "email", "a@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Idempotent.
	assert.NoError(t, entity.Delete(context.Background(), "1"))
}

func TestEntity_ListAll(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:").
		WithIndex("email", func(d *testDoc) []string {
			return []string{d.Email}
		})

	for i := range 3 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(context.Background(), id,
			&testDoc{ID: id, Email: fmt.Sprintf("u%d@example.com", i)}))
	}

	all, err := entity.ListAll(context.Background())
	require.NoError(t, err)
	// Index keys must not leak into the listing.
	assert.Len(t, all, 3)

	n, err := entity.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func seedFindPageDocs(t *testing.T, entity *store.Entity[testDoc]) {
	t.Helper()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"Lobby Screen", "Cafeteria Panel", "Lobby Annex", "Warehouse Door"}
	for i, name := range names {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(context.Background(), id, &testDoc{
			ID:          id,
			DisplayName: name,
			Email:       fmt.Sprintf("u%d@example.com", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestEntity_FindPage_Filter(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:")
	seedFindPageDocs(t, entity)

	desc := query.Normalize(query.Params{
		Filter: "lobby",
		Fields: "displayName",
	})

	page, err := entity.FindPage(context.Background(), desc)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalDocs)
	assert.Equal(t, 1, page.TotalPages)
	for _, doc := range page.Docs {
		assert.Contains(t, doc.DisplayName, "Lobby")
	}
}

func TestEntity_FindPage_SortAndOrder(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:")
	seedFindPageDocs(t, entity)

	t.Run("default is createdAt descending", func(t *testing.T) {
		page, err := entity.FindPage(context.Background(), query.Normalize(query.Params{}))
		require.NoError(t, err)
		require.Len(t, page.Docs, 4)
		assert.Equal(t, "Warehouse Door", page.Docs[0].DisplayName)
		assert.Equal(t, "Lobby Screen", page.Docs[3].DisplayName)
	})

	t.Run("explicit ascending name sort", func(t *testing.T) {
		page, err := entity.FindPage(context.Background(), query.Normalize(query.Params{
			Sort:  "displayName",
			Order: "1",
		}))
		require.NoError(t, err)
		require.Len(t, page.Docs, 4)
		assert.Equal(t, "Cafeteria Panel", page.Docs[0].DisplayName)
		assert.Equal(t, "Warehouse Door", page.Docs[3].DisplayName)
	})
}

func TestEntity_FindPage_Pagination(t *testing.T) {
	s := setupTestStore(t)
	entity := store.NewEntity[testDoc](s, "test:")
	seedFindPageDocs(t, entity)

	first, err := entity.FindPage(context.Background(), query.Normalize(query.Params{
		Sort: "displayName", Order: "1", Page: "1", Limit: "3",
	}))
	require.NoError(t, err)
	assert.Len(t, first.Docs, 3)
	assert.Equal(t, 4, first.TotalDocs)
	assert.Equal(t, 2, first.TotalPages)

	second, err := entity.FindPage(context.Background(), query.Normalize(query.Params{
		Sort: "displayName", Order: "1", Page: "2", Limit: "3",
	}))
	require.NoError(t, err)
	require.Len(t, second.Docs, 1)
	assert.Equal(t, "Warehouse Door", second.Docs[0].DisplayName)

	// A page past the end is empty, not an error.
	third, err := entity.FindPage(context.Background(), query.Normalize(query.Params{
		Page: "9", Limit: "3",
	}))
	require.NoError(t, err)
	assert.Empty(t, third.Docs)
	assert.NotNil(t, third.Docs)
}
