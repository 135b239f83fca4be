package library

import (
	"database/sql"
	"testing"

	"github.com/vmunix/remotefiles/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := migrations.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

func addTestMovie(t *testing.T, store *Store, id, name string, year int) *Title {
	t.Helper()
	m := &Title{ID: id, Kind: KindMovie, Name: name, Year: ptr(year), Genres: []string{"Drama"}}
	if _, err := store.AddTitleIfAbsent(m); err != nil {
		t.Fatalf("add movie: %v", err)
	}
	return m
}

func addTestSeries(t *testing.T, store *Store, id, name string) *Title {
	t.Helper()
	s := &Title{ID: id, Kind: KindSeries, Name: name}
	if _, err := store.AddTitleIfAbsent(s); err != nil {
		t.Fatalf("add series: %v", err)
	}
	return s
}
