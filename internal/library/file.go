package library

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const fileColumns = `f.id, f.path, f.movie_id, f.episode_id, f.resolution, f.size_bytes, f.added_at`

func scanFile(rs rowScanner) (*File, error) {
	f := &File{}
	var movieID, resolution sql.NullString
	var episodeID sql.NullInt64
	if err := rs.Scan(&f.ID, &f.Path, &movieID, &episodeID, &resolution, &f.SizeBytes, &f.AddedAt); err != nil {
		return nil, err
	}
	if movieID.Valid {
		f.MovieID = &movieID.String
	}
	if episodeID.Valid {
		f.EpisodeID = &episodeID.Int64
	}
	f.Resolution = resolution.String
	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func upsertFile(q querier, f *File) error {
	if err := f.Validate(); err != nil {
		return err
	}

	// On a path conflict the row is re-pointed at the new owner and the other owner cleared.
	err := q.QueryRow(`
		INSERT INTO files (path, movie_id, episode_id, resolution, size_bytes, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			movie_id = excluded.movie_id,
			episode_id = excluded.episode_id,
			resolution = excluded.resolution,
			size_bytes = excluded.size_bytes
		RETURNING id`,
		f.Path, f.MovieID, f.EpisodeID, nullString(f.Resolution), f.SizeBytes, time.Now().UTC(),
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, mapSQLiteError(err))
	}
	if err := q.QueryRow(`SELECT added_at FROM files WHERE id = ?`, f.ID).Scan(&f.AddedAt); err != nil {
		return fmt.Errorf("read file %d: %w", f.ID, mapSQLiteError(err))
	}
	return nil
}

// UpsertFile inserts f, or updates the existing row with the same path.
// Sets ID and AddedAt on the struct; AddedAt keeps its original value on update.
func (s *Store) UpsertFile(f *File) error { return upsertFile(s.db, f) }

// UpsertFile inserts or updates a file within a transaction.
func (t *Tx) UpsertFile(f *File) error { return upsertFile(t.tx, f) }

func getFileByPath(q querier, path string) (*File, error) {
	f, err := scanFile(q.QueryRow(`SELECT `+fileColumns+` FROM files f WHERE f.path = ?`, path))
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", path, mapSQLiteError(err))
	}
	return f, nil
}

// GetFileByPath retrieves a file by absolute path.
// Returns ErrNotFound if no file has that path.
func (s *Store) GetFileByPath(path string) (*File, error) { return getFileByPath(s.db, path) }

// GetFileByPath retrieves a file by path within a transaction.
func (t *Tx) GetFileByPath(path string) (*File, error) { return getFileByPath(t.tx, path) }

func kindCondition(kind Kind) (string, error) {
	switch kind {
	case KindMovie:
		return "f.movie_id IS NOT NULL", nil
	case KindSeries:
		return "f.episode_id IS NOT NULL", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

func queryFiles(q querier, query string, args ...any) ([]*File, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return results, nil
}

func listFiles(q querier, f FileFilter) ([]*File, error) {
	var conditions []string
	var args []any

	if f.Kind != nil {
		cond, err := kindCondition(*f.Kind)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if f.MovieID != nil {
		conditions = append(conditions, "f.movie_id = ?")
		args = append(args, *f.MovieID)
	}
	if f.EpisodeID != nil {
		conditions = append(conditions, "f.episode_id = ?")
		args = append(args, *f.EpisodeID)
	}

	query := `SELECT ` + fileColumns + ` FROM files f`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY f.id"
	return queryFiles(q, query, args...)
}

// ListFiles returns files matching the filter in insertion order.
func (s *Store) ListFiles(f FileFilter) ([]*File, error) { return listFiles(s.db, f) }

// ListFiles returns files matching the filter within a transaction.
func (t *Tx) ListFiles(f FileFilter) ([]*File, error) { return listFiles(t.tx, f) }

// MovieFiles returns the files of a movie in insertion order.
// An unknown movie yields an empty slice.
func (s *Store) MovieFiles(movieID string) ([]*File, error) {
	return listFiles(s.db, FileFilter{MovieID: &movieID})
}

// EpisodeFiles returns the files of one episode of a series in insertion order.
// An unknown series or slot yields an empty slice.
func (s *Store) EpisodeFiles(seriesID string, season, episode int) ([]*File, error) {
	return queryFiles(s.db, `
		SELECT `+fileColumns+`
		FROM files f
		JOIN episodes e ON e.id = f.episode_id
		WHERE e.series_id = ? AND e.season = ? AND e.episode = ?
		ORDER BY f.id`,
		seriesID, season, episode,
	)
}

// deleteBatchSize bounds the number of bound parameters per DELETE.
const deleteBatchSize = 500

func deleteStaleFiles(q querier, kind Kind, seen map[string]struct{}) ([]string, error) {
	cond, err := kindCondition(kind)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(`SELECT f.id, f.path FROM files f WHERE ` + cond + ` ORDER BY f.id`)
	if err != nil {
		return nil, fmt.Errorf("list %s files: %w", kind, err)
	}
	var ids []any
	var paths []string
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan file: %w", err)
		}
		if _, ok := seen[path]; !ok {
			ids = append(ids, id)
			paths = append(paths, path)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	_ = rows.Close()

	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		if _, err := q.Exec(`DELETE FROM files WHERE id IN (`+placeholders+`)`, batch...); err != nil {
			return nil, fmt.Errorf("delete stale %s files: %w", kind, mapSQLiteError(err))
		}
	}
	return paths, nil
}

// DeleteStaleFiles removes every file of the given kind whose path is not in seen,
// returning the deleted paths. Files of the other kind are never touched.
// An empty seen set deletes every file of that kind; callers guard against that.
func (s *Store) DeleteStaleFiles(kind Kind, seen map[string]struct{}) ([]string, error) {
	return deleteStaleFiles(s.db, kind, seen)
}

// DeleteStaleFiles removes stale files of one kind within a transaction.
func (t *Tx) DeleteStaleFiles(kind Kind, seen map[string]struct{}) ([]string, error) {
	return deleteStaleFiles(t.tx, kind, seen)
}
