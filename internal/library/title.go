package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const titleColumns = `t.id, t.kind, t.name, t.year, t.poster_url, t.genres, t.added_at`

func scanTitle(rs rowScanner, extra ...any) (*Title, error) {
	t := &Title{}
	var year sql.NullInt64
	var genres string
	dest := append([]any{&t.ID, &t.Kind, &t.Name, &year, &t.PosterURL, &genres, &t.AddedAt}, extra...)
	if err := rs.Scan(dest...); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		t.Year = &y
	}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &t.Genres); err != nil {
			return nil, fmt.Errorf("decode genres for %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func addTitleIfAbsent(q querier, t *Title) (bool, error) {
	if t.ID == "" {
		return false, errors.New("title id is required")
	}
	if !t.Kind.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}

	genres := t.Genres
	if genres == nil {
		genres = []string{}
	}
	encoded, err := json.Marshal(genres)
	if err != nil {
		return false, fmt.Errorf("encode genres: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.Exec(`
		INSERT INTO titles (id, kind, name, year, poster_url, genres, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID, t.Kind, t.Name, t.Year, t.PosterURL, string(encoded), now,
	)
	if err != nil {
		return false, fmt.Errorf("insert title %s: %w", t.ID, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	t.AddedAt = now
	return true, nil
}

// AddTitleIfAbsent inserts t unless a title with the same id exists.
// The first writer wins; an existing row is never updated.
// Reports whether a row was created.
func (s *Store) AddTitleIfAbsent(t *Title) (bool, error) { return addTitleIfAbsent(s.db, t) }

// AddTitleIfAbsent inserts t within a transaction unless it already exists.
func (t *Tx) AddTitleIfAbsent(title *Title) (bool, error) { return addTitleIfAbsent(t.tx, title) }

func getTitle(q querier, id string) (*Title, error) {
	t, err := scanTitle(q.QueryRow(`SELECT `+titleColumns+` FROM titles t WHERE t.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get title %s: %w", id, mapSQLiteError(err))
	}
	return t, nil
}

// GetTitle retrieves a title by external id.
// Returns ErrNotFound if the title does not exist.
func (s *Store) GetTitle(id string) (*Title, error) { return getTitle(s.db, id) }

// GetTitle retrieves a title by external id within a transaction.
func (t *Tx) GetTitle(id string) (*Title, error) { return getTitle(t.tx, id) }

func titleWhere(f TitleFilter) (string, []any) {
	var conditions []string
	var args []any
	if f.Kind != nil {
		conditions = append(conditions, "t.kind = ?")
		args = append(args, *f.Kind)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func listTitles(q querier, f TitleFilter) ([]*Title, error) {
	where, args := titleWhere(f)
	query := `SELECT ` + titleColumns + ` FROM titles t` + where + ` ORDER BY t.name, t.id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return results, nil
}

// ListTitles returns titles matching the filter, ordered by name.
func (s *Store) ListTitles(f TitleFilter) ([]*Title, error) { return listTitles(s.db, f) }

// ListTitles returns titles matching the filter within a transaction.
func (t *Tx) ListTitles(f TitleFilter) ([]*Title, error) { return listTitles(t.tx, f) }

// ListTitleSummaries returns titles with their file count and total size, ordered by name.
func (s *Store) ListTitleSummaries(f TitleFilter) ([]*TitleSummary, error) {
	where, args := titleWhere(f)
	query := `
		SELECT ` + titleColumns + `,
			COUNT(f.id), COALESCE(SUM(f.size_bytes), 0)
		FROM titles t
		LEFT JOIN files f ON f.movie_id = t.id
			OR f.episode_id IN (SELECT e.id FROM episodes e WHERE e.series_id = t.id)` +
		where + `
		GROUP BY t.id
		ORDER BY t.name, t.id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list title summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*TitleSummary
	for rows.Next() {
		var count int
		var total int64
		t, err := scanTitle(rows, &count, &total)
		if err != nil {
			return nil, fmt.Errorf("scan title summary: %w", err)
		}
		results = append(results, &TitleSummary{Title: *t, FileCount: count, TotalBytes: total})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate title summaries: %w", err)
	}
	return results, nil
}
