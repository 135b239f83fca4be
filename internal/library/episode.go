package library

import (
	"fmt"
	"strings"
	"time"
)

func findOrCreateEpisode(q querier, seriesID string, season, episode int) (*Episode, bool, error) {
	result, err := q.Exec(`
		INSERT INTO episodes (series_id, season, episode, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(series_id, season, episode) DO NOTHING`,
		seriesID, season, episode, time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert episode %s S%02dE%02d: %w", seriesID, season, episode, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	e, err := getEpisodeBySlot(q, seriesID, season, episode)
	if err != nil {
		return nil, false, err
	}
	return e, n > 0, nil
}

// FindOrCreateEpisode returns the episode for (seriesID, season, episode), creating it if absent.
// Reports whether a row was created. The series must exist (ErrConstraint otherwise).
func (s *Store) FindOrCreateEpisode(seriesID string, season, episode int) (*Episode, bool, error) {
	return findOrCreateEpisode(s.db, seriesID, season, episode)
}

// FindOrCreateEpisode returns or creates an episode within a transaction.
func (t *Tx) FindOrCreateEpisode(seriesID string, season, episode int) (*Episode, bool, error) {
	return findOrCreateEpisode(t.tx, seriesID, season, episode)
}

func getEpisodeBySlot(q querier, seriesID string, season, episode int) (*Episode, error) {
	e := &Episode{}
	err := q.QueryRow(`
		SELECT id, series_id, season, episode, added_at
		FROM episodes WHERE series_id = ? AND season = ? AND episode = ?`,
		seriesID, season, episode,
	).Scan(&e.ID, &e.SeriesID, &e.Season, &e.Episode, &e.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("get episode %s S%02dE%02d: %w", seriesID, season, episode, mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisode retrieves an episode by series and slot.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) GetEpisode(seriesID string, season, episode int) (*Episode, error) {
	return getEpisodeBySlot(s.db, seriesID, season, episode)
}

// ListEpisodes returns episodes matching the filter, ordered by season then episode.
func (s *Store) ListEpisodes(f EpisodeFilter) ([]*Episode, error) {
	var conditions []string
	var args []any
	if f.SeriesID != nil {
		conditions = append(conditions, "series_id = ?")
		args = append(args, *f.SeriesID)
	}
	if f.Season != nil {
		conditions = append(conditions, "season = ?")
		args = append(args, *f.Season)
	}

	query := `SELECT id, series_id, season, episode, added_at FROM episodes`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY series_id, season, episode"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Episode
	for rows.Next() {
		e := &Episode{}
		if err := rows.Scan(&e.ID, &e.SeriesID, &e.Season, &e.Episode, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return results, nil
}
