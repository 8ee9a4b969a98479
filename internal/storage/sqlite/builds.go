package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ainews/internal/storage"
)

type buildStore struct {
	db *sql.DB
}

func newBuildStore(db *sql.DB) storage.BuildStore {
	return &buildStore{db: db}
}

func (s *buildStore) RecordBuild(ctx context.Context, record storage.BuildRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, started_at, finished_at, output_path, content_hash, highlights, links, used_fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.StartedAt.UTC(), record.FinishedAt.UTC(), record.OutputPath, record.ContentHash,
		record.Highlights, record.Links, record.UsedFallback)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	for i, src := range record.Sources {
		errText := sql.NullString{String: src.Error, Valid: src.Error != ""}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_sources (build_id, position, source, url, status, items, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, record.ID, i, src.Source, src.URL, src.Status, src.Items, errText, src.DurationMS)
		if err != nil {
			return fmt.Errorf("failed to insert build source %s: %w", src.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build: %w", err)
	}

	return nil
}

func (s *buildStore) ListRecentBuilds(ctx context.Context, limit int) ([]storage.BuildRecord, error) {
	query := `
		SELECT id, started_at, finished_at, output_path, content_hash, highlights, links, used_fallback
		FROM builds
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	records := make([]storage.BuildRecord, 0, limit)
	for rows.Next() {
		var record storage.BuildRecord
		err := rows.Scan(
			&record.ID,
			&record.StartedAt,
			&record.FinishedAt,
			&record.OutputPath,
			&record.ContentHash,
			&record.Highlights,
			&record.Links,
			&record.UsedFallback,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	for i := range records {
		sources, err := s.listSources(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Sources = sources
	}

	return records, nil
}

func (s *buildStore) listSources(ctx context.Context, buildID string) ([]storage.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, url, status, items, error, duration_ms
		FROM build_sources
		WHERE build_id = ?
		ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query build sources: %w", err)
	}
	defer rows.Close()

	var sources []storage.SourceRecord
	for rows.Next() {
		var src storage.SourceRecord
		var errText sql.NullString
		if err := rows.Scan(&src.Source, &src.URL, &src.Status, &src.Items, &errText, &src.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan build source: %w", err)
		}
		if errText.Valid {
			src.Error = errText.String
		}
		sources = append(sources, src)
	}

	return sources, rows.Err()
}

func (s *buildStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()

	slog.Debug("Deleting builds older than cutoff", "age", age, "cutoff", cutoff.Format(time.RFC3339))
	result, err := s.db.ExecContext(ctx, `DELETE FROM builds WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old builds: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	slog.Debug("Deleted old builds", "count", rows)
	return rows, nil
}
