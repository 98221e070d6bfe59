package database

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

const saveImportRun = `
INSERT INTO import_runs (id, kind, file_name, building_code, academic_year, format, processed, error_count, failed, errors, started_at, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (q *Queries) SaveImportRun(ctx context.Context, r domain.ImportRun) error {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := q.db.Exec(ctx, saveImportRun,
		r.ID, r.Kind, r.FileName, r.BuildingCode, r.AcademicYear, r.Format,
		r.Processed, r.ErrorCount, r.Failed, errs, r.StartedAt, r.Duration.Milliseconds())
	if err != nil {
		return errors.Wrap(err, "save import run")
	}
	return nil
}

const listImportRuns = `
SELECT id, kind, file_name, building_code, academic_year, format, processed, error_count, failed, errors, started_at, duration_ms
FROM import_runs
ORDER BY started_at DESC
LIMIT $1`

func (q *Queries) ListImportRuns(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.Query(ctx, listImportRuns, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list import runs")
	}
	defer rows.Close()

	var items []domain.ImportRun
	for rows.Next() {
		var (
			r  domain.ImportRun
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.FileName, &r.BuildingCode, &r.AcademicYear, &r.Format,
			&r.Processed, &r.ErrorCount, &r.Failed, &r.Errors, &r.StartedAt, &ms); err != nil {
			return nil, errors.Wrap(err, "scan import run")
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) PurgeImportRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM import_runs WHERE started_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "purge import runs")
	}
	return tag.RowsAffected(), nil
}
