package database

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// =============================================================================
// Stock
// =============================================================================

const stockColumns = `building_id, title_id, total, available, in_use, mesh_total, suuf_total, issued_to_students, in_cabinets, note, updated_at`

func scanStock(row pgx.Row, extra ...any) (domain.Stock, error) {
	var s domain.Stock
	dest := append([]any{&s.BuildingID, &s.TitleID, &s.Total, &s.Available, &s.InUse, &s.MeshTotal, &s.SuufTotal,
		&s.IssuedToStudents, &s.InCabinets, &s.Note, &s.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	return s, err
}

func (q *Queries) StockFor(ctx context.Context, buildingID, titleID int64) (domain.Stock, bool, error) {
	s, err := scanStock(q.db.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE building_id = $1 AND title_id = $2`, buildingID, titleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stock{}, false, nil
	}
	if err != nil {
		return domain.Stock{}, false, errors.Wrap(err, "get stock")
	}
	return s, true, nil
}

const saveStock = `
INSERT INTO stocks (building_id, title_id, total, available, in_use, mesh_total, suuf_total, issued_to_students, in_cabinets, note, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (building_id, title_id) DO UPDATE SET
    total              = EXCLUDED.total,
    available          = EXCLUDED.available,
    in_use             = EXCLUDED.in_use,
    mesh_total         = EXCLUDED.mesh_total,
    suuf_total         = EXCLUDED.suuf_total,
    issued_to_students = EXCLUDED.issued_to_students,
    in_cabinets        = EXCLUDED.in_cabinets,
    note               = EXCLUDED.note,
    updated_at         = now()`

func (q *Queries) SaveStock(ctx context.Context, s domain.Stock) error {
	_, err := q.db.Exec(ctx, saveStock,
		s.BuildingID, s.TitleID, s.Total, s.Available, s.InUse, s.MeshTotal, s.SuufTotal,
		s.IssuedToStudents, s.InCabinets, s.Note)
	if err != nil {
		return errors.Wrap(err, "save stock")
	}
	return nil
}

const stockByBuilding = `
SELECT s.building_id, s.title_id, s.total, s.available, s.in_use, s.mesh_total, s.suuf_total,
       s.issued_to_students, s.in_cabinets, s.note, s.updated_at,
       t.id, COALESCE(t.external_key, ''), COALESCE(t.isbn, ''), t.title, t.authors, t.publisher, t.year,
       t.grade, t.subject_id, t.approved_by_order, sub.name
FROM stocks s
JOIN book_titles t ON t.id = s.title_id
JOIN subjects sub ON sub.id = t.subject_id
WHERE s.building_id = $1
ORDER BY t.grade, lower(sub.name), lower(t.title)`

func (q *Queries) StockByBuilding(ctx context.Context, buildingID int64) ([]domain.StockLine, error) {
	rows, err := q.db.Query(ctx, stockByBuilding, buildingID)
	if err != nil {
		return nil, errors.Wrap(err, "list stock")
	}
	defer rows.Close()

	var items []domain.StockLine
	for rows.Next() {
		var (
			l domain.StockLine
			t = &l.Title
		)
		l.Stock, err = scanStock(rows,
			&t.ID, &t.ExternalKey, &t.ISBN, &t.Title, &t.Authors, &t.Publisher, &t.Year,
			&t.Grade, &t.SubjectID, &t.ApprovedByOrder, &l.Subject)
		if err != nil {
			return nil, errors.Wrap(err, "scan stock")
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// applyWriteOff decrements stock only when enough copies are free and
// records the write-off and its adjustment movement in the same statement.
const applyWriteOff = `
WITH updated AS (
    UPDATE stocks SET
        available  = available - $3,
        total      = GREATEST(0, total - $3),
        updated_at = now()
    WHERE building_id = $1 AND title_id = $2 AND available >= $3
    RETURNING ` + stockColumns + `
), logged AS (
    INSERT INTO write_offs (building_id, title_id, count, reason)
    SELECT building_id, title_id, $3, $4 FROM updated
), moved AS (
    INSERT INTO stock_movements (type, from_building_id, title_id, count, note)
    SELECT $5, building_id, title_id, $3, $6 FROM updated
)
SELECT ` + stockColumns + ` FROM updated`

func (q *Queries) ApplyWriteOff(ctx context.Context, w domain.WriteOff) (domain.Stock, error) {
	s, err := scanStock(q.db.QueryRow(ctx, applyWriteOff,
		w.BuildingID, w.TitleID, w.Count, w.Reason, string(domain.MovementAdjustment), domain.WriteOffNote(w.Reason)))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Stock{}, errors.Wrap(err, "apply write-off")
	}

	_, found, err := q.StockFor(ctx, w.BuildingID, w.TitleID)
	if err != nil {
		return domain.Stock{}, err
	}
	if !found {
		return domain.Stock{}, domain.ErrNoStock
	}
	return domain.Stock{}, domain.ErrInsufficientStock
}

// =============================================================================
// Curriculum
// =============================================================================

const upsertCurriculumItem = `
INSERT INTO curriculum_items (grade, subject_id, title_id, per_student)
VALUES ($1, $2, $3, $4)
ON CONFLICT (grade, subject_id, title_id) DO UPDATE SET per_student = EXCLUDED.per_student`

func (q *Queries) UpsertCurriculumItem(ctx context.Context, item domain.CurriculumItem) error {
	if _, err := q.db.Exec(ctx, upsertCurriculumItem, item.Grade, item.SubjectID, item.TitleID, item.PerStudent); err != nil {
		return errors.Wrap(err, "upsert curriculum item")
	}
	return nil
}

const curriculumLines = `
SELECT c.grade, c.subject_id, c.title_id, c.per_student, sub.name, t.title,
       COALESCE(t.isbn, ''), COALESCE(t.external_key, '')
FROM curriculum_items c
JOIN subjects sub ON sub.id = c.subject_id
JOIN book_titles t ON t.id = c.title_id
ORDER BY c.grade, c.subject_id, c.title_id`

func (q *Queries) CurriculumLines(ctx context.Context) ([]domain.CurriculumLine, error) {
	rows, err := q.db.Query(ctx, curriculumLines)
	if err != nil {
		return nil, errors.Wrap(err, "list curriculum")
	}
	defer rows.Close()

	var items []domain.CurriculumLine
	for rows.Next() {
		var l domain.CurriculumLine
		if err := rows.Scan(&l.Grade, &l.SubjectID, &l.TitleID, &l.PerStudent, &l.Subject, &l.Title, &l.ISBN, &l.ExternalKey); err != nil {
			return nil, errors.Wrap(err, "scan curriculum line")
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
