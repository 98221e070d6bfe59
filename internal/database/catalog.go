package database

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// =============================================================================
// Buildings
// =============================================================================

const buildingByCode = `SELECT id, code, name FROM buildings WHERE code = $1`

func (q *Queries) BuildingByCode(ctx context.Context, code string) (domain.Building, bool, error) {
	var b domain.Building
	err := q.db.QueryRow(ctx, buildingByCode, code).Scan(&b.ID, &b.Code, &b.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Building{}, false, nil
	}
	if err != nil {
		return domain.Building{}, false, errors.Wrapf(err, "get building %q", code)
	}
	return b, true, nil
}

const listBuildings = `SELECT id, code, name FROM buildings ORDER BY id`

func (q *Queries) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	rows, err := q.db.Query(ctx, listBuildings)
	if err != nil {
		return nil, errors.Wrap(err, "list buildings")
	}
	defer rows.Close()

	var items []domain.Building
	for rows.Next() {
		var b domain.Building
		if err := rows.Scan(&b.ID, &b.Code, &b.Name); err != nil {
			return nil, errors.Wrap(err, "scan building")
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const upsertBuilding = `
INSERT INTO buildings (code, name) VALUES ($1, $2)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
RETURNING id, code, name`

func (q *Queries) UpsertBuilding(ctx context.Context, b domain.Building) (domain.Building, error) {
	var out domain.Building
	if err := q.db.QueryRow(ctx, upsertBuilding, b.Code, b.Name).Scan(&out.ID, &out.Code, &out.Name); err != nil {
		return domain.Building{}, errors.Wrapf(err, "upsert building %q", b.Code)
	}
	return out, nil
}

// =============================================================================
// Subjects
// =============================================================================

// The no-op update makes RETURNING yield the existing row on conflict.
const findOrCreateSubject = `
INSERT INTO subjects (name) VALUES ($1)
ON CONFLICT ((lower(name))) DO UPDATE SET name = subjects.name
RETURNING id, name`

func (q *Queries) FindOrCreateSubject(ctx context.Context, name string) (domain.Subject, error) {
	var s domain.Subject
	if err := q.db.QueryRow(ctx, findOrCreateSubject, strings.TrimSpace(name)).Scan(&s.ID, &s.Name); err != nil {
		return domain.Subject{}, errors.Wrapf(err, "find or create subject %q", name)
	}
	return s, nil
}

const listSubjects = `SELECT id, name FROM subjects ORDER BY id`

func (q *Queries) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := q.db.Query(ctx, listSubjects)
	if err != nil {
		return nil, errors.Wrap(err, "list subjects")
	}
	defer rows.Close()

	var items []domain.Subject
	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, errors.Wrap(err, "scan subject")
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// =============================================================================
// Titles
// =============================================================================

const titleColumns = `id, COALESCE(external_key, ''), COALESCE(isbn, ''), title, authors, publisher, year, grade, subject_id, approved_by_order`

func scanTitle(row pgx.Row) (domain.BookTitle, error) {
	var t domain.BookTitle
	err := row.Scan(&t.ID, &t.ExternalKey, &t.ISBN, &t.Title, &t.Authors, &t.Publisher, &t.Year, &t.Grade, &t.SubjectID, &t.ApprovedByOrder)
	return t, err
}

// keyPredicate returns the WHERE fragment matching key.Value as $3.
func keyPredicate(kind domain.KeyKind) (string, error) {
	switch kind {
	case domain.KeyISBN:
		return "isbn = $3", nil
	case domain.KeyExternal:
		return "external_key = $3", nil
	case domain.KeyTitle:
		return "lower(title) = lower($3)", nil
	}
	return "", errors.Errorf("unknown title key kind %d", kind)
}

func (q *Queries) FindTitle(ctx context.Context, key domain.TitleKey) (domain.BookTitle, bool, error) {
	pred, err := keyPredicate(key.Kind)
	if err != nil {
		return domain.BookTitle{}, false, err
	}
	if key.Value == "" && key.Kind != domain.KeyTitle {
		return domain.BookTitle{}, false, nil
	}

	sql := `SELECT ` + titleColumns + ` FROM book_titles
WHERE grade = $1 AND subject_id = $2 AND ` + pred + `
ORDER BY id LIMIT 1`
	t, err := scanTitle(q.db.QueryRow(ctx, sql, key.Grade, key.SubjectID, strings.TrimSpace(key.Value)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BookTitle{}, false, nil
	}
	if err != nil {
		return domain.BookTitle{}, false, errors.Wrapf(err, "find title by %s", key.Kind)
	}
	return t, true, nil
}

const upsertTitleByISBN = `
INSERT INTO book_titles (isbn, external_key, title, authors, publisher, year, grade, subject_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (isbn, grade, subject_id) WHERE isbn IS NOT NULL DO UPDATE SET
    title        = EXCLUDED.title,
    authors      = EXCLUDED.authors,
    publisher    = EXCLUDED.publisher,
    year         = EXCLUDED.year,
    external_key = COALESCE(EXCLUDED.external_key, book_titles.external_key)
RETURNING ` + titleColumns

const upsertTitleByExternalKey = `
INSERT INTO book_titles (external_key, isbn, title, authors, publisher, year, grade, subject_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (external_key, grade, subject_id) WHERE external_key IS NOT NULL DO UPDATE SET
    title     = EXCLUDED.title,
    authors   = EXCLUDED.authors,
    publisher = EXCLUDED.publisher,
    year      = EXCLUDED.year,
    isbn      = COALESCE(EXCLUDED.isbn, book_titles.isbn)
RETURNING ` + titleColumns

const updateTitleByName = `
UPDATE book_titles SET
    title        = $4,
    authors      = $5,
    publisher    = $6,
    year         = $7,
    isbn         = COALESCE($8, isbn),
    external_key = COALESCE($9, external_key)
WHERE id = (
    SELECT id FROM book_titles
    WHERE grade = $1 AND subject_id = $2 AND lower(title) = lower($3)
    ORDER BY id LIMIT 1
)
RETURNING ` + titleColumns

const insertTitle = `
INSERT INTO book_titles (isbn, external_key, title, authors, publisher, year, grade, subject_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + titleColumns

func (q *Queries) UpsertTitle(ctx context.Context, key domain.TitleKey, t domain.BookTitle) (domain.BookTitle, error) {
	var (
		out domain.BookTitle
		err error
	)
	switch key.Kind {
	case domain.KeyISBN:
		out, err = scanTitle(q.db.QueryRow(ctx, upsertTitleByISBN,
			key.Value, nullIfEmpty(t.ExternalKey), t.Title, t.Authors, t.Publisher, t.Year, key.Grade, key.SubjectID))
	case domain.KeyExternal:
		out, err = scanTitle(q.db.QueryRow(ctx, upsertTitleByExternalKey,
			key.Value, nullIfEmpty(t.ISBN), t.Title, t.Authors, t.Publisher, t.Year, key.Grade, key.SubjectID))
	case domain.KeyTitle:
		out, err = scanTitle(q.db.QueryRow(ctx, updateTitleByName,
			key.Grade, key.SubjectID, strings.TrimSpace(key.Value),
			t.Title, t.Authors, t.Publisher, t.Year, nullIfEmpty(t.ISBN), nullIfEmpty(t.ExternalKey)))
		if errors.Is(err, pgx.ErrNoRows) {
			out, err = scanTitle(q.db.QueryRow(ctx, insertTitle,
				nullIfEmpty(t.ISBN), nullIfEmpty(t.ExternalKey), t.Title, t.Authors, t.Publisher, t.Year, key.Grade, key.SubjectID))
		}
	default:
		return domain.BookTitle{}, errors.Errorf("unknown title key kind %d", key.Kind)
	}
	if err != nil {
		return domain.BookTitle{}, errors.Wrapf(err, "upsert title by %s", key.Kind)
	}
	return out, nil
}

func (q *Queries) TitleByID(ctx context.Context, id int64) (domain.BookTitle, bool, error) {
	t, err := scanTitle(q.db.QueryRow(ctx, `SELECT `+titleColumns+` FROM book_titles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BookTitle{}, false, nil
	}
	if err != nil {
		return domain.BookTitle{}, false, errors.Wrapf(err, "get title %d", id)
	}
	return t, true, nil
}

const setTitleApproval = `
UPDATE book_titles SET approved_by_order = $2
WHERE id = $1
RETURNING ` + titleColumns

func (q *Queries) SetTitleApproval(ctx context.Context, id int64, approved bool) (domain.BookTitle, bool, error) {
	t, err := scanTitle(q.db.QueryRow(ctx, setTitleApproval, id, approved))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BookTitle{}, false, nil
	}
	if err != nil {
		return domain.BookTitle{}, false, errors.Wrapf(err, "set approval of title %d", id)
	}
	return t, true, nil
}

func (q *Queries) CountTitles(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM book_titles`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count titles")
	}
	return n, nil
}
