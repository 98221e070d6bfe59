package database

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// Both upserts read the previous headcount from a CTE, which sees the table
// as it was before the insert.

const upsertClassGroup = `
WITH prev AS (
    SELECT students FROM class_groups
    WHERE building_id = $1 AND grade = $2 AND letter = $3
)
INSERT INTO class_groups (building_id, grade, letter, students)
VALUES ($1, $2, $3, $4)
ON CONFLICT (building_id, grade, letter) DO UPDATE SET students = EXCLUDED.students
RETURNING (SELECT students FROM prev)`

func (q *Queries) UpsertClassGroup(ctx context.Context, g domain.ClassGroup) (*int, error) {
	var prev *int
	err := q.db.QueryRow(ctx, upsertClassGroup, g.BuildingID, g.Grade, domain.NormalizeLetter(g.Letter), g.Students).Scan(&prev)
	if err != nil {
		return nil, errors.Wrap(err, "upsert class group")
	}
	return prev, nil
}

const classGroups = `
SELECT building_id, grade, letter, students FROM class_groups
WHERE building_id = $1
ORDER BY grade, letter`

func (q *Queries) ClassGroups(ctx context.Context, buildingID int64) ([]domain.ClassGroup, error) {
	rows, err := q.db.Query(ctx, classGroups, buildingID)
	if err != nil {
		return nil, errors.Wrap(err, "list class groups")
	}
	defer rows.Close()

	var items []domain.ClassGroup
	for rows.Next() {
		var g domain.ClassGroup
		if err := rows.Scan(&g.BuildingID, &g.Grade, &g.Letter, &g.Students); err != nil {
			return nil, errors.Wrap(err, "scan class group")
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const upsertFutureClassGroup = `
WITH prev AS (
    SELECT students FROM future_class_groups
    WHERE building_id = $1 AND academic_year = $2 AND grade = $3 AND letter = $4
)
INSERT INTO future_class_groups (building_id, academic_year, grade, letter, students)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (building_id, academic_year, grade, letter) DO UPDATE SET students = EXCLUDED.students
RETURNING (SELECT students FROM prev)`

func (q *Queries) UpsertFutureClassGroup(ctx context.Context, g domain.FutureClassGroup) (*int, error) {
	var prev *int
	err := q.db.QueryRow(ctx, upsertFutureClassGroup,
		g.BuildingID, g.AcademicYear, g.Grade, domain.NormalizeLetter(g.Letter), g.Students).Scan(&prev)
	if err != nil {
		return nil, errors.Wrap(err, "upsert future class group")
	}
	return prev, nil
}

const futureClassGroups = `
SELECT building_id, academic_year, grade, letter, students FROM future_class_groups
WHERE building_id = $1 AND academic_year = $2
ORDER BY grade, letter`

func (q *Queries) FutureClassGroups(ctx context.Context, buildingID int64, academicYear int) ([]domain.FutureClassGroup, error) {
	rows, err := q.db.Query(ctx, futureClassGroups, buildingID, academicYear)
	if err != nil {
		return nil, errors.Wrap(err, "list future class groups")
	}
	defer rows.Close()

	var items []domain.FutureClassGroup
	for rows.Next() {
		var g domain.FutureClassGroup
		if err := rows.Scan(&g.BuildingID, &g.AcademicYear, &g.Grade, &g.Letter, &g.Students); err != nil {
			return nil, errors.Wrap(err, "scan future class group")
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const logEnrollmentChange = `
INSERT INTO enrollment_changes (scope, action, building_id, academic_year, grade, letter, old_students, new_students, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *Queries) LogEnrollmentChange(ctx context.Context, c domain.EnrollmentChange) error {
	_, err := q.db.Exec(ctx, logEnrollmentChange,
		string(c.Scope), c.Action, c.BuildingID, c.AcademicYear, c.Grade, c.Letter, c.OldStudents, c.NewStudents, c.Source)
	if err != nil {
		return errors.Wrap(err, "log enrollment change")
	}
	return nil
}
