// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// SeedTimeout is the maximum duration for seeding reference data.
const SeedTimeout = 30 * time.Second

// BuildingCount is the number of numbered school buildings.
const BuildingCount = 8

// BaseSubjects are created on every seed.
var BaseSubjects = []string{
	"Математика",
	"Русский язык",
	"Литература",
	"Окружающий мир",
	"Английский язык",
}

// Store is what seeding writes to.
type Store interface {
	domain.BuildingStore
	domain.SubjectStore
}

// Buildings returns the seeded buildings: the central fund "0" followed by
// "1".."8".
func Buildings() []domain.Building {
	out := []domain.Building{{Code: "0", Name: "Центральный фонд"}}
	for i := 1; i <= BuildingCount; i++ {
		n := strconv.Itoa(i)
		out = append(out, domain.Building{Code: n, Name: "Корпус " + n})
	}
	return out
}

// SeedReport counts what a seed run touched.
type SeedReport struct {
	Buildings int
	Subjects  int
}

type seedFn func(ctx context.Context, r *SeedReport) error

// Seed upserts buildings and base subjects. It is safe to run repeatedly.
func Seed(ctx context.Context, store Store) (SeedReport, error) {
	ctx, cancel := context.WithTimeout(ctx, SeedTimeout)
	defer cancel()

	var report SeedReport
	err := runSteps(ctx, &report, []seedFn{
		func(ctx context.Context, r *SeedReport) error {
			for _, b := range Buildings() {
				if _, err := store.UpsertBuilding(ctx, b); err != nil {
					return errors.Wrapf(err, "seed building %s", b.Code)
				}
				r.Buildings++
			}
			return nil
		},
		func(ctx context.Context, r *SeedReport) error {
			for _, name := range BaseSubjects {
				if _, err := store.FindOrCreateSubject(ctx, name); err != nil {
					return errors.Wrapf(err, "seed subject %q", name)
				}
				r.Subjects++
			}
			return nil
		},
	})
	return report, err
}

func runSteps(ctx context.Context, r *SeedReport, steps []seedFn) error {
	for _, step := range steps {
		if err := step(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
