package core

import (
	"context"
	"io"

	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/schema"
)

// Import kind groups.
const (
	GroupStock      = "stock"
	GroupCurriculum = "curriculum"
	GroupEnrollment = "enrollment"
)

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins registers every import the service ships with.
func RegisterBuiltins() {
	Register(ImportKind{
		Key:      importer.KindRegistry,
		Label:    "Реестр учебников",
		Group:    GroupStock,
		Template: &schema.SelfTemplate,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, p ImportParams) (*importer.Result, error) {
			return im.ImportRegistry(ctx, src, p.BuildingCode)
		},
	})
	Register(ImportKind{
		Key:           importer.KindLegacy,
		Label:         "Выгрузка СУФФ",
		Group:         GroupStock,
		NeedsBuilding: true,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, p ImportParams) (*importer.Result, error) {
			return im.ImportLegacy(ctx, src, p.BuildingCode)
		},
	})
	Register(ImportKind{
		Key:           importer.KindLibrarianStock,
		Label:         "Фонд библиотекаря",
		Group:         GroupStock,
		NeedsBuilding: true,
		Template:      &schema.LibrarianStock,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, p ImportParams) (*importer.Result, error) {
			return im.ImportLibrarianStock(ctx, src, p.BuildingCode)
		},
	})
	Register(ImportKind{
		Key:      importer.KindCurriculum,
		Label:    "Учебный план",
		Group:    GroupCurriculum,
		Template: &schema.Curriculum,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, _ ImportParams) (*importer.Result, error) {
			return im.ImportCurriculum(ctx, src)
		},
	})
	Register(ImportKind{
		Key:      importer.KindClasses,
		Label:    "Численность классов",
		Group:    GroupEnrollment,
		Template: &schema.Classes,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, _ ImportParams) (*importer.Result, error) {
			return im.ImportClasses(ctx, src)
		},
	})
	Register(ImportKind{
		Key:       importer.KindFutureClasses,
		Label:     "Будущий контингент",
		Group:     GroupEnrollment,
		NeedsYear: true,
		Template:  &schema.FutureClasses,
		Run: func(ctx context.Context, im *importer.Importer, src io.Reader, p ImportParams) (*importer.Result, error) {
			return im.ImportFutureClasses(ctx, src, p.AcademicYear)
		},
	})
}
