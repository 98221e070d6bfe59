// Package inventory compares recorded stock with its physical breakdown and
// writes off lost or worn copies.
package inventory

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// ErrInvalidCount is returned for a write-off of zero or fewer copies.
var ErrInvalidCount = errors.New("write-off count must be positive")

// Store is the storage the inventory needs.
type Store interface {
	StockByBuilding(ctx context.Context, buildingID int64) ([]domain.StockLine, error)
	ApplyWriteOff(ctx context.Context, w domain.WriteOff) (domain.Stock, error)
}

// Row is one stock record with its expected count.
type Row struct {
	TitleID          int64  `json:"title_id"`
	Grade            int    `json:"grade"`
	Subject          string `json:"subject"`
	Title            string `json:"title"`
	Total            int    `json:"total"`
	Available        int    `json:"available"`
	IssuedToStudents int    `json:"issued_to_students"`
	InCabinets       int    `json:"in_cabinets"`
	Expected         int    `json:"expected"`
	Diff             int    `json:"diff"`
	OverAvailable    bool   `json:"over_available"`
	Note             string `json:"note,omitempty"`
}

// Service runs inventory operations.
type Service struct {
	store Store
}

// New creates a Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Report lists every stock record of a building. Expected is the sum of free,
// issued and cabinet copies; Diff is Total minus Expected.
func (s *Service) Report(ctx context.Context, buildingID int64) ([]Row, error) {
	lines, err := s.store.StockByBuilding(ctx, buildingID)
	if err != nil {
		return nil, errors.Wrap(err, "load stock")
	}

	rows := make([]Row, len(lines))
	for i, l := range lines {
		expected := l.Available + l.IssuedToStudents + l.InCabinets
		rows[i] = Row{
			TitleID:          l.TitleID,
			Grade:            l.Title.Grade,
			Subject:          l.Subject,
			Title:            l.Title.Title,
			Total:            l.Total,
			Available:        l.Available,
			IssuedToStudents: l.IssuedToStudents,
			InCabinets:       l.InCabinets,
			Expected:         expected,
			Diff:             l.Total - expected,
			OverAvailable:    l.Available > l.Total,
			Note:             l.Note,
		}
	}
	return rows, nil
}

// WriteOffRequest asks to remove Count copies of a title from a building.
type WriteOffRequest struct {
	BuildingID int64  `json:"building_id" validate:"required,gt=0"`
	TitleID    int64  `json:"title_id" validate:"required,gt=0"`
	Count      int    `json:"count" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"max=500"`
}

// WriteOff removes copies from available stock and records why. It fails
// with domain.ErrNoStock or domain.ErrInsufficientStock when the building
// does not hold enough free copies.
func (s *Service) WriteOff(ctx context.Context, req WriteOffRequest) (domain.Stock, error) {
	if req.Count <= 0 {
		return domain.Stock{}, ErrInvalidCount
	}
	st, err := s.store.ApplyWriteOff(ctx, domain.WriteOff{
		BuildingID: req.BuildingID,
		TitleID:    req.TitleID,
		Count:      req.Count,
		Reason:     req.Reason,
	})
	if err != nil {
		return domain.Stock{}, errors.Wrapf(err, "write off %d of title %d", req.Count, req.TitleID)
	}
	return st, nil
}

// WriteReport writes the inventory sheet.
func WriteReport(w io.Writer, rows []Row) error {
	book, err := sheet.NewBook()
	if err != nil {
		return err
	}
	defer book.Close()

	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.Grade, r.Subject, r.Title, r.Total, r.Available, r.IssuedToStudents, r.InCabinets, r.Expected, r.Diff, r.Note}
	}
	if err := book.AddSheet(schema.InventorySheet, schema.InventoryHeaders, data); err != nil {
		return err
	}
	return book.Write(w)
}
