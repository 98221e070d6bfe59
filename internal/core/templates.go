package core

import (
	"io"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// ErrNoTemplate is returned for kinds that do not offer a blank workbook.
var ErrNoTemplate = errors.New("no template for import kind")

// TemplateFileName is the download name for a kind's template.
func TemplateFileName(key importer.Kind) string {
	return string(key) + "_template.xlsx"
}

// WriteTemplate writes a blank workbook with the kind's header row.
func WriteTemplate(w io.Writer, key importer.Kind) error {
	kind, ok := Get(key)
	if !ok {
		return errors.Wrapf(ErrUnknownKind, "%q", key)
	}
	if !kind.HasTemplate() {
		return errors.Wrapf(ErrNoTemplate, "%q", key)
	}

	book, err := sheet.NewBook()
	if err != nil {
		return err
	}
	defer book.Close()

	if err := book.AddSheet(kind.Template.Sheet, kind.Template.Headers(), nil); err != nil {
		return errors.Wrap(err, "add template sheet")
	}
	return book.Write(w)
}
