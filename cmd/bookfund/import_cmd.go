package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/inventory"
)

type importOptions struct {
	building string
	year     int
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <kind> <file>...",
		Short: "Import one or more workbooks of the same kind",
		Long: `Import one or more workbooks of the same kind.

Files are imported in order. Rows that fail are reported and skipped; the
command exits with status 5 when any row failed. A file that cannot be read
at all stops the run.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := importer.Kind(args[0])
			if _, ok := core.Get(key); !ok {
				return withCode(exitInput, errors.Wrapf(core.ErrUnknownKind, "%q", key))
			}

			var partial error
			for _, path := range args[1:] {
				err := a.importFile(cmd, key, path, opts)
				if err == nil {
					continue
				}
				if exitCode(err) != exitPartial {
					return err
				}
				partial = err
			}
			return partial
		},
	}

	cmd.Flags().StringVar(&opts.building, "building", "", "Target building code (legacy and librarian_stock kinds)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Academic year start, e.g. 2025 (future_classes kind)")
	return cmd
}

func (a *app) importFile(cmd *cobra.Command, key importer.Kind, path string, opts importOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return withCode(exitInput, errors.Wrap(err, "open workbook"))
	}
	defer f.Close()

	name := filepath.Base(path)
	outcome, err := a.service.Import(cmd.Context(), key, f, core.ImportParams{
		FileName:     name,
		BuildingCode: opts.building,
		AcademicYear: opts.year,
	})
	if outcome != nil {
		printRun(cmd.OutOrStdout(), outcome)
	}
	if err == nil {
		return nil
	}

	var pe *importer.PartialError
	if errors.As(err, &pe) {
		return withCode(exitPartial, errors.Errorf("%s: %d row(s) failed", name, len(pe.Errors)))
	}
	return classify(errors.Wrap(err, name))
}

func printRun(w io.Writer, o *core.ImportOutcome) {
	run := o.Run
	fmt.Fprintf(w, "file: %s\n", run.FileName)
	fmt.Fprintf(w, "kind: %s\n", run.Kind)
	if run.Format != "" {
		fmt.Fprintf(w, "format: %s\n", run.Format)
	}
	fmt.Fprintf(w, "processed: %d\n", run.Processed)
	if o.Result != nil {
		fmt.Fprintf(w, "skipped: %d\n", o.Result.Skipped)
	}
	for _, msg := range run.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
	if o.Result != nil && o.Result.Truncated {
		fmt.Fprintln(w, "  (stopped after too many errors)")
	}
}

// classify picks the exit code for a service error.
func classify(err error) error {
	var se *importer.StructuralError
	switch {
	case errors.As(err, &se),
		errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, importer.ErrUnknownBuilding),
		errors.Is(err, importer.ErrAcademicYearRequired),
		errors.Is(err, inventory.ErrInvalidCount),
		errors.Is(err, domain.ErrNoStock),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrTitleNotFound):
		return withCode(exitInput, err)
	}
	return withCode(exitFailure, err)
}
