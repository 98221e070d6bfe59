package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/bookfund/internal/admin"
	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/database"
	"github.com/JonMunkholm/bookfund/internal/importer"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.pool == nil {
				return withCode(exitInput, errors.New("migrate needs a database; drop --dry-run"))
			}
			ctx := cmd.Context()
			if err := database.Migrate(ctx, a.pool); err != nil {
				return withCode(exitDB, err)
			}
			v, err := database.Version(ctx, a.pool)
			if err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create buildings and base subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := admin.Seed(cmd.Context(), a.store)
			if err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "buildings: %d\nsubjects: %d\n", report.Buildings, report.Subjects)
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "kinds",
		Short:       "List import kinds",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tGROUP\tTEMPLATE\tLABEL")
			for _, k := range core.All() {
				tmpl := "-"
				if k.HasTemplate() {
					tmpl = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Key, k.Group, tmpl, k.Label)
			}
			return tw.Flush()
		},
	}
}

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:         "template <kind>",
		Short:       "Write an empty workbook with the headers an import expects",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := importer.Kind(args[0])
			kind, ok := core.Get(key)
			if !ok {
				return withCode(exitInput, errors.Wrapf(core.ErrUnknownKind, "%q", key))
			}
			if !kind.HasTemplate() {
				return withCode(exitInput, errors.Wrapf(core.ErrNoTemplate, "%q", key))
			}
			if out == "" {
				out = core.TemplateFileName(key)
			}
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, core.TemplateFileName(key))
			}

			f, err := os.Create(out)
			if err != nil {
				return withCode(exitFailure, errors.Wrap(err, "create template file"))
			}
			if err := core.WriteTemplate(f, key); err != nil {
				f.Close()
				_ = os.Remove(out)
				return withCode(exitInput, err)
			}
			if err := f.Close(); err != nil {
				return withCode(exitFailure, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default: <kind>_template.xlsx)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.service.History(cmd.Context(), limit)
			if err != nil {
				return withCode(exitDB, err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tKIND\tFILE\tPROCESSED\tERRORS\tSTATUS")
			for _, r := range runs {
				status := "ok"
				if r.Failed {
					status = "failed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, r.FileName, r.Processed, r.ErrorCount, status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", core.DefaultHistoryLimit, "Maximum number of runs")
	return cmd
}
