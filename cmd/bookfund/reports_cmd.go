package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/inventory"
	"github.com/JonMunkholm/bookfund/internal/recon"
)

func newReconcileCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "reconcile <building>",
		Short: "Compare curriculum demand with a building's available stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.service.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			if out != "" {
				return writeFile(cmd, out, func(w io.Writer) error {
					return recon.WriteReconciliation(w, rep.Building.Code, rep.Rows)
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GRADE\tSUBJECT\tTITLE\tNEEDED\tAVAILABLE\tDEFICIT")
			for _, r := range rep.Rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n", r.Grade, r.Subject, r.Title, r.Needed, r.Available, r.Deficit)
			}
			printTotals(tw, 2, rep.BySubject)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write an xlsx report to this file")
	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		out  string
		year int
	)

	cmd := &cobra.Command{
		Use:   "plan <building>",
		Short: "Compute purchase needs from projected enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.service.Plan(cmd.Context(), args[0], year)
			if err != nil {
				return classify(err)
			}
			if out != "" {
				return writeFile(cmd, out, func(w io.Writer) error {
					return recon.WritePlan(w, rep.Rows)
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GRADE\tSUBJECT\tTITLE\tISBN/KEY\tPER STUDENT\tSTUDENTS\tNEEDED\tAVAILABLE\tDEFICIT")
			for _, r := range rep.Rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					r.Grade, r.Subject, r.Title, r.ISBNOrKey, r.PerStudent, r.Students, r.Needed, r.Available, r.Deficit)
			}
			printTotals(tw, 5, rep.BySubject)
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Academic year start, e.g. 2025 (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write an xlsx plan to this file")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newInventoryCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "inventory <building>",
		Short: "List a building's stock with expected counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.service.Inventory(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			if out != "" {
				return writeFile(cmd, out, func(w io.Writer) error {
					return inventory.WriteReport(w, rep.Rows)
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGRADE\tSUBJECT\tTITLE\tTOTAL\tAVAILABLE\tISSUED\tCABINETS\tEXPECTED\tDIFF")
			for _, r := range rep.Rows {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
					r.TitleID, r.Grade, r.Subject, r.Title, r.Total, r.Available, r.IssuedToStudents, r.InCabinets, r.Expected, r.Diff)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write an xlsx inventory sheet to this file")
	return cmd
}

func newWriteOffCmd(a *app) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "writeoff <building> <title-id> <count>",
		Short: "Remove copies from a building's available stock",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return withCode(exitInput, errors.Wrapf(err, "title id %q", args[1]))
			}
			count, err := strconv.Atoi(args[2])
			if err != nil {
				return withCode(exitInput, errors.Wrapf(err, "count %q", args[2]))
			}

			st, err := a.service.WriteOff(cmd.Context(), core.WriteOffParams{
				BuildingCode: args[0],
				TitleID:      titleID,
				Count:        count,
				Reason:       reason,
			})
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d\navailable: %d\n", st.Total, st.Available)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the copies are written off")
	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "approve <title-id>",
		Short: "Mark a textbook as approved by ministry order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return withCode(exitInput, errors.Wrapf(err, "title id %q", args[0]))
			}

			t, err := a.service.SetApproval(cmd.Context(), core.ApprovalParams{
				TitleID:  titleID,
				Approved: !revoke,
			})
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tapproved: %t\n", t.ID, t.Title, t.ApprovedByOrder)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Clear the approval instead of setting it")
	return cmd
}

// printTotals writes a TOTAL row whose label sits after lead empty columns.
func printTotals(w io.Writer, lead int, sums []recon.Summary) {
	var needed, available, deficit int
	for _, s := range sums {
		needed += s.Needed
		available += s.Available
		deficit += s.Deficit
	}
	fmt.Fprintf(w, "%sTOTAL\t%d\t%d\t%d\n", strings.Repeat("\t", lead), needed, available, deficit)
}

// writeFile creates path, writes it with fn and prints the path.
func writeFile(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return withCode(exitFailure, errors.Wrap(err, "create output file"))
	}
	if err := fn(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return withCode(exitFailure, err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitFailure, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
