package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/settlement-ledger/internal/app"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Short:   "Print the settlement report for a month",
	Example: `  settlectl report --month 2025-03`,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("month", "", "Month to report (format: YYYY-MM)")
	_ = reportCmd.MarkFlagRequired("month")
}

func runReport(cmd *cobra.Command, args []string) error {
	monthStr, _ := cmd.Flags().GetString("month")

	year, month, err := report.ParseMonth(monthStr)
	if err != nil {
		return fmt.Errorf("invalid month, use YYYY-MM: %w", err)
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		rep, err := a.Reports.Monthly(cmd.Context(), year, month)
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), rep)
	})
}

func printReport(out io.Writer, rep *report.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Settlement report %d-%02d\n", rep.Year, int(rep.Month))
	if len(rep.Dates) == 0 {
		fmt.Fprintln(w, "No payments.")
	}

	for _, g := range rep.Dates {
		fmt.Fprintf(w, "\n%s\n", g.Label)
		for _, b := range g.Blocks {
			fmt.Fprintf(w, "  %s\t\t\n", b.DisplayReference)
			for _, line := range b.Invoices {
				fmt.Fprintf(w, "    %s\t%s\t%s\t\n", line.InvoiceNumber, line.Category, money.Format(line.Amount))
			}
			fmt.Fprintf(w, "    Subtotal\t\t%s\t\n", money.Format(b.Subtotal))
		}
	}

	fmt.Fprintf(w, "\nTotal\t\t%s\t\n", money.Format(rep.GrandTotal))
	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	return w.Flush()
}
