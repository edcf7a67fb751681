package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/export"
	"github.com/example/cloudkitchen/pkg/pricing"
)

var (
	period   string
	fromDate string
	toDate   string
	exportTo string
	confirm  bool
)

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&period, "period", "p", string(dashboard.PeriodToday), "today, week, month, year, custom or all")
	cmd.Flags().StringVar(&fromDate, "from", "", "custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toDate, "to", "", "custom range end (YYYY-MM-DD)")
}

func query() dashboard.Query {
	return dashboard.Query{Period: dashboard.Period(period), From: fromDate, To: toDate}
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Sales figures for a period",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Orders in a period, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a sales report file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded order",
	Long: `Delete every recorded order from the shared history.

This cannot be undone. Pass --yes to confirm.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	addRangeFlags(summaryCmd)
	addRangeFlags(listCmd)
	addRangeFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportTo, "dir", "", "output directory (default from config)")
	clearCmd.Flags().BoolVarP(&confirm, "yes", "y", false, "confirm deleting all sales data")
}

func currency() string {
	return cfg.Pricing.Currency
}

func printSummary(w io.Writer, view dashboard.View) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s\n", view.Period)
	fmt.Fprintf(tw, "From\t%s\n", view.Range.Start.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "To\t%s\n", view.Range.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "Orders\t%d\n", view.Summary.TotalOrders)
	fmt.Fprintf(tw, "Items\t%d\n", view.Summary.TotalItems)
	fmt.Fprintf(tw, "Revenue\t%s\n", pricing.Money(currency(), view.Summary.TotalRevenue))
	fmt.Fprintf(tw, "Average order\t%s\n", pricing.Money(currency(), view.Summary.AvgOrderValue))
	fmt.Fprintf(tw, "Tax\t%s\n", pricing.Money(currency(), view.Summary.TotalTax))
	fmt.Fprintf(tw, "Delivery\t%s\n", pricing.Money(currency(), view.Summary.TotalDelivery))
	tw.Flush()
}

func runSummary(cmd *cobra.Command, args []string) error {
	view, err := dash.View(cmd.Context(), query())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), view)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	view, err := dash.View(cmd.Context(), query())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(view.Orders) == 0 {
		fmt.Fprintln(out, "No orders in this period.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPLACED\tITEMS\tQTY\tTOTAL")
	for _, o := range view.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			o.OrderID,
			o.Timestamp.Local().Format("2006-01-02 15:04:05"),
			o.Items,
			o.ItemCount,
			pricing.Money(currency(), o.Total))
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	view, err := dash.View(cmd.Context(), query())
	if err != nil {
		return err
	}

	dir := exportTo
	if dir == "" {
		dir = cfg.Export.Dir
	}
	path, err := export.NewFileExporter(dir, currency(), logger).ExportReport(cmd.Context(), view)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	before := len(history.All(cmd.Context()))
	if err := dash.ClearHistory(cmd.Context(), confirm); err != nil {
		return fmt.Errorf("%w (pass --yes)", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d orders.\n", before)
	return nil
}
