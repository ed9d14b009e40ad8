package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"EMAScan/internal/di"
	"EMAScan/internal/domain/models"
	"EMAScan/pkg/util"
)

var (
	scanTopN   int
	scanFormat string
)

// scanCmd starts a streaming scan and prints the resulting buckets
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a streaming scan and print the strategic buckets",
	Long: `Start a scan on the analysis service, follow its push stream until
completion and print the classified result.

Examples:
  emascan scan
  emascan scan --top 50
  emascan scan --format json`,
	RunE: runScan,
}

// demoCmd loads the service's demo result set
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Load and print the demo result set",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(scanCmd, demoCmd)

	scanCmd.Flags().IntVar(&scanTopN, "top", models.DefaultTopN, "Number of top assets to scan (5-200)")
	for _, c := range []*cobra.Command{scanCmd, demoCmd} {
		c.Flags().StringVar(&scanFormat, "format", "table", "Output format (table|json)")
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("unsupported format %q", scanFormat)
	}
	client, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	req := models.ScanRequest{TopN: scanTopN}.Clamped()
	fmt.Fprintf(cmd.ErrOrStderr(), "Scanning top %d assets...\n", req.TopN)
	d, err := client.Ingestor.Run(ctx, req)
	if err != nil {
		return err
	}
	return printDashboard(cmd.OutOrStdout(), d, scanFormat)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("unsupported format %q", scanFormat)
	}
	client, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	d, err := client.Pipeline.LoadDemo(ctx)
	if err != nil {
		return err
	}
	return printDashboard(cmd.OutOrStdout(), d, scanFormat)
}

func printDashboard(w io.Writer, d *models.Dashboard, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	asOf := util.ParseTimeDefault(d.Summary.Timestamp, d.GeneratedAt)
	fmt.Fprintf(w, "Run %s (%s), data as of %s\n", d.RunID, d.Source, asOf.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Scanned %d: %d above EMA50, %d below\n\n",
		d.Summary.TotalScanned, d.Summary.Above(), d.Summary.Below())

	sections := []struct {
		title  string
		assets []models.ClassifiedAsset
	}{
		{"LONG TERM", d.Buckets.LongTerm},
		{"TRADE NOW", d.Buckets.TradeNow},
		{"AVOID", d.Buckets.Avoid},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.assets))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSYMBOL\tWEEKLY\t4H\tTREND\tALIGNMENT")
		for _, a := range s.assets {
			fmt.Fprintf(tw, "%d\t%s\t%+.2f%%\t%s\t%s\t%s %.0f%%\n",
				a.Rank, a.Symbol, a.PctFromEMA50, fourHour(a.FourHourPct), a.Trend,
				a.Alignment.PrimaryTrend, a.Alignment.AlignmentScore)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func fourHour(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64) + "%"
}
