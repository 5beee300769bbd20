// Command giaodich-report prints the summary of every report window for a
// data file or SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"giaodich/internal/cli"
	"giaodich/internal/core"
	"giaodich/internal/loader"
	"giaodich/internal/report"
	"giaodich/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	if err := run(context.Background(), os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, "giaodich-report:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("giaodich-report", flag.ContinueOnError)
	fs.SetOutput(out)
	dataFile := fs.String("data", envOr("DATA_FILE", "./data.json"), "JSON data file")
	dbPath := fs.String("db", "", "SQLite database; overrides -data when set")
	todayFlag := fs.String("today", "", "reference date as YYYY-MM-DD (default: now)")
	windowFlag := fs.String("window", "", "single window to print (default: all windows)")
	rows := fs.Bool("rows", false, "print the gold and currency rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	today := core.DateOf(now())
	if *todayFlag != "" {
		t, err := time.Parse("2006-01-02", *todayFlag)
		if err != nil {
			return fmt.Errorf("invalid -today %q: %w", *todayFlag, err)
		}
		today = core.DateOf(t)
	}

	windows := report.Windows()
	if *windowFlag != "" {
		w, err := report.ParseWindow(*windowFlag)
		if err != nil {
			return err
		}
		windows = []report.Window{w}
	}

	ds, err := loadDataset(ctx, *dataFile, *dbPath)
	if err != nil {
		return err
	}

	for i, w := range windows {
		rep, err := report.Build(w, ds.Transactions, today)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		printReport(out, rep, *rows)
	}
	return nil
}

func loadDataset(ctx context.Context, dataFile, dbPath string) (*loader.Dataset, error) {
	if dbPath == "" {
		return loader.LoadFile(dataFile)
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.Load(ctx)
}

func printReport(out io.Writer, rep report.Report, rows bool) {
	fmt.Fprintf(out, "== %s (%s) ==\n", rep.Window.Title(), rep.Today)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	s := rep.Summary
	fmt.Fprintf(tw, "Gold\t%d\t%s\t\n", s.GoldCount, core.FormatVND(s.GoldTotalAmount))
	fmt.Fprintf(tw, "Currency\t%d\t%s\t\n", s.CurrencyCount, core.FormatVND(s.CurrencyTotalAmount))
	fmt.Fprintf(tw, "Total\t%d\t%s\t\n", s.GrandCount, core.FormatVND(s.GrandTotalAmount))
	tw.Flush()

	if !rows {
		return
	}
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, g := range rep.Gold {
		fmt.Fprintf(tw, "  #%d\t%s\tgold\t%s\t%s x %g\t%s\n",
			g.ID, g.Date, g.GoldType, core.FormatVND(g.UnitPrice), g.Quantity, core.FormatVND(g.TotalAmount))
	}
	for _, c := range rep.Currency {
		fmt.Fprintf(tw, "  #%d\t%s\tcurrency\t%s\t%g @ %g\t%s\n",
			c.ID, c.Date, c.CurrencyType, c.Quantity, c.ExchangeRate, core.FormatVND(c.TotalAmount))
	}
	tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
