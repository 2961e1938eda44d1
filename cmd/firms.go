package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/model"
	"github.com/sells-group/ipo-sim/internal/session"
)

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "Load, merge and print the firm dataset",
	Long:  "Runs the content pipeline for a source mode (base, json, csv, all) and prints the resulting firms.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("firms"); err != nil {
			return err
		}
		ctx := cmd.Context()

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = cfg.Content.Source
		}
		mode, err := content.ParseMode(source)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		categories, _ := cmd.Flags().GetStringSlice("category")

		ds := initLoader().Load(ctx, mode)
		if ds.Error != "" {
			return eris.Errorf("firms: load interrupted: %s", ds.Error)
		}
		for _, d := range ds.Dropped {
			zap.L().Warn("firms: dropped record",
				zap.String("source", string(d.Source)),
				zap.Int("row", d.Row),
				zap.String("reason", string(d.Reason)),
				zap.String("detail", d.Detail),
			)
		}

		if len(categories) > 0 {
			filter := session.NewCategoryFilter()
			cats := make([]model.Category, 0, len(categories))
			for _, c := range categories {
				cats = append(cats, model.Category(strings.TrimSpace(c)))
			}
			filter.Set(cats)
			ds.Firms = filter.Filter(ds.Firms)
		}

		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ds)
		case "table":
			formatFirmsTable(os.Stdout, ds.Firms)
			fmt.Fprintf(os.Stderr, "%d firms (%s), %d dropped\n", len(ds.Firms), ds.Mode, len(ds.Dropped))
			return nil
		default:
			return eris.Errorf("firms: unknown format %q", format)
		}
	},
}

func formatFirmsTable(w io.Writer, firms []model.Firm) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSTAGE\tCITY\tCAPITAL\tPOSITION")
	for _, f := range firms {
		pos := "-"
		if f.Position != nil {
			pos = fmt.Sprintf("%.5f,%.5f", f.Position.Lat(), f.Position.Lng())
			if f.Placeholder {
				pos += " (placeholder)"
			}
		}
		city := f.City
		if city == "" {
			city = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t$%d\t%s\n", f.ID, f.Name, f.Category, f.RoundStage, city, f.CapitalEstimate(), pos)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	firmsCmd.Flags().String("source", "", "source mode: base, json, csv, all (default from config)")
	firmsCmd.Flags().String("format", "table", "output format: table or json")
	firmsCmd.Flags().StringSlice("category", nil, "only show these categories")
	rootCmd.AddCommand(firmsCmd)
}
