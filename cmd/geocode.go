package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sells-group/ipo-sim/internal/batchgeo"
	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/resolver"
	"github.com/sells-group/ipo-sim/internal/session"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode firm addresses",
	Long:  "Resolve firm coordinates, either into the geocode cache or directly into the dataset files.",
}

// -- geocode batch --

var geocodeBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Write coordinates into the CSV and JSON datasets",
	Long: "Geocodes every dataset record without lat/lng through Photon, trying address variants " +
		"and accepting only NYC matches, then writes the files in place and into the public datasets directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		paths := batchgeo.Paths{
			CSV:       cfg.Batch.CSV,
			JSON:      cfg.Batch.JSON,
			PublicDir: cfg.Batch.PublicDir,
		}
		runner := batchgeo.NewRunner(initPhotonProvider(), paths,
			batchgeo.WithForce(force),
			batchgeo.WithDelays(
				time.Duration(cfg.Batch.TaskDelayMS)*time.Millisecond,
				time.Duration(cfg.Batch.VariantDelayMS)*time.Millisecond,
			),
		)

		summary, err := runner.Run(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "geocode batch")
		}
		fmt.Fprintf(os.Stdout, "run %s: %d tasks, %d resolved, %d unresolved (csv %d, json %d rows updated)\n",
			summary.RunID, summary.Tasks, summary.Resolved, summary.Unresolved, summary.CSVUpdated, summary.JSONUpdated)
		return nil
	},
}

// -- geocode resolve --

var geocodeResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Fill the geocode cache for firms without a position",
	Long:  "Loads the firm dataset and geocodes firms lacking a real position through Mapbox and Nominatim, storing hits in the geocode cache.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("resolve"); err != nil {
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

		st, cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
			if err := cache.Clear(ctx); err != nil {
				return err
			}
		}

		ds := initLoader().Load(ctx, mode)
		res := resolver.New(initInteractiveProvider(), cache, session.NewOverrides(),
			resolver.WithLimiter(rate.NewLimiter(rate.Every(cfg.Geocode.Delay()), 1)),
		)
		report, err := res.ResolveMissing(ctx, ds.Firms)
		if report != nil {
			formatResolveReport(os.Stdout, report)
		}
		if err != nil {
			return eris.Wrap(err, "geocode resolve")
		}
		return nil
	},
}

func formatResolveReport(w io.Writer, report *resolver.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOUTCOME\tPOSITION\tSOURCE")
	for _, r := range report.Results {
		pos := "-"
		if r.Position != nil {
			pos = fmt.Sprintf("%.5f,%.5f", r.Position.Lat(), r.Position.Lng())
		}
		src := r.Source
		if src == "" {
			src = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Outcome, pos, src)
	}
	tw.Flush() //nolint:errcheck

	fmt.Fprintf(w, "\nconsidered %d: %d cached, %d geocoded, %d no match, %d failed, %d skipped\n",
		report.Considered, report.Cached, report.Geocoded, report.NoMatch, report.Failed, report.Skipped)
}

func init() {
	geocodeBatchCmd.Flags().Bool("force", false, "re-geocode records that already have coordinates")

	geocodeResolveCmd.Flags().String("source", "", "source mode: base, json, csv, all (default from config)")
	geocodeResolveCmd.Flags().Bool("refresh", false, "clear the geocode cache before resolving")

	geocodeCmd.AddCommand(geocodeBatchCmd, geocodeResolveCmd)
	rootCmd.AddCommand(geocodeCmd)
}
