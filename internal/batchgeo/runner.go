package batchgeo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

// Default pacing for the public Photon/Nominatim endpoints.
const (
	DefaultTaskDelay    = 1200 * time.Millisecond
	DefaultVariantDelay = 300 * time.Millisecond
)

// Paths locates the datasets. Empty CSV or JSON paths skip that file.
type Paths struct {
	CSV       string `mapstructure:"csv"`
	JSON      string `mapstructure:"json"`
	PublicDir string `mapstructure:"public_dir"`
}

// DefaultPaths returns the repository-relative layout.
func DefaultPaths() Paths {
	return Paths{
		CSV:       "nyc_firms.csv",
		JSON:      "nyc_firms.json",
		PublicDir: filepath.Join("public", "datasets"),
	}
}

// Summary reports a finished run.
type Summary struct {
	RunID       string `json:"run_id"`
	Tasks       int    `json:"tasks"`
	Resolved    int    `json:"resolved"`
	Unresolved  int    `json:"unresolved"`
	CSVUpdated  int    `json:"csv_updated"`
	JSONUpdated int    `json:"json_updated"`
}

// Runner geocodes every record that lacks coordinates and writes the results.
type Runner struct {
	provider     geocode.Provider
	paths        Paths
	bounds       geo.Bounds
	force        bool
	taskDelay    time.Duration
	variantDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithForce re-geocodes records that already have coordinates.
func WithForce(force bool) Option {
	return func(r *Runner) {
		r.force = force
	}
}

// WithDelays overrides the pause after each task and after each rejected variant.
func WithDelays(task, variant time.Duration) Option {
	return func(r *Runner) {
		r.taskDelay = task
		r.variantDelay = variant
	}
}

// WithBounds sets the acceptance area. Defaults to geo.NYC.
func WithBounds(b geo.Bounds) Option {
	return func(r *Runner) {
		r.bounds = b
	}
}

// NewRunner creates a Runner.
func NewRunner(provider geocode.Provider, paths Paths, opts ...Option) *Runner {
	r := &Runner{
		provider:     provider,
		paths:        paths,
		bounds:       geo.NYC,
		taskDelay:    DefaultTaskDelay,
		variantDelay: DefaultVariantDelay,
		sleep:        sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type source struct {
	name    string
	path    string
	dataset Dataset
	records []Record
}

// Run loads both datasets, geocodes each unique task once, applies the results
// to every record sharing a task key and writes the files plus public copies.
// Per-record failures are logged; only I/O and cancellation abort the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.New().String()}
	log := zap.L().With(zap.String("run_id", sum.RunID))

	sources, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	var order []string
	tasks := make(map[string]Task)
	for _, src := range sources {
		for _, rec := range src.records {
			if !rec.NeedsUpdate {
				continue
			}
			t := BuildTask(rec.Address)
			if t.Key == "" {
				continue
			}
			if _, dup := tasks[t.Key]; !dup {
				tasks[t.Key] = t
				order = append(order, t.Key)
			}
		}
	}
	sum.Tasks = len(order)
	log.Info("batchgeo: geocoding unique addresses", zap.Int("tasks", sum.Tasks), zap.Bool("force", r.force))

	results := make(map[string]geo.LatLng, len(order))
	for i, key := range order {
		log.Info("batchgeo: task", zap.Int("n", i+1), zap.Int("of", sum.Tasks), zap.String("key", key))
		pos, ok, err := r.geocodeTask(ctx, tasks[key])
		if err != nil {
			return nil, err
		}
		if ok {
			results[key] = pos
			sum.Resolved++
		} else {
			sum.Unresolved++
			log.Warn("batchgeo: no result", zap.String("key", key))
		}
		if i < len(order)-1 {
			if err := r.sleep(ctx, r.taskDelay); err != nil {
				return nil, eris.Wrap(err, "batchgeo: interrupted")
			}
		}
	}

	for _, src := range sources {
		n := 0
		for i, rec := range src.records {
			pos, ok := results[BuildTask(rec.Address).Key]
			if !ok {
				continue
			}
			if err := src.dataset.SetPosition(i, pos); err != nil {
				return nil, err
			}
			n++
		}
		switch src.name {
		case "csv":
			sum.CSVUpdated = n
		case "json":
			sum.JSONUpdated = n
		}
	}

	if err := r.write(sources); err != nil {
		return nil, err
	}

	log.Info("batchgeo: finished",
		zap.Int("resolved", sum.Resolved),
		zap.Int("unresolved", sum.Unresolved),
		zap.Int("csv_updated", sum.CSVUpdated),
		zap.Int("json_updated", sum.JSONUpdated),
	)
	return sum, nil
}

func (r *Runner) load(ctx context.Context) ([]*source, error) {
	var sources []*source
	if r.paths.CSV != "" {
		zap.L().Info("batchgeo: loading csv", zap.String("path", r.paths.CSV))
		data, err := readFile(r.paths.CSV)
		if err != nil {
			return nil, err
		}
		ds, err := ReadCSV(ctx, data)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &source{name: "csv", path: r.paths.CSV, dataset: ds, records: ds.Records(r.force)})
	}
	if r.paths.JSON != "" {
		zap.L().Info("batchgeo: loading json", zap.String("path", r.paths.JSON))
		data, err := readFile(r.paths.JSON)
		if err != nil {
			return nil, err
		}
		ds, err := ReadJSON(data)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &source{name: "json", path: r.paths.JSON, dataset: ds, records: ds.Records(r.force)})
	}
	if len(sources) == 0 {
		return nil, eris.New("batchgeo: no dataset paths configured")
	}
	return sources, nil
}

// geocodeTask tries each variant in order and returns the first accepted hit.
func (r *Runner) geocodeTask(ctx context.Context, t Task) (geo.LatLng, bool, error) {
	for _, q := range t.Variants {
		res, err := r.provider.Geocode(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return geo.LatLng{}, false, eris.Wrap(ctx.Err(), "batchgeo: interrupted")
			}
			zap.L().Warn("batchgeo: geocode request failed", zap.String("query", q), zap.Error(err))
		} else if Accept(t, res, r.bounds) {
			return res.Position(), true, nil
		}
		if err := r.sleep(ctx, r.variantDelay); err != nil {
			return geo.LatLng{}, false, eris.Wrap(err, "batchgeo: interrupted")
		}
	}
	return geo.LatLng{}, false, nil
}

func (r *Runner) write(sources []*source) error {
	if r.paths.PublicDir != "" {
		if err := os.MkdirAll(r.paths.PublicDir, 0o755); err != nil {
			return eris.Wrapf(err, "batchgeo: create %s", r.paths.PublicDir)
		}
	}
	zap.L().Info("batchgeo: writing updated datasets")
	for _, src := range sources {
		data, err := src.dataset.Bytes()
		if err != nil {
			return err
		}
		targets := []string{src.path}
		if r.paths.PublicDir != "" {
			targets = append(targets, filepath.Join(r.paths.PublicDir, filepath.Base(src.path)))
		}
		for _, p := range targets {
			if err := os.WriteFile(p, data, 0o644); err != nil {
				return eris.Wrapf(err, "batchgeo: write %s", p)
			}
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
