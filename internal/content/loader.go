package content

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ipo-sim/internal/fetcher"
	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/merge"
	"github.com/sells-group/ipo-sim/internal/model"
	"github.com/sells-group/ipo-sim/internal/normalize"
)

// Dataset is the result of one load.
type Dataset struct {
	Mode     Mode          `json:"source"`
	Firms    []model.Firm  `json:"firms"`
	Economy  model.Economy `json:"economy"`
	Dropped  []Drop        `json:"dropped,omitempty"`
	Error    string        `json:"error,omitempty"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Drop records a source row the normalizer rejected.
type Drop struct {
	Source model.Source     `json:"source"`
	Row    int              `json:"row"`
	Reason normalize.Reason `json:"reason"`
	Detail string           `json:"detail"`
}

// Loader fetches, normalizes and merges the firm sources.
type Loader struct {
	fetch fetcher.Fetcher
	paths Paths
	norm  *normalize.Normalizer
	now   func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithPaths overrides the dataset locations.
func WithPaths(p Paths) Option {
	return func(l *Loader) {
		l.paths = p
	}
}

// WithNormalizer sets the record normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(l *Loader) {
		l.norm = n
	}
}

// NewLoader creates a Loader reading through f.
func NewLoader(f fetcher.Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetch: f,
		paths: DefaultPaths(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.norm == nil {
		l.norm = normalize.New(nil)
	}
	return l
}

// Load assembles the dataset for mode. It never fails: every unavailable or
// malformed source degrades to an empty contribution. Dataset.Error is set only
// when ctx ends before the load completes.
func (l *Loader) Load(ctx context.Context, mode Mode) *Dataset {
	log := zap.L().With(zap.String("mode", string(mode)))
	ds := &Dataset{Mode: mode, Economy: model.EmptyEconomy()}

	var baseRecs []any
	g, gCtx := errgroup.WithContext(ctx)
	if mode.wantsBase() {
		g.Go(func() error {
			recs, err := l.fetchJSONArray(gCtx, l.paths.BaseFirms)
			if err != nil {
				log.Warn("content: base firms unavailable", zap.String("path", l.paths.BaseFirms), zap.Error(err))
				return nil
			}
			baseRecs = recs
			return nil
		})
	}
	g.Go(func() error {
		data, err := fetcher.ReadAll(gCtx, l.fetch, l.paths.Economy)
		if err != nil {
			log.Warn("content: economy unavailable", zap.String("path", l.paths.Economy), zap.Error(err))
			return nil
		}
		econ, err := model.ParseEconomy(data)
		if err != nil {
			log.Warn("content: economy invalid, using defaults", zap.Error(err))
			return nil
		}
		ds.Economy = econ
		return nil
	})
	_ = g.Wait()

	var base, jsonFirms, csvFirms []model.Firm
	if mode.wantsBase() {
		base = l.normalizeAll(ds, baseRecs, model.SourceBase)
	}
	if mode.wantsJSON() {
		jsonFirms = l.normalizeAll(ds, l.loadJSONOverride(ctx), model.SourceJSON)
	}
	if mode.wantsCSV() {
		csvFirms = l.normalizeAll(ds, l.loadCSVOverride(ctx), model.SourceCSV)
	}

	var firms []model.Firm
	switch mode {
	case ModeBase:
		firms = base
	case ModeJSON:
		firms = jsonFirms
	case ModeCSV:
		firms = csvFirms
	default:
		firms = merge.Dedupe(merge.Dedupe(base, csvFirms), jsonFirms)
	}

	if n := EnsureUniqueIDs(firms); n > 0 {
		log.Warn("content: reassigned colliding firm ids", zap.Int("count", n))
	}
	ds.Firms = WithPlaceholders(firms)
	if ds.Firms == nil {
		ds.Firms = []model.Firm{}
	}

	if err := ctx.Err(); err != nil {
		ds.Error = err.Error()
	}
	ds.LoadedAt = l.now()

	log.Info("content: dataset loaded",
		zap.Int("base", len(base)),
		zap.Int("json", len(jsonFirms)),
		zap.Int("csv", len(csvFirms)),
		zap.Int("firms", len(ds.Firms)),
		zap.Int("dropped", len(ds.Dropped)),
	)
	return ds
}

func (l *Loader) fetchJSONArray(ctx context.Context, path string) ([]any, error) {
	body, err := l.fetch.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return fetcher.CollectJSONArray[any](ctx, body)
}

// loadJSONOverride returns the first candidate that downloads and decodes.
func (l *Loader) loadJSONOverride(ctx context.Context) []any {
	for _, p := range l.paths.JSONOverride {
		recs, err := l.fetchJSONArray(ctx, p)
		if err != nil {
			zap.L().Debug("content: json override candidate skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		return recs
	}
	return nil
}

// loadCSVOverride returns the rows of the first candidate with a non-empty body.
func (l *Loader) loadCSVOverride(ctx context.Context) []any {
	for _, p := range l.paths.CSVOverride {
		body, err := l.fetch.Download(ctx, p)
		if err != nil {
			zap.L().Debug("content: csv override candidate skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		tbl, err := fetcher.ReadTable(ctx, body)
		_ = body.Close()
		if err != nil {
			zap.L().Warn("content: csv override unreadable", zap.String("path", p), zap.Error(err))
			continue
		}
		if len(tbl.Header) == 0 {
			continue
		}
		recs := make([]any, len(tbl.Rows))
		for i, row := range tbl.Rows {
			rec := make(map[string]any, len(row))
			for k, v := range row {
				rec[k] = v
			}
			recs[i] = rec
		}
		return recs
	}
	return nil
}

func (l *Loader) normalizeAll(ds *Dataset, recs []any, src model.Source) []model.Firm {
	firms := make([]model.Firm, 0, len(recs))
	for i, raw := range recs {
		obj, _ := raw.(map[string]any)
		res := l.norm.Normalize(normalize.Record(obj), SyntheticID(src, i), src)
		if !res.OK() {
			zap.L().Debug("content: record dropped",
				zap.String("source", string(src)),
				zap.Int("row", i),
				zap.String("reason", string(res.Reason)),
				zap.String("detail", res.Detail),
			)
			ds.Dropped = append(ds.Dropped, Drop{Source: src, Row: i, Reason: res.Reason, Detail: res.Detail})
			continue
		}
		firms = append(firms, res.Firm)
	}
	return firms
}

// EnsureUniqueIDs reassigns ids that repeat an earlier firm's id to a free
// synthetic id of the firm's source. It returns the number of firms changed.
func EnsureUniqueIDs(firms []model.Firm) int {
	seen := make(map[int]bool, len(firms))
	changed := 0
	for i := range firms {
		if !seen[firms[i].ID] {
			seen[firms[i].ID] = true
			continue
		}
		id := SyntheticID(firms[i].Source, i)
		for seen[id] {
			id--
		}
		firms[i].ID = id
		seen[id] = true
		changed++
	}
	return changed
}

// WithPlaceholders returns firms with every missing position filled by the
// name-seeded placeholder. Placeholder positions are flagged as such.
func WithPlaceholders(firms []model.Firm) []model.Firm {
	for i := range firms {
		if firms[i].Position != nil {
			continue
		}
		p := geo.PlaceholderFor(firms[i].Name)
		firms[i].Position = &p
		firms[i].Placeholder = true
	}
	return firms
}
