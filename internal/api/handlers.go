package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

type firmsResponse struct {
	Source   content.Mode `json:"source"`
	Count    int          `json:"count"`
	Firms    []firmView   `json:"firms"`
	Dropped  int          `json:"dropped"`
	Error    string       `json:"error,omitempty"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// firmView is a firm as served to the map client, with its parsed capital
// requirement.
type firmView struct {
	model.Firm
	CapitalEstimateUSD int64 `json:"capital_estimate_usd"`
}

func firmViews(firms []model.Firm) []firmView {
	out := make([]firmView, len(firms))
	for i, f := range firms {
		out[i] = firmView{Firm: f, CapitalEstimateUSD: f.CapitalEstimate()}
	}
	return out
}

func newFirmsResponse(ds *content.Dataset, firms []model.Firm) firmsResponse {
	return firmsResponse{
		Source:   ds.Mode,
		Count:    len(firms),
		Firms:    firmViews(firms),
		Dropped:  len(ds.Dropped),
		Error:    ds.Error,
		LoadedAt: ds.LoadedAt,
	}
}

// dataset returns the current dataset, loading it on first use.
func (s *Server) dataset(ctx context.Context) *content.Dataset {
	if ds := s.content.Snapshot(); ds != nil {
		return ds
	}
	return s.content.Reload(ctx)
}

// handleFirms serves the current dataset. ?source= reads another mode without
// changing the selected one.
func (s *Server) handleFirms(w http.ResponseWriter, r *http.Request) {
	var ds *content.Dataset
	if raw := r.URL.Query().Get("source"); raw != "" {
		mode, err := content.ParseMode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ds = s.content.Load(r.Context(), mode)
	} else {
		ds = s.dataset(r.Context())
	}

	firms := s.session.Overrides.Apply(ds.Firms)
	if raw := r.URL.Query().Get("category"); raw != "" {
		cats, err := parseCategories(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		firms = filterCategories(firms, cats)
	} else {
		firms = s.session.Filter.Filter(firms)
	}

	writeJSON(w, http.StatusOK, newFirmsResponse(ds, firms))
}

func parseCategories(raw string) (map[model.Category]bool, error) {
	out := make(map[model.Category]bool)
	for _, part := range strings.Split(raw, ",") {
		c := model.Category(strings.TrimSpace(part))
		if c == "" {
			continue
		}
		if !c.Valid() {
			return nil, eris.Errorf("unknown category %q", c)
		}
		out[c] = true
	}
	return out, nil
}

func filterCategories(firms []model.Firm, cats map[model.Category]bool) []model.Firm {
	if len(cats) == 0 {
		return firms
	}
	out := make([]model.Firm, 0, len(firms))
	for _, f := range firms {
		if cats[f.Category] {
			out = append(out, f)
		}
	}
	return out
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dataset(r.Context()).Economy)
}

func (s *Server) handleGetSource(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"source": s.content.Mode(), "modes": content.Modes})
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := content.ParseMode(in.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds := s.content.SetMode(r.Context(), mode)
	writeJSON(w, http.StatusOK, newFirmsResponse(ds, s.session.Overrides.Apply(ds.Firms)))
}

func (s *Server) handleGetFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": s.session.Filter.Active()})
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Categories []model.Category `json:"categories"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.session.Filter.Set(in.Categories)
	writeJSON(w, http.StatusOK, map[string]any{"active": s.session.Filter.Active()})
}

func (s *Server) handleToggleFilter(w http.ResponseWriter, r *http.Request) {
	cat := model.Category(chi.URLParam(r, "category"))
	if !cat.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category "+strconv.Quote(string(cat)))
		return
	}
	changed := s.session.Filter.Toggle(cat)
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  s.session.Filter.Active(),
		"changed": changed,
	})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	id, ok := s.session.Selected()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": id})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID int `json:"id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := findFirm(s.dataset(r.Context()), in.ID); !ok {
		writeError(w, http.StatusNotFound, "firm not found")
		return
	}
	s.session.Select(in.ID)
	writeJSON(w, http.StatusOK, map[string]any{"selected": in.ID})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.session.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverrides(w http.ResponseWriter, _ *http.Request) {
	all := s.session.Overrides.All()
	out := make(map[string]geo.LatLng, len(all))
	for id, pos := range all {
		out[strconv.Itoa(id)] = pos
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "overrides": out})
}

func (s *Server) handleClearOverrides(w http.ResponseWriter, _ *http.Request) {
	s.session.Overrides.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func findFirm(ds *content.Dataset, id int) (model.Firm, bool) {
	for _, f := range ds.Firms {
		if f.ID == id {
			return f, true
		}
	}
	return model.Firm{}, false
}

func (s *Server) handleGeocodeFirm(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid firm id")
		return
	}
	f, ok := findFirm(s.dataset(r.Context()), id)
	if !ok {
		writeError(w, http.StatusNotFound, "firm not found")
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	res, err := s.resolver.ResolveFirm(r.Context(), f, refresh)
	if err != nil {
		writeError(w, http.StatusRequestTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolveMissing(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}
	ds := s.dataset(r.Context())
	report, err := s.resolver.ResolveMissing(r.Context(), ds.Firms)
	if err != nil {
		zap.L().Warn("api: resolve interrupted", zap.Error(err), zap.Int("considered", report.Considered))
		writeError(w, http.StatusRequestTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "geocode cache is not configured")
		return
	}
	if err := s.cache.Clear(r.Context()); err != nil {
		zap.L().Error("api: clear geocode cache", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	res, err := s.searcher.Search(r.Context(), q)
	switch {
	case errors.Is(err, geocode.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded by a newer search")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case res == nil || !res.Matched:
		writeError(w, http.StatusNotFound, "no match")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
