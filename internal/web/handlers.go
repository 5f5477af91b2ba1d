package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ohan/internal/core"
	"github.com/JonMunkholm/ohan/internal/finder"
	"github.com/JonMunkholm/ohan/internal/logging"
	"github.com/JonMunkholm/ohan/internal/relay"
	"github.com/JonMunkholm/ohan/internal/web/templates"
)

// handleHome renders the landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.Home(s.service.DefaultRadius()))
}

// handleClinics renders the finder page. Search input errors and load
// failures are shown inline on the page.
func (s *Server) handleClinics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := templates.ClinicsPageParams{
		Form: templates.SearchForm{
			Zip:       q.Get("zip"),
			Specialty: q.Get("specialty"),
			Radius:    s.service.DefaultRadius(),
		},
	}

	criteria, err := core.ParseCriteria(q.Get("zip"), q.Get("specialty"), q.Get("radius"))
	if err != nil {
		params.Error = errorInfo(err)
		// The menu is best effort next to an input error.
		if dir, lerr := s.service.LoadDirectory(r.Context()); lerr == nil {
			params.Form.Specialties = dir.Specialties
		}
		render(w, r, http.StatusBadRequest, templates.ClinicsPage(params))
		return
	}
	if criteria.RadiusMiles > 0 {
		params.Form.Radius = criteria.RadiusMiles
	}

	dir, err := s.service.LoadDirectory(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		logging.WithFields(r.Context(), "zip", criteria.Zip, "specialty", criteria.Specialty).
			Error("load clinics failed", "error", err)
		params.Error = errorInfo(err)
		render(w, r, loadErrorStatus(err), templates.ClinicsPage(params))
		return
	}

	res := s.service.Filter(dir, criteria)
	params.Form.Specialties = dir.Specialties
	params.Clinics = res.Clinics
	params.Total = len(dir.Clinics)
	params.Notice = res.Notice

	render(w, r, http.StatusOK, templates.ClinicsPage(params))
}

// loadErrorStatus is 503 while every upstream fetch slot is taken and 502
// for any other load failure.
func loadErrorStatus(err error) int {
	if errors.Is(err, relay.ErrTooManyFetches) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// SearchResponse is the body of GET /api/clinics/search.
type SearchResponse struct {
	finder.Result
	Total int `json:"total"`
}

// handleSearchAPI returns normalized, filtered clinics as JSON.
func (s *Server) handleSearchAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := core.ParseCriteria(q.Get("zip"), q.Get("specialty"), q.Get("radius"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	dir, err := s.service.LoadDirectory(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.respondError(w, r, err, loadErrorStatus(err))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, SearchResponse{
		Result: s.service.Filter(dir, criteria),
		Total:  len(dir.Clinics),
	})
}

// handleSpecialties returns the specialty menu.
func (s *Server) handleSpecialties(w http.ResponseWriter, r *http.Request) {
	dir, err := s.service.LoadDirectory(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.respondError(w, r, err, loadErrorStatus(err))
		return
	}

	specialties := dir.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"specialties": specialties})
}

// handleHealth reports liveness. Upstream reachability is not checked; the
// cache is, when configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "ok",
		"source": s.relay.SourceName(),
	}
	code := http.StatusOK

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cache.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health: cache unreachable", "error", err)
			status["status"] = "degraded"
			status["cache"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status["cache"] = "ok"
		}
	}

	writeJSON(w, code, status)
}

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
