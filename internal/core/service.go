package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ohan/internal/airtable"
	"github.com/JonMunkholm/ohan/internal/clinic"
	"github.com/JonMunkholm/ohan/internal/finder"
)

// RecordSource returns every raw upstream row. *relay.Relay satisfies it.
type RecordSource interface {
	Records(ctx context.Context) ([]json.RawMessage, error)
}

// Directory is the state behind one page view: every clinic in upstream
// order plus the specialty menu.
type Directory struct {
	Clinics     []clinic.Record `json:"clinics"`
	Specialties []string        `json:"specialties"`

	// Skipped counts rows that could not be decoded.
	Skipped int `json:"skipped,omitempty"`
}

// Service provides the clinic directory operations.
type Service struct {
	source        RecordSource
	normalizer    *clinic.Normalizer
	locator       finder.Locator
	defaultRadius float64
	logger        *slog.Logger
}

// NewService creates a new Service. A non-positive defaultRadius falls back
// to finder.DefaultRadiusMiles.
func NewService(source RecordSource, normalizer *clinic.Normalizer, locator finder.Locator, defaultRadius float64, logger *slog.Logger) *Service {
	if defaultRadius <= 0 {
		defaultRadius = finder.DefaultRadiusMiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:        source,
		normalizer:    normalizer,
		locator:       locator,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// DefaultRadius is the radius applied when a search names none.
func (s *Service) DefaultRadius() float64 { return s.defaultRadius }

// Locator returns the zip lookup used for searches.
func (s *Service) Locator() finder.Locator { return s.locator }

// LoadDirectory fetches every row and normalizes it. On a retrieval error no
// directory is returned.
func (s *Service) LoadDirectory(ctx context.Context) (*Directory, error) {
	raws, err := s.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	dir := &Directory{Clinics: make([]clinic.Record, 0, len(raws))}
	for i, raw := range raws {
		rec, err := airtable.DecodeRecord(raw)
		if err != nil {
			dir.Skipped++
			s.logger.Warn("skipping undecodable row", "index", i, "error", err)
			continue
		}
		c := s.normalizer.Normalize(rec.Fields)
		c.ID = rec.ID
		dir.Clinics = append(dir.Clinics, c)
	}
	dir.Specialties = finder.Specialties(dir.Clinics)

	return dir, nil
}

// Filter applies the search criteria to a loaded directory.
func (s *Service) Filter(dir *Directory, criteria finder.Criteria) finder.Result {
	if criteria.RadiusMiles <= 0 {
		criteria.RadiusMiles = s.defaultRadius
	}
	return finder.Search(dir.Clinics, criteria, s.locator)
}

// Search loads the directory and filters it.
func (s *Service) Search(ctx context.Context, criteria finder.Criteria) (finder.Result, error) {
	dir, err := s.LoadDirectory(ctx)
	if err != nil {
		return finder.Result{}, err
	}
	return s.Filter(dir, criteria), nil
}

// ParseCriteria reads raw search input, as typed into the finder form or
// passed on the command line. Empty values mean "not set". The zip is only
// trimmed: a zip the locator cannot resolve is not an input error, the
// search falls back to exact zip matching instead.
func ParseCriteria(zip, specialty, radius string) (finder.Criteria, error) {
	c := finder.Criteria{
		Zip:       strings.TrimSpace(zip),
		Specialty: strings.TrimSpace(specialty),
	}

	if r := strings.TrimSpace(radius); r != "" {
		miles, err := strconv.ParseFloat(r, 64)
		if err != nil || math.IsNaN(miles) || miles <= 0 || miles > maxRadiusMiles {
			return finder.Criteria{}, fmt.Errorf("invalid radius %q", r)
		}
		c.RadiusMiles = miles
	}

	return c, nil
}

// maxRadiusMiles bounds the radius input.
const maxRadiusMiles = 500
