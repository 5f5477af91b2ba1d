// Package finder filters the clinic collection by specialty and by distance
// from a zip code.
//
// Search is a pure function over its inputs: it never modifies the records it
// is given, and the same inputs always produce the same output.
package finder

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/JonMunkholm/ohan/internal/clinic"
	"github.com/JonMunkholm/ohan/internal/geo"
)

// DefaultRadiusMiles applies when a zip search has no usable radius.
const DefaultRadiusMiles = 25.0

// Distance labels.
const (
	LabelNearby  = "Nearby"
	LabelSameZip = "Same Zip"
)

// nearbyMiles is the distance under which a clinic is labelled LabelNearby.
const nearbyMiles = 0.1

// Locator resolves a zip string to a coordinate.
type Locator interface {
	Lookup(zip string) (geo.Coordinate, bool)
}

// Criteria are the optional search inputs. Empty strings mean "not set".
type Criteria struct {
	Specialty   string  `json:"specialty,omitempty"`
	Zip         string  `json:"zip,omitempty"`
	RadiusMiles float64 `json:"radiusMiles,omitempty"`
}

// Normalized trims the text criteria and fills in the default radius.
func (c Criteria) Normalized() Criteria {
	c.Specialty = strings.TrimSpace(c.Specialty)
	c.Zip = strings.TrimSpace(c.Zip)
	if c.RadiusMiles <= 0 || math.IsNaN(c.RadiusMiles) || math.IsInf(c.RadiusMiles, 0) {
		c.RadiusMiles = DefaultRadiusMiles
	}
	return c
}

// Result is the filtered collection plus an optional user-facing notice.
type Result struct {
	Clinics []clinic.Record `json:"clinics"`

	// Notice is set when the query zip is not in the lookup table and the
	// search fell back to exact zip matching.
	Notice     string `json:"notice,omitempty"`
	UnknownZip bool   `json:"unknownZip,omitempty"`

	Criteria Criteria `json:"criteria"`
}

// Search applies the specialty filter, then the zip/radius filter.
//
// With a resolvable query zip, clinics within the radius are kept with their
// distance attached and sorted nearest first; clinics whose own zip is not in
// the table are kept only on an exact zip match, at distance 0. With an
// unknown query zip only exact zip matches are kept and Notice is set. With
// no zip, input order is kept and distance fields are cleared.
func Search(records []clinic.Record, criteria Criteria, loc Locator) Result {
	c := criteria.Normalized()

	matched := make([]clinic.Record, 0, len(records))
	for _, rec := range records {
		if c.Specialty == "" || MatchesSpecialty(rec.Specialty, c.Specialty) {
			matched = append(matched, rec.WithoutDistance())
		}
	}

	if c.Zip == "" {
		return Result{Clinics: matched, Criteria: c}
	}

	origin, ok := loc.Lookup(c.Zip)
	if !ok {
		exact := make([]clinic.Record, 0, len(matched))
		for _, rec := range matched {
			if rec.ZipCode == c.Zip {
				exact = append(exact, rec)
			}
		}
		return Result{
			Clinics:    exact,
			Notice:     unknownZipNotice(c.Zip),
			UnknownZip: true,
			Criteria:   c,
		}
	}

	near := make([]clinic.Record, 0, len(matched))
	for _, rec := range matched {
		pos, ok := loc.Lookup(rec.ZipCode)
		if !ok {
			if rec.ZipCode == c.Zip {
				near = append(near, rec.WithDistance(0, LabelSameZip))
			}
			continue
		}
		d := geo.HaversineMiles(origin, pos)
		if d <= c.RadiusMiles {
			near = append(near, rec.WithDistance(d, DistanceLabel(d)))
		}
	}

	slices.SortStableFunc(near, func(a, b clinic.Record) int {
		return cmp.Compare(*a.DistanceMiles, *b.DistanceMiles)
	})

	return Result{Clinics: near, Criteria: c}
}

// DistanceLabel formats a distance for display.
func DistanceLabel(miles float64) string {
	if miles < nearbyMiles {
		return LabelNearby
	}
	return fmt.Sprintf("%.1f mi", miles)
}

func unknownZipNotice(zip string) string {
	return fmt.Sprintf("We don't have location data for zip %s yet, so only clinics in that exact zip code are shown.", zip)
}

// MatchesSpecialty reports whether a clinic's specialty text matches the
// criterion, case-insensitively. It matches when one comma-separated part
// equals the criterion, or when the whole text contains it.
func MatchesSpecialty(specialty, criterion string) bool {
	want := strings.ToLower(strings.TrimSpace(criterion))
	if want == "" {
		return true
	}
	have := strings.ToLower(specialty)

	for _, part := range strings.Split(have, ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return strings.Contains(have, want)
}

// Specialties returns the distinct specialty parts across records, for a
// filter menu. Parts are trimmed and de-duplicated case-insensitively,
// keeping the first spelling seen, and sorted alphabetically.
func Specialties(records []clinic.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		for _, part := range strings.Split(rec.Specialty, ",") {
			part = strings.TrimSpace(part)
			key := strings.ToLower(part)
			if part == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, part)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
