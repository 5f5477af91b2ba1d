// Package geo resolves zip codes to coordinates from a fixed table and
// measures great-circle distances between them.
package geo

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// EarthRadiusMiles is the mean Earth radius used for distances.
const EarthRadiusMiles = 3958.8

//go:embed zipcodes.yaml
var zipcodesYAML []byte

// Coordinate is a WGS 84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Table maps zip strings to coordinates. It is never modified after
// construction and is safe for concurrent use.
type Table struct {
	coords map[string]Coordinate
}

// Lookup resolves a zip. The zip is an opaque key: no trimming or format
// checks are applied.
func (t *Table) Lookup(zip string) (Coordinate, bool) {
	c, ok := t.coords[zip]
	return c, ok
}

// Len returns the number of known zips.
func (t *Table) Len() int {
	return len(t.coords)
}

// Known returns the known zips in ascending order.
func (t *Table) Known() []string {
	zips := make([]string, 0, len(t.coords))
	for z := range t.coords {
		zips = append(zips, z)
	}
	sort.Strings(zips)
	return zips
}

// LoadTable parses a zip table document of the form
//
//	zipcodes:
//	  "78701": [30.2729, -97.7444]
func LoadTable(r io.Reader) (*Table, error) {
	var doc struct {
		Zipcodes map[string][]float64 `yaml:"zipcodes"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("load zip table: %w", err)
	}

	coords := make(map[string]Coordinate, len(doc.Zipcodes))
	for zip, pair := range doc.Zipcodes {
		if len(pair) != 2 {
			return nil, fmt.Errorf("load zip table: %s: want [lat, lon], got %d values", zip, len(pair))
		}
		c := Coordinate{Lat: pair[0], Lon: pair[1]}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return nil, fmt.Errorf("load zip table: %s: coordinate out of range", zip)
		}
		coords[zip] = c
	}
	return &Table{coords: coords}, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := LoadTable(bytes.NewReader(zipcodesYAML))
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the built-in Austin-area table.
func Default() *Table {
	return defaultTable()
}

// HaversineMiles returns the great-circle distance between a and b.
func HaversineMiles(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
