package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// ErrNotFound is returned when a country or city is not in the catalog.
var ErrNotFound = errors.New("location not found")

// Required dataset columns.
const (
	columnCountry = "country"
	columnCity    = "city_ascii"
	columnLat     = "lat"
	columnLng     = "lng"
)

// Catalog is the read-only city table. Safe for concurrent reads.
type Catalog struct {
	records   []models.LocationRecord
	byCountry map[string][]int // country -> record indexes in dataset order
	countries []string
}

// Load reads the dataset at path. Any malformed row fails the load.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location dataset: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return New(records), nil
}

// Parse reads CSV rows with a header containing country, city_ascii, lat and lng.
// Other columns are ignored.
func Parse(r io.Reader) ([]models.LocationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	cols := make([]int, 0, 4)
	for _, name := range []string{columnCountry, columnCity, columnLat, columnLng} {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols = append(cols, i)
	}

	var out []models.LocationRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, cols []int) (models.LocationRecord, error) {
	for _, c := range cols {
		if c >= len(row) {
			return models.LocationRecord{}, fmt.Errorf("expected at least %d fields, got %d", c+1, len(row))
		}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[cols[2]]), 64)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(row[cols[3]]), 64)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("parse lng: %w", err)
	}
	return models.LocationRecord{
		Country:   strings.TrimSpace(row[cols[0]]),
		City:      strings.TrimSpace(row[cols[1]]),
		Latitude:  lat,
		Longitude: lng,
	}, nil
}

// New builds a Catalog from already parsed records. Duplicates are kept.
func New(records []models.LocationRecord) *Catalog {
	c := &Catalog{
		records:   append([]models.LocationRecord(nil), records...),
		byCountry: make(map[string][]int),
	}
	for i, r := range c.records {
		if _, ok := c.byCountry[r.Country]; !ok {
			c.countries = append(c.countries, r.Country)
		}
		c.byCountry[r.Country] = append(c.byCountry[r.Country], i)
	}
	sort.Strings(c.countries)
	return c
}

// Countries returns every country in the dataset, sorted.
func (c *Catalog) Countries() []string {
	return append([]string(nil), c.countries...)
}

// CitiesFor returns the cities of country in dataset order, or nil if unknown.
func (c *Catalog) CitiesFor(country string) []string {
	idxs := c.byCountry[country]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]string, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.records[i].City)
	}
	return out
}

// CoordinatesFor returns the coordinates of the first matching city under country.
func (c *Catalog) CoordinatesFor(country, city string) (float64, float64, error) {
	for _, i := range c.byCountry[country] {
		if r := c.records[i]; r.City == city {
			return r.Latitude, r.Longitude, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s, %s", ErrNotFound, city, country)
}

// HasCountry reports whether country has at least one city.
func (c *Catalog) HasCountry(country string) bool {
	return len(c.byCountry[country]) > 0
}

// Len returns the number of loaded records.
func (c *Catalog) Len() int {
	return len(c.records)
}
