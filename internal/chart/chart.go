package chart

import (
	"encoding/json"
	"math"
	"time"
)

// Point is one (time, value) sample. NaN values are gaps.
type Point struct {
	T time.Time
	V float64
}

// MarshalJSON writes {"t": ..., "v": ...} with null for gaps.
func (p Point) MarshalJSON() ([]byte, error) {
	var v *float64
	if !math.IsNaN(p.V) && !math.IsInf(p.V, 0) {
		v = &p.V
	}
	return json.Marshal(struct {
		T time.Time `json:"t"`
		V *float64  `json:"v"`
	}{p.T, v})
}

// Series is a labelled polyline.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Marker is a single highlighted point drawn as a dot.
type Marker struct {
	Label string `json:"label"`
	Point Point  `json:"point"`
}

// Chart is a line chart over a time axis.
type Chart struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	XLabel  string   `json:"xLabel"`
	YLabel  string   `json:"yLabel"`
	Series  []Series `json:"series"`
	Markers []Marker `json:"markers,omitempty"`
}

// Empty reports whether the chart has no finite samples.
func (c Chart) Empty() bool {
	_, _, _, _, ok := c.bounds()
	return !ok
}

// bounds returns the time and value extent of all finite samples and markers.
func (c Chart) bounds() (tMin, tMax time.Time, vMin, vMax float64, ok bool) {
	vMin, vMax = math.Inf(1), math.Inf(-1)
	visit := func(p Point) {
		if math.IsNaN(p.V) || math.IsInf(p.V, 0) {
			return
		}
		if !ok || p.T.Before(tMin) {
			tMin = p.T
		}
		if !ok || p.T.After(tMax) {
			tMax = p.T
		}
		vMin = math.Min(vMin, p.V)
		vMax = math.Max(vMax, p.V)
		ok = true
	}
	for _, s := range c.Series {
		for _, p := range s.Points {
			visit(p)
		}
	}
	for _, m := range c.Markers {
		visit(m.Point)
	}
	return tMin, tMax, vMin, vMax, ok
}
