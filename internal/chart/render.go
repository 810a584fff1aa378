package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Default image size for rendered charts.
const (
	DefaultWidth  = 1200
	DefaultHeight = 500
)

const (
	marginLeft   = 70.0
	marginRight  = 30.0
	marginTop    = 45.0
	marginBottom = 60.0
	gridLines    = 5
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd"}

// RenderPNG draws c as a PNG image of the given size into w.
func RenderPNG(w io.Writer, c Chart, width, height int) error {
	if width <= int(marginLeft+marginRight) || height <= int(marginTop+marginBottom) {
		return fmt.Errorf("chart size %dx%d too small", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#000000")
	dc.DrawStringAnchored(c.Title, float64(width)/2, marginTop/2, 0.5, 0.5)

	plot := plotArea{
		x0: marginLeft,
		y0: marginTop,
		x1: float64(width) - marginRight,
		y1: float64(height) - marginBottom,
	}

	tMin, tMax, vMin, vMax, ok := c.bounds()
	if !ok {
		dc.SetHexColor("#666666")
		dc.DrawStringAnchored("No data", (plot.x0+plot.x1)/2, (plot.y0+plot.y1)/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}
	if !tMax.After(tMin) {
		tMin = tMin.Add(-time.Hour)
		tMax = tMax.Add(time.Hour)
	}
	if vMax-vMin < 1e-9 {
		vMin--
		vMax++
	}
	pad := (vMax - vMin) * 0.05
	plot.tMin, plot.tMax = tMin, tMax
	plot.vMin, plot.vMax = vMin-pad, vMax+pad

	drawAxes(dc, plot, c)

	for i, s := range c.Series {
		dc.SetHexColor(palette[i%len(palette)])
		dc.SetLineWidth(2)
		drawPolyline(dc, plot, s.Points)
	}
	for _, m := range c.Markers {
		if math.IsNaN(m.Point.V) {
			continue
		}
		dc.SetHexColor("#d62728")
		dc.DrawCircle(plot.x(m.Point.T), plot.y(m.Point.V), 6)
		dc.Fill()
	}
	drawLegend(dc, plot, c)

	return dc.EncodePNG(w)
}

type plotArea struct {
	x0, y0, x1, y1 float64
	tMin, tMax     time.Time
	vMin, vMax     float64
}

func (p plotArea) x(t time.Time) float64 {
	span := p.tMax.Sub(p.tMin).Seconds()
	return p.x0 + (t.Sub(p.tMin).Seconds()/span)*(p.x1-p.x0)
}

func (p plotArea) y(v float64) float64 {
	return p.y1 - ((v-p.vMin)/(p.vMax-p.vMin))*(p.y1-p.y0)
}

func drawAxes(dc *gg.Context, p plotArea, c Chart) {
	dc.SetLineWidth(1)
	for i := 0; i <= gridLines; i++ {
		frac := float64(i) / gridLines

		v := p.vMin + frac*(p.vMax-p.vMin)
		y := p.y(v)
		dc.SetHexColor("#e0e0e0")
		dc.DrawLine(p.x0, y, p.x1, y)
		dc.Stroke()
		dc.SetHexColor("#333333")
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", v), p.x0-6, y, 1, 0.5)

		x := p.x0 + frac*(p.x1-p.x0)
		t := p.tMin.Add(time.Duration(frac * float64(p.tMax.Sub(p.tMin))))
		dc.SetHexColor("#e0e0e0")
		dc.DrawLine(x, p.y0, x, p.y1)
		dc.Stroke()
		dc.SetHexColor("#333333")
		dc.DrawStringAnchored(t.Format("Jan 02 15:04"), x, p.y1+14, 0.5, 0.5)
	}

	dc.SetHexColor("#000000")
	dc.DrawRectangle(p.x0, p.y0, p.x1-p.x0, p.y1-p.y0)
	dc.Stroke()

	dc.DrawStringAnchored(c.XLabel, (p.x0+p.x1)/2, p.y1+38, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 16, (p.y0+p.y1)/2)
	dc.DrawStringAnchored(c.YLabel, 16, (p.y0+p.y1)/2, 0.5, 0.5)
	dc.Pop()
}

// drawPolyline strokes consecutive finite points; NaN starts a new segment.
func drawPolyline(dc *gg.Context, p plotArea, points []Point) {
	open := false
	for _, pt := range points {
		if math.IsNaN(pt.V) || math.IsInf(pt.V, 0) {
			if open {
				dc.Stroke()
				open = false
			}
			continue
		}
		if !open {
			dc.MoveTo(p.x(pt.T), p.y(pt.V))
			open = true
			continue
		}
		dc.LineTo(p.x(pt.T), p.y(pt.V))
	}
	if open {
		dc.Stroke()
	}
}

func drawLegend(dc *gg.Context, p plotArea, c Chart) {
	x := p.x0 + 10
	y := p.y0 + 14
	for i, s := range c.Series {
		dc.SetHexColor(palette[i%len(palette)])
		dc.DrawRectangle(x, y-5, 14, 10)
		dc.Fill()
		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(s.Label, x+20, y, 0, 0.5)
		y += 16
	}
	for _, m := range c.Markers {
		dc.SetHexColor("#d62728")
		dc.DrawCircle(x+7, y, 5)
		dc.Fill()
		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(m.Label, x+20, y, 0, 0.5)
		y += 16
	}
}
