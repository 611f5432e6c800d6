// Package export writes trajectories as standalone SVG images.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/dynstep/internal/analysis"
	"github.com/san-kum/dynstep/internal/viz"
)

const (
	background = "#0a0a0a"
	DotColor   = "#00ff88"
	PathColor  = "#00d7d7"
)

func header(bw *bufio.Writer, width, height float64) {
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasSVG draws every lit sub-pixel of c as a dot, scale units apart.
func CanvasSVG(w io.Writer, c *viz.Canvas, scale float64) error {
	if c == nil {
		return fmt.Errorf("nil canvas")
	}
	pw, ph := c.PixelSize()
	bw := bufio.NewWriter(w)
	header(bw, float64(pw)*scale, float64(ph)*scale)

	fmt.Fprintf(bw, "<g fill=%q>\n", DotColor)
	r := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// PathSVG draws the points as one polyline, scaled to fill width x height
// with a 10% margin. The y axis points up.
func PathSVG(w io.Writer, points []analysis.Point, width, height int, stroke string) error {
	if len(points) < 2 {
		return fmt.Errorf("need at least 2 points, got %d", len(points))
	}

	p := analysis.PhasePortrait{Points: points}
	minX, maxX, minY, maxY := p.Bounds()
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	bw := bufio.NewWriter(w)
	header(bw, float64(width), float64(height))
	fmt.Fprintf(bw, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"", stroke)
	for i, pt := range points {
		x := (pt.X - minX) / rangeX * float64(width)
		y := float64(height) - (pt.Y-minY)/rangeY*float64(height)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(bw, "%s%.1f,%.1f ", cmd, x, y)
	}
	bw.WriteString("\"/>\n</svg>\n")
	return bw.Flush()
}

// PortraitCanvas rasterises a phase portrait onto a Braille canvas of
// cols x rows characters, joining consecutive samples.
func PortraitCanvas(p *analysis.PhasePortrait, cols, rows int) *viz.Canvas {
	c := viz.NewCanvas(cols, rows)
	if p == nil || len(p.Points) == 0 {
		return c
	}
	minX, maxX, minY, maxY := p.Bounds()
	view := viz.Fit(c, minX, maxX, minY, maxY)
	px, py := view.Map(p.Points[0].X, p.Points[0].Y)
	for _, pt := range p.Points[1:] {
		x, y := view.Map(pt.X, pt.Y)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
	c.Set(px, py)
	return c
}
