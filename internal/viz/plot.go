package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// maxPoints caps plotted series; longer ones are downsampled.
const maxPoints = 600

// Plot draws a single series.
func Plot(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(downsample(data, maxPoints),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Red,
	asciigraph.Blue,
}

// PlotComponents draws the chosen state components of a trajectory on one
// chart, one colour per component.
func PlotComponents(tr *dynamo.Trajectory, labels []string, indices []int, width, height int) (string, error) {
	if tr == nil || tr.Len() == 0 {
		return "", fmt.Errorf("empty trajectory")
	}
	dim := len(tr.States[0])

	series := make([][]float64, 0, len(indices))
	colors := make([]asciigraph.AnsiColor, 0, len(indices))
	names := make([]string, 0, len(indices))
	for n, i := range indices {
		if i < 0 || i >= dim {
			return "", fmt.Errorf("%w: component %d outside state of %d", dynamo.ErrDimensionMismatch, i, dim)
		}
		series = append(series, downsample(tr.Component(i), maxPoints))
		colors = append(colors, seriesColors[n%len(seriesColors)])
		name := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		names = append(names, name)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
		asciigraph.Caption(fmt.Sprintf("t = 0 .. %.4g", tr.Times[tr.Len()-1]))), nil
}

// PlotEnergy draws the energy series of a trajectory, if it has one.
func PlotEnergy(tr *dynamo.Trajectory, width, height int) string {
	if tr == nil || len(tr.Energies) == 0 {
		return ""
	}
	return Plot(tr.Energies, fmt.Sprintf("energy (drift %.3g)", tr.EnergyDrift), width, height)
}

// downsample keeps every k-th point so at most n remain, always including
// the last one.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	k := (len(data) + n - 1) / n
	out := make([]float64, 0, n+1)
	for i := 0; i < len(data); i += k {
		out = append(out, data[i])
	}
	if (len(data)-1)%k != 0 {
		out = append(out, data[len(data)-1])
	}
	return out
}
