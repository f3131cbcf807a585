package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

const (
	plotWidth  = 72
	plotHeight = 14
)

// Summary renders the headline numbers of a validation result.
func Summary(res *validate.Result) string {
	if res == nil {
		return ""
	}
	lines := []string{
		Title.Render(res.DatasetID),
		row("metric", fmt.Sprintf("%s = %.6g", res.MetricType, res.FitMetric)),
		row("rms", fmt.Sprintf("%.6g", res.RMS)),
	}
	if res.MetricType == validate.MetricChiSquared && res.ReducedChiSquared > 0 {
		lines = append(lines, row("reduced chi2", fmt.Sprintf("%.6g", res.ReducedChiSquared)))
	}
	lines = append(lines,
		row("points", fmt.Sprintf("%d", res.Points)),
		row("parameters", res.Parameters.String()),
	)
	if res.Clamped > 0 {
		lines = append(lines, Warning.Render(fmt.Sprintf("%d point(s) clamped to zero velocity", res.Clamped)))
	}
	return GlassPanel.Render(strings.Join(lines, "\n"))
}

// ResultChart plots observed and predicted velocities in reference order.
func ResultChart(res *validate.Result) string {
	if res == nil || len(res.Observed) == 0 {
		return ""
	}
	caption := fmt.Sprintf("velocity at %d reference radii (%.3g..%.3g)",
		len(res.Radii), res.Radii[0], res.Radii[len(res.Radii)-1])
	return asciigraph.PlotMany([][]float64{res.Observed, res.Predicted},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Goldenrod, asciigraph.DeepSkyBlue),
		asciigraph.SeriesLegends("observed", "predicted"),
		asciigraph.Caption(caption),
	)
}

// FieldChart plots one field quantity over its coordinate array.
func FieldChart(f *efc.Field, quantity string) (string, error) {
	if f == nil || f.Len() == 0 {
		return "", nil
	}
	var data []float64
	switch quantity {
	case "velocity":
		data = f.Velocity
	case "entropy":
		data = f.Entropy
	case "potential":
		data = f.Potential
	default:
		return "", fmt.Errorf("unknown quantity: %s", quantity)
	}
	caption := fmt.Sprintf("%s over r = %.3g..%.3g", quantity, f.Radii[0], f.Radii[f.Len()-1])
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	), nil
}
