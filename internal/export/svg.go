package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

const (
	observedColor  = "#ffaa00"
	predictedColor = "#00ccff"
	curveColor     = "#00ff88"
	axisColor      = "#666688"
	margin         = 48.0
)

// bounds maps data coordinates onto the plot area.
type bounds struct {
	minX, maxX, minY, maxY float64
	width, height          float64
}

func (b bounds) x(v float64) float64 {
	return margin + (v-b.minX)/(b.maxX-b.minX)*(b.width-2*margin)
}

func (b bounds) y(v float64) float64 {
	return b.height - margin - (v-b.minY)/(b.maxY-b.minY)*(b.height-2*margin)
}

// RotationCurveSVG renders observed velocities (with error bars when the
// result is weighted), predicted velocities at the reference radii, and
// the model curve when curve is non-nil.
func RotationCurveSVG(res *validate.Result, curve *efc.Field, width, height int) string {
	if res == nil || len(res.Radii) == 0 {
		return ""
	}

	b := bounds{
		minX: 0, maxX: res.Radii[0],
		minY: 0, maxY: res.Observed[0],
		width: float64(width), height: float64(height),
	}
	grow := func(x, y float64) {
		b.minX = math.Min(b.minX, x)
		b.maxX = math.Max(b.maxX, x)
		b.minY = math.Min(b.minY, y)
		b.maxY = math.Max(b.maxY, y)
	}
	for i, r := range res.Radii {
		sigma := 0.0
		if res.Uncertainties != nil {
			sigma = res.Uncertainties[i]
		}
		grow(r, res.Observed[i]+sigma)
		grow(r, res.Observed[i]-sigma)
		grow(r, res.Predicted[i])
	}
	if curve != nil {
		for i := range curve.Radii {
			grow(curve.Radii[i], curve.Velocity[i])
		}
	}

	// Add padding
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.maxX += rangeX * 0.05
	b.maxY += rangeY * 0.1
	if b.minY < 0 {
		b.minY -= rangeY * 0.1
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="12">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	writeAxes(&sb, b)

	if curve != nil && curve.Len() > 1 {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, curveColor))
		for i, r := range curve.Radii {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", b.x(r), b.y(curve.Velocity[i])))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", b.x(r), b.y(curve.Velocity[i])))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString(fmt.Sprintf("<g stroke=\"%s\" fill=\"%s\">\n", observedColor, observedColor))
	for i, r := range res.Radii {
		cx, cy := b.x(r), b.y(res.Observed[i])
		if res.Uncertainties != nil {
			sigma := res.Uncertainties[i]
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, cx, b.y(res.Observed[i]-sigma), cx, b.y(res.Observed[i]+sigma)))
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3"/>
`, cx, cy))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf("<g fill=\"none\" stroke=\"%s\">\n", predictedColor))
	for i, r := range res.Radii {
		cx, cy := b.x(r), b.y(res.Predicted[i])
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="6" height="6"/>
`, cx-3, cy-3))
	}
	sb.WriteString("</g>\n")

	writeLegend(&sb, b, res)
	sb.WriteString("</svg>")
	return sb.String()
}

func writeAxes(sb *strings.Builder, b bounds) {
	x0, x1 := margin, b.width-margin
	y0, y1 := b.height-margin, margin
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" fill="none">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, axisColor, x0, y0, x1, y0, x0, y0, x0, y1))

	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", axisColor))
	for i := 0; i <= 4; i++ {
		xv := b.minX + float64(i)/4*(b.maxX-b.minX)
		yv := b.minY + float64(i)/4*(b.maxY-b.minY)
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%.3g</text>
`, b.x(xv), y0+16, xv))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
`, x0-6, b.y(yv)+4, yv))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">radius</text>
`, (x0+x1)/2, b.height-8))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f">velocity</text>
`, 8.0, margin-16))
	sb.WriteString("</g>\n")
}

func writeLegend(sb *strings.Builder, b bounds, res *validate.Result) {
	x := b.width - margin - 200
	sb.WriteString(fmt.Sprintf(`<g>
<text x="%.1f" y="%.1f" fill="%s">%s</text>
<text x="%.1f" y="%.1f" fill="%s">observed</text>
<text x="%.1f" y="%.1f" fill="%s">predicted</text>
<text x="%.1f" y="%.1f" fill="%s">%s = %.4g</text>
</g>
`,
		x, margin-24.0, "#ffffff", escape(res.DatasetID),
		x, margin-8.0, observedColor,
		x+80, margin-8.0, predictedColor,
		margin, margin-24.0, "#ffffff", res.MetricType, res.FitMetric))
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
