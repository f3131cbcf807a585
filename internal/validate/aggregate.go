package validate

import "math"

// Metric type names written to result files.
const (
	MetricRMS        = "rms"
	MetricChiSquared = "chi_squared"
)

// Aggregator accumulates residuals between predicted and observed values.
type Aggregator interface {
	Name() string
	Observe(predicted, observed, sigma float64)
	Value() float64
	Reset()
}

// RMS is the root-mean-square residual. Sigma is ignored.
type RMS struct {
	sum     float64
	samples int
}

func NewRMS() *RMS {
	return &RMS{}
}

func (m *RMS) Name() string { return MetricRMS }

func (m *RMS) Observe(predicted, observed, sigma float64) {
	d := predicted - observed
	m.sum += d * d
	m.samples++
}

func (m *RMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sum / float64(m.samples))
}

func (m *RMS) Reset() {
	m.sum = 0
	m.samples = 0
}

// ChiSquared sums squared residuals weighted by 1/sigma^2.
type ChiSquared struct {
	sum     float64
	samples int
}

func NewChiSquared() *ChiSquared {
	return &ChiSquared{}
}

func (m *ChiSquared) Name() string { return MetricChiSquared }

func (m *ChiSquared) Observe(predicted, observed, sigma float64) {
	d := (predicted - observed) / sigma
	m.sum += d * d
	m.samples++
}

func (m *ChiSquared) Value() float64 {
	return m.sum
}

// Reduced divides chi-squared by the number of observations minus dof
// fitted parameters. It returns 0 when no degrees of freedom remain.
func (m *ChiSquared) Reduced(dof int) float64 {
	n := m.samples - dof
	if n <= 0 {
		return 0
	}
	return m.sum / float64(n)
}

func (m *ChiSquared) Reset() {
	m.sum = 0
	m.samples = 0
}
