package efc

import (
	"math"
)

// centralStep is the finite-difference step in length scales.
const centralStep = 1e-6

// Sample is the field state at a single radius.
type Sample struct {
	Radius    float64 `json:"radius"`
	Entropy   float64 `json:"entropy"`
	Potential float64 `json:"potential"`
	Velocity  float64 `json:"velocity"`
	Clamped   bool    `json:"clamped,omitempty"`
}

// Field holds evaluated arrays aligned with the input coordinate array.
type Field struct {
	Radii     []float64
	Entropy   []float64
	Potential []float64
	Velocity  []float64
	Clamped   []bool
}

func (f *Field) Len() int {
	return len(f.Radii)
}

func (f *Field) Sample(i int) Sample {
	return Sample{
		Radius:    f.Radii[i],
		Entropy:   f.Entropy[i],
		Potential: f.Potential[i],
		Velocity:  f.Velocity[i],
		Clamped:   f.Clamped[i],
	}
}

func (f *Field) Samples() []Sample {
	out := make([]Sample, f.Len())
	for i := range out {
		out[i] = f.Sample(i)
	}
	return out
}

// ClampedCount returns how many samples had a negative potential derivative.
func (f *Field) ClampedCount() int {
	n := 0
	for _, c := range f.Clamped {
		if c {
			n++
		}
	}
	return n
}

// Evaluator computes the entropy field, energy-flow potential and rotation
// velocity for a fixed parameter set.
type Evaluator struct {
	params Parameters
	sMax   float64
	length float64
	flow   float64
	vScale float64
	mode   DerivativeMode
}

func NewEvaluator(p Parameters) (*Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		params: p,
		sMax:   p.EntropyScale,
		length: p.LengthScale,
		flow:   p.FlowConstant,
		vScale: p.VelocityScale,
		mode:   p.Mode(),
	}, nil
}

func (e *Evaluator) Params() Parameters {
	return e.params
}

// Entropy is monotonically increasing in r with S(0)=0 and S<=Smax.
func (e *Evaluator) Entropy(r float64) float64 {
	return e.sMax * -math.Expm1(-r/e.length)
}

// Density is the binding-well density proxy, negative everywhere and
// rising toward zero at large radius.
func (e *Evaluator) Density(r float64) float64 {
	x := r / e.length
	return -e.flow / math.Sqrt(1+x*x)
}

// Potential returns Ef = rho * (1 - S).
func (e *Evaluator) Potential(r float64) float64 {
	return e.Density(r) * (1 - e.Entropy(r))
}

// PotentialDerivative returns dEf/dr using the configured mode.
func (e *Evaluator) PotentialDerivative(r float64) float64 {
	if e.mode == DerivativeCentral {
		return e.centralDerivative(r)
	}
	return e.analyticDerivative(r)
}

func (e *Evaluator) analyticDerivative(r float64) float64 {
	x := r / e.length
	q := 1 + x*x
	dRho := e.flow * x / (e.length * q * math.Sqrt(q))
	dS := e.sMax / e.length * math.Exp(-x)
	return dRho*(1-e.Entropy(r)) - e.Density(r)*dS
}

func (e *Evaluator) centralDerivative(r float64) float64 {
	h := centralStep * e.length
	if r < h {
		return (e.Potential(r+h) - e.Potential(r)) / h
	}
	return (e.Potential(r+h) - e.Potential(r-h)) / (2 * h)
}

// Velocity returns V*sqrt(r*dEf/dr). When the derivative is negative the
// velocity is clamped to zero and clamped is true.
func (e *Evaluator) Velocity(r float64) (v float64, clamped bool) {
	d := e.PotentialDerivative(r)
	if d < 0 {
		return 0, true
	}
	return e.vScale * math.Sqrt(r*d), false
}

// InflectionRadius returns the radius where S reaches 1 and the factor
// (1 - S) changes sign. It exists only when Smax > 1.
func (e *Evaluator) InflectionRadius() (float64, bool) {
	if e.sMax <= 1 {
		return 0, false
	}
	return -e.length * math.Log1p(-1/e.sMax), true
}

// Sample validates r and evaluates the field there.
func (e *Evaluator) Sample(r float64) (Sample, error) {
	if err := checkRadius(-1, r); err != nil {
		return Sample{}, err
	}
	return e.sample(r), nil
}

func (e *Evaluator) sample(r float64) Sample {
	v, clamped := e.Velocity(r)
	return Sample{
		Radius:    r,
		Entropy:   e.Entropy(r),
		Potential: e.Potential(r),
		Velocity:  v,
		Clamped:   clamped,
	}
}

// Evaluate computes the field over radii. Every radius is checked before
// any evaluation; the input slice is not modified.
func (e *Evaluator) Evaluate(radii []float64) (*Field, error) {
	for i, r := range radii {
		if err := checkRadius(i, r); err != nil {
			return nil, err
		}
	}

	n := len(radii)
	f := &Field{
		Radii:     make([]float64, n),
		Entropy:   make([]float64, n),
		Potential: make([]float64, n),
		Velocity:  make([]float64, n),
		Clamped:   make([]bool, n),
	}
	copy(f.Radii, radii)

	parallelFor(n, parallelMinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			s := e.sample(f.Radii[i])
			f.Entropy[i] = s.Entropy
			f.Potential[i] = s.Potential
			f.Velocity[i] = s.Velocity
			f.Clamped[i] = s.Clamped
		}
	})
	return f, nil
}

func checkRadius(i int, r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return &InputError{Index: i, Value: r, Reason: "radius must be finite"}
	}
	if r < 0 {
		return &InputError{Index: i, Value: r, Reason: "radius must be >= 0"}
	}
	return nil
}

// Grid returns GridResolution evenly spaced radii on [0, MaxRadius].
func Grid(p Parameters) []float64 {
	n := p.GridResolution
	if n < 1 {
		return nil
	}
	radii := make([]float64, n)
	if n == 1 {
		return radii
	}
	rMax := p.MaxRadius()
	step := rMax / float64(n-1)
	for i := range radii {
		radii[i] = float64(i) * step
	}
	radii[n-1] = rMax
	return radii
}
