// Package validate compares the field model against reference rotation
// curves and reduces the residuals to a single fit metric.
package validate

import (
	"time"

	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
)

// Result is the outcome of one validation pass. All slices are aligned
// with the reference dataset order.
type Result struct {
	DatasetID         string         `json:"dataset_id"`
	Parameters        efc.Parameters `json:"parameters_used"`
	FitMetric         float64        `json:"fit_metric"`
	MetricType        string         `json:"metric_type"`
	RMS               float64        `json:"rms"`
	ReducedChiSquared float64        `json:"reduced_chi_squared,omitempty"`
	Points            int            `json:"points"`
	Clamped           int            `json:"clamped"`
	Timestamp         time.Time      `json:"timestamp"`

	Radii         []float64 `json:"radii"`
	Observed      []float64 `json:"observed"`
	Uncertainties []float64 `json:"uncertainties,omitempty"`
	Predicted     []float64 `json:"predicted"`
	Residuals     []float64 `json:"residuals"`
}

// Validator runs validation passes. The zero value is not usable; use New.
type Validator struct {
	now func() time.Time
}

func New() *Validator {
	return &Validator{now: time.Now}
}

// WithClock returns a validator that stamps results using now.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate evaluates the model at every reference radius and aggregates
// the residuals. Unweighted datasets use RMS; weighted datasets use
// chi-squared with weight 1/sigma^2.
func Validate(p efc.Parameters, ds *dataset.Dataset) (*Result, error) {
	return New().Validate(p, ds)
}

func (v *Validator) Validate(p efc.Parameters, ds *dataset.Dataset) (*Result, error) {
	ev, err := efc.NewEvaluator(p)
	if err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		path := ""
		if ds != nil {
			path = ds.Path
		}
		return nil, &efc.DatasetError{Path: path, Reason: "empty dataset"}
	}

	n := ds.Len()
	res := &Result{
		DatasetID:     ds.ID,
		Parameters:    p,
		Points:        n,
		Radii:         ds.Radii(),
		Observed:      ds.Velocities(),
		Uncertainties: ds.Uncertainties(),
		Predicted:     make([]float64, n),
		Residuals:     make([]float64, n),
	}

	rms := NewRMS()
	chi := NewChiSquared()
	weighted := ds.Weighted()

	for i, pt := range ds.Points {
		s, err := ev.Sample(pt.Radius)
		if err != nil {
			return nil, &efc.PropagatedError{Radius: pt.Radius, Wrapped: err}
		}
		if s.Clamped {
			res.Clamped++
		}
		res.Predicted[i] = s.Velocity
		res.Residuals[i] = s.Velocity - pt.Velocity

		rms.Observe(s.Velocity, pt.Velocity, pt.Uncertainty)
		if weighted {
			chi.Observe(s.Velocity, pt.Velocity, pt.Uncertainty)
		}
	}

	res.RMS = rms.Value()
	if weighted {
		res.MetricType = chi.Name()
		res.FitMetric = chi.Value()
		res.ReducedChiSquared = chi.Reduced(len(efc.TunableParams()))
	} else {
		res.MetricType = rms.Name()
		res.FitMetric = res.RMS
	}
	res.Timestamp = v.now().UTC()
	return res, nil
}
