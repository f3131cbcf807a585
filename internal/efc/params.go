package efc

import (
	"fmt"
	"math"
)

// DerivativeMode selects how dEf/dr is computed.
type DerivativeMode string

const (
	DerivativeAnalytic DerivativeMode = "analytic"
	DerivativeCentral  DerivativeMode = "central"
)

// Parameter names as they appear in configuration files and outputs.
const (
	ParamEntropyScale   = "entropy_scale"
	ParamLengthScale    = "length_scale"
	ParamFlowConstant   = "flow_constant"
	ParamVelocityScale  = "velocity_scale"
	ParamGridResolution = "grid_resolution"
	ParamTimestepCount  = "timestep_count"
	ParamSeed           = "seed"
	ParamGridMaxRadius  = "grid_max_radius"
)

// DefaultGridExtent is the grid span in length scales when GridMaxRadius is unset.
const DefaultGridExtent = 10.0

// Parameters is the model configuration record. It is passed by value and
// never modified in place; With returns a new validated copy.
type Parameters struct {
	EntropyScale   float64        `json:"entropy_scale"`
	LengthScale    float64        `json:"length_scale"`
	FlowConstant   float64        `json:"flow_constant"`
	VelocityScale  float64        `json:"velocity_scale"`
	GridResolution int            `json:"grid_resolution"`
	TimestepCount  int            `json:"timestep_count"`
	Seed           int64          `json:"seed"`
	GridMaxRadius  float64        `json:"grid_max_radius,omitempty"`
	Derivative     DerivativeMode `json:"derivative,omitempty"`
}

// NewParameters builds and validates a parameter set with the analytic
// derivative and a default grid extent.
func NewParameters(entropyScale, lengthScale, flowConstant, velocityScale float64, gridResolution int) (Parameters, error) {
	p := Parameters{
		EntropyScale:   entropyScale,
		LengthScale:    lengthScale,
		FlowConstant:   flowConstant,
		VelocityScale:  velocityScale,
		GridResolution: gridResolution,
		Derivative:     DerivativeAnalytic,
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks every field against its domain and reports the first
// violation as a *ParameterError.
func (p Parameters) Validate() error {
	scales := []struct {
		name  string
		value float64
	}{
		{ParamEntropyScale, p.EntropyScale},
		{ParamLengthScale, p.LengthScale},
		{ParamFlowConstant, p.FlowConstant},
		{ParamVelocityScale, p.VelocityScale},
	}
	for _, s := range scales {
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) {
			return &ParameterError{Field: s.name, Value: s.value, Reason: "must be finite"}
		}
		if s.value <= 0 {
			return &ParameterError{Field: s.name, Value: s.value, Reason: "must be > 0"}
		}
	}

	if p.GridResolution < 1 {
		return &ParameterError{Field: ParamGridResolution, Value: p.GridResolution, Reason: "must be >= 1"}
	}
	if p.TimestepCount < 0 {
		return &ParameterError{Field: ParamTimestepCount, Value: p.TimestepCount, Reason: "must be >= 0"}
	}
	if math.IsNaN(p.GridMaxRadius) || math.IsInf(p.GridMaxRadius, 0) || p.GridMaxRadius < 0 {
		return &ParameterError{Field: ParamGridMaxRadius, Value: p.GridMaxRadius, Reason: "must be finite and >= 0"}
	}

	switch p.Derivative {
	case "", DerivativeAnalytic, DerivativeCentral:
	default:
		return &ParameterError{Field: "derivative", Value: p.Derivative, Reason: "must be analytic or central"}
	}

	return nil
}

// MaxRadius returns the outer edge of the evaluation grid.
func (p Parameters) MaxRadius() float64 {
	if p.GridMaxRadius > 0 {
		return p.GridMaxRadius
	}
	return DefaultGridExtent * p.LengthScale
}

// Mode returns the derivative mode, defaulting to analytic.
func (p Parameters) Mode() DerivativeMode {
	if p.Derivative == "" {
		return DerivativeAnalytic
	}
	return p.Derivative
}

// Map returns the numeric parameters keyed by name.
func (p Parameters) Map() map[string]float64 {
	return map[string]float64{
		ParamEntropyScale:   p.EntropyScale,
		ParamLengthScale:    p.LengthScale,
		ParamFlowConstant:   p.FlowConstant,
		ParamVelocityScale:  p.VelocityScale,
		ParamGridResolution: float64(p.GridResolution),
		ParamTimestepCount:  float64(p.TimestepCount),
		ParamSeed:           float64(p.Seed),
		ParamGridMaxRadius:  p.GridMaxRadius,
	}
}

// With returns a validated copy of p with one named parameter replaced.
// Integer parameters are truncated toward zero.
func (p Parameters) With(name string, value float64) (Parameters, error) {
	q := p
	switch name {
	case ParamEntropyScale:
		q.EntropyScale = value
	case ParamLengthScale:
		q.LengthScale = value
	case ParamFlowConstant:
		q.FlowConstant = value
	case ParamVelocityScale:
		q.VelocityScale = value
	case ParamGridResolution:
		q.GridResolution = int(value)
	case ParamTimestepCount:
		q.TimestepCount = int(value)
	case ParamSeed:
		q.Seed = int64(value)
	case ParamGridMaxRadius:
		q.GridMaxRadius = value
	default:
		return p, &ParameterError{Field: name, Value: value, Reason: "unknown parameter"}
	}
	if err := q.Validate(); err != nil {
		return p, err
	}
	return q, nil
}

// TunableParams lists the continuous parameters that shape the field.
func TunableParams() []string {
	return []string{ParamEntropyScale, ParamLengthScale, ParamFlowConstant, ParamVelocityScale}
}

func (p Parameters) String() string {
	return fmt.Sprintf("S=%.4g L=%.4g K=%.4g V=%.4g n=%d", p.EntropyScale, p.LengthScale, p.FlowConstant, p.VelocityScale, p.GridResolution)
}
