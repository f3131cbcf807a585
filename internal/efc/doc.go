// Package efc provides the energy-flow field model and its core primitives.
//
// The package defines the parameter record and the pure field evaluator:
//
//   - [Parameters]: validated, immutable model configuration
//   - [Evaluator]: closed-form entropy, potential and rotation velocity
//   - [Field]: evaluated arrays over a coordinate array
//   - [Grid]: evenly spaced coordinate array of the configured resolution
//
// # Model
//
// With x = r/L the evaluator computes
//
//	S(r)   = Smax * (1 - exp(-x))
//	rho(r) = -K / sqrt(1 + x^2)
//	Ef(r)  = rho(r) * (1 - S(r))
//	v(r)   = V * sqrt(max(0, r * dEf/dr))
//
// A sample whose potential derivative is negative has its velocity clamped
// to zero and is reported as clamped.
//
// # Example
//
//	p, _ := efc.NewParameters(1.0, 10.0, 1.0, 1.0, 100)
//	ev, _ := efc.NewEvaluator(p)
//	field, err := ev.Evaluate(efc.Grid(p))
//
// # Thread Safety
//
// Evaluator holds no mutable state and may be shared between goroutines.
package efc
