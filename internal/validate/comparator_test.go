package validate_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

var _ = Describe("Validator", func() {
	var (
		params efc.Parameters
		ev     *efc.Evaluator
	)

	BeforeEach(func() {
		var err error
		params, err = efc.NewParameters(2.0, 5.0, 1.0, 10.0, 60)
		Expect(err).NotTo(HaveOccurred())
		ev, err = efc.NewEvaluator(params)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with a dataset generated by the model", func() {
		It("reports a zero fit metric", func() {
			ds, err := dataset.Synthesize(ev, "model", efc.Grid(params), 0, 0)
			Expect(err).NotTo(HaveOccurred())

			res, err := validate.Validate(params, ds)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.FitMetric).To(BeZero())
			Expect(res.Residuals).To(HaveEach(BeZero()))
		})

		It("counts samples clamped past the inflection radius", func() {
			rStar, ok := ev.InflectionRadius()
			Expect(ok).To(BeTrue())

			ds, err := dataset.Synthesize(ev, "far", []float64{rStar, 40 * params.LengthScale}, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			res, err := validate.Validate(params, ds)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Clamped).To(Equal(1))
			Expect(res.Predicted[1]).To(BeZero())
		})
	})

	Context("with uncertainties", func() {
		It("switches to chi-squared and records it", func() {
			ds, err := dataset.Synthesize(ev, "noisy", []float64{1, 2, 3, 4, 5, 6}, 0.5, 11)
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.Weighted()).To(BeTrue())

			res, err := validate.Validate(params, ds)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.MetricType).To(Equal(validate.MetricChiSquared))
			Expect(res.FitMetric).To(BeNumerically(">", 0))
			Expect(res.ReducedChiSquared).To(BeNumerically("~", res.FitMetric/2, 1e-12))
			Expect(res.Uncertainties).To(HaveLen(6))
		})
	})

	Context("with a constant offset", func() {
		It("reports the offset as the RMS metric", func() {
			radii := []float64{1, 3, 9, 27}
			points := make([]dataset.Point, len(radii))
			for i, r := range radii {
				v, _ := ev.Velocity(r)
				points[i] = dataset.Point{Radius: r, Velocity: v - 3}
			}

			res, err := validate.Validate(params, dataset.New("offset", points, false))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.MetricType).To(Equal(validate.MetricRMS))
			Expect(res.FitMetric).To(BeNumerically("~", 3, 1e-9))
		})
	})

	Context("when evaluation fails", func() {
		It("propagates the evaluator error with the radius", func() {
			ds := dataset.New("inf", []dataset.Point{{Radius: math.Inf(1), Velocity: 1}}, false)

			_, err := validate.Validate(params, ds)
			Expect(err).To(MatchError(efc.ErrPropagated))
			Expect(err).To(MatchError(efc.ErrInvalidInput))

			var pe *efc.PropagatedError
			Expect(err).To(BeAssignableToTypeOf(pe))
		})
	})
})
