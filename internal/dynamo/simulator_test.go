package dynamo_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/integrators"
)

type oscillator struct{}

func (oscillator) Dim() int { return 2 }
func (oscillator) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}
func (oscillator) Energy(x dynamo.State) float64 { return 0.5 * (x[0]*x[0] + x[1]*x[1]) }

var decay = dynamo.FromFunc(1, func(x dynamo.State, _ float64) (dynamo.State, error) {
	return dynamo.State{-x[0]}, nil
})

// countMetric counts observed states.
type countMetric struct{ n int }

func (m *countMetric) Name() string                       { return "count" }
func (m *countMetric) Observe(int, float64, dynamo.State) { m.n++ }
func (m *countMetric) Value() float64                     { return float64(m.n) }
func (m *countMetric) Reset()                             { m.n = 0 }

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("fixed step count", func() {
		It("records the initial state only for zero steps", func() {
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(1))
			Expect(tr.States[0]).To(Equal(dynamo.State{1}))
			Expect(tr.StepsTaken).To(BeZero())
		})

		It("records steps+1 states at exact multiples of dt", func() {
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 10}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(11))
			Expect(tr.StepsTaken).To(Equal(10))
			for i, ti := range tr.Times {
				Expect(ti).To(Equal(float64(i) * 0.1))
			}
			Expect(tr.Last()[0]).To(BeNumerically("~", math.Pow(0.9, 10), 1e-12))
		})

		It("does not touch the initial state", func() {
			x0 := dynamo.State{1, 0}
			_, err := dynamo.Run(ctx, oscillator{}, integrators.NewRK4(), x0, dynamo.Config{Dt: 0.1, Steps: 5}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(x0).To(Equal(dynamo.State{1, 0}))
		})

		It("calls observers once per recorded state", func() {
			var calls []int
			obs := func(step int, _ float64, _ dynamo.State) { calls = append(calls, step) }

			_, err := dynamo.Run(ctx, decay, integrators.NewMidpoint(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 4}, obs)
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal([]int{0, 1, 2, 3, 4}))
		})

		It("is bit-for-bit deterministic", func() {
			cfg := dynamo.Config{Dt: 0.05, Steps: 200}
			a, err := dynamo.Run(ctx, oscillator{}, integrators.NewRK4(), dynamo.State{1, 0}, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			b, err := dynamo.Run(ctx, oscillator{}, integrators.NewRK4(), dynamo.State{1, 0}, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.States).To(Equal(b.States))
		})
	})

	Describe("stop predicate", func() {
		below := func(x dynamo.State, _ float64) bool { return x[0] < 0.5 }

		It("stops on the first state that satisfies it and keeps that state", func() {
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Until: below}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Stopped).To(BeTrue())
			Expect(tr.Last()[0]).To(BeNumerically("<", 0.5))
			for _, x := range tr.States[:tr.Len()-1] {
				Expect(x[0]).To(BeNumerically(">=", 0.5))
			}
			// 0.9^7 is the first power below one half
			Expect(tr.StepsTaken).To(Equal(7))
		})

		It("returns only the initial state when already satisfied", func() {
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{0.1}, dynamo.Config{Dt: 0.1, Until: below}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(1))
			Expect(tr.Stopped).To(BeTrue())
		})

		It("fails with ErrStepLimit when the cap runs out", func() {
			never := func(dynamo.State, float64) bool { return false }
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 3, Until: never}, nil)
			Expect(err).To(MatchError(dynamo.ErrStepLimit))
			Expect(tr.Len()).To(Equal(4))
			Expect(tr.Stopped).To(BeFalse())
		})
	})

	Describe("configuration errors", func() {
		DescribeTable("are rejected before stepping",
			func(sys dynamo.System, stepper dynamo.Stepper, x0 dynamo.State, cfg dynamo.Config, want error) {
				tr, err := dynamo.Run(ctx, sys, stepper, x0, cfg, nil)
				Expect(tr).To(BeNil())
				Expect(err).To(MatchError(want))

				var ce *dynamo.ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
			},
			Entry("zero dt", decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0, Steps: 1}, dynamo.ErrInvalidConfig),
			Entry("negative dt", decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: -0.1, Steps: 1}, dynamo.ErrInvalidConfig),
			Entry("NaN dt", decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: math.NaN(), Steps: 1}, dynamo.ErrInvalidConfig),
			Entry("negative steps", decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: -1}, dynamo.ErrInvalidConfig),
			Entry("short state", oscillator{}, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 1}, dynamo.ErrDimensionMismatch),
			Entry("non-finite state", decay, integrators.NewEuler(), dynamo.State{math.Inf(1)}, dynamo.Config{Dt: 0.1, Steps: 1}, dynamo.ErrInvalidConfig),
			Entry("nil system", nil, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 1}, dynamo.ErrInvalidConfig),
			Entry("nil stepper", decay, nil, dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 1}, dynamo.ErrInvalidConfig),
		)
	})

	Describe("mid-run failures", func() {
		It("stops on a non-finite state and keeps the last valid one", func() {
			blowUp := dynamo.FromFunc(1, func(x dynamo.State, t float64) (dynamo.State, error) {
				if t >= 0.25 {
					return dynamo.State{math.NaN()}, nil
				}
				return dynamo.State{1}, nil
			})

			tr, err := dynamo.Run(ctx, blowUp, integrators.NewEuler(), dynamo.State{0}, dynamo.Config{Dt: 0.1, Steps: 10}, nil)
			Expect(err).To(MatchError(dynamo.ErrNonFinite))

			var se *dynamo.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(4))
			Expect(se.State.IsValid()).To(BeTrue())
			Expect(se.State).To(Equal(tr.Last()))
			Expect(tr.Len()).To(Equal(4))
		})

		It("passes derivative errors through unchanged", func() {
			userErr := errors.New("singular configuration")
			failing := dynamo.FromFunc(1, func(x dynamo.State, t float64) (dynamo.State, error) {
				if t > 0.15 {
					return nil, userErr
				}
				return dynamo.State{-x[0]}, nil
			})

			tr, err := dynamo.Run(ctx, failing, integrators.NewRK4(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 10}, nil)
			Expect(err).To(MatchError(userErr))
			Expect(tr).NotTo(BeNil())
			Expect(tr.Len()).To(Equal(2))

			var ee *dynamo.EvaluationError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.Error()).To(Equal("singular configuration"))
		})

		It("honours context cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			tr, err := dynamo.Run(cctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 10}, nil)
			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(tr.Len()).To(Equal(1))
		})
	})

	Describe("energy and metrics", func() {
		It("probes Hamiltonian systems automatically", func() {
			tr, err := dynamo.Run(ctx, oscillator{}, integrators.NewEuler(), dynamo.State{1, 0}, dynamo.Config{Dt: 0.01, Steps: 100}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Energies).To(HaveLen(tr.Len()))
			Expect(tr.Energies[0]).To(Equal(0.5))
			// each Euler step multiplies oscillator energy by 1+dt²
			Expect(tr.EnergyDrift).To(BeNumerically("~", math.Pow(1.0001, 100)-1, 1e-9))
		})

		It("prefers an explicit probe", func() {
			probe := func(x dynamo.State) float64 { return x[0] }
			tr, err := dynamo.Run(ctx, oscillator{}, integrators.NewEuler(), dynamo.State{1, 0}, dynamo.Config{Dt: 0.1, Steps: 1, Probe: probe}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Energies).To(Equal([]float64{1, 1}))
			Expect(tr.EnergyDrift).To(BeZero())
		})

		It("leaves energies empty without a probe", func() {
			tr, err := dynamo.Run(ctx, decay, integrators.NewEuler(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 3}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Energies).To(BeEmpty())
		})

		It("resets and reports metrics on every run", func() {
			m := &countMetric{}
			sim := dynamo.New(decay, integrators.NewEuler())
			sim.AddMetric(m)

			for range 2 {
				tr, err := sim.Run(ctx, dynamo.State{1}, dynamo.Config{Dt: 0.1, Steps: 5})
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Metrics).To(HaveKeyWithValue("count", 6.0))
			}
		})
	})
})

var _ = Describe("RunBatch", func() {
	It("matches sequential runs in job order", func() {
		var jobs []dynamo.Job
		for i := 1; i <= 8; i++ {
			jobs = append(jobs, dynamo.Job{
				System:  oscillator{},
				Stepper: integrators.NewRK4(),
				X0:      dynamo.State{float64(i), 0},
				Config:  dynamo.Config{Dt: 0.01, Steps: 100},
			})
		}

		results, err := dynamo.RunBatch(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(jobs)))

		for i, job := range jobs {
			want, err := dynamo.Run(context.Background(), job.System, integrators.NewRK4(), job.X0, job.Config, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[i].States).To(Equal(want.States))
		}
	})

	It("reports the first failure", func() {
		var calls atomic.Int32
		bad := dynamo.FromFunc(1, func(x dynamo.State, _ float64) (dynamo.State, error) {
			calls.Add(1)
			return dynamo.State{math.Inf(1)}, nil
		})

		jobs := []dynamo.Job{
			{System: decay, Stepper: integrators.NewEuler(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 3}},
			{System: bad, Stepper: integrators.NewEuler(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 3}},
		}

		results, err := dynamo.RunBatch(context.Background(), jobs)
		Expect(err).To(MatchError(dynamo.ErrNonFinite))
		Expect(results[1]).NotTo(BeNil())
		Expect(calls.Load()).To(BeNumerically(">=", 1))
	})
})

var _ = Describe("RunEach", func() {
	It("keeps running the other jobs when one fails", func() {
		jobs := []dynamo.Job{
			{System: decay, Stepper: integrators.NewVerlet(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 50}},
			{System: decay, Stepper: integrators.NewRK4(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 50}},
			{System: decay, Stepper: integrators.NewEuler(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 50}},
		}

		results, errs := dynamo.RunEach(context.Background(), jobs)
		Expect(errs).To(HaveLen(3))
		Expect(errs[0]).To(MatchError(dynamo.ErrDimensionMismatch))
		for _, i := range []int{1, 2} {
			Expect(errs[i]).NotTo(HaveOccurred())
			Expect(results[i].StepsTaken).To(Equal(50))
			Expect(results[i].Len()).To(Equal(51))
		}
	})

	It("stops every job on cancel", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		jobs := []dynamo.Job{
			{System: decay, Stepper: integrators.NewRK4(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 50}},
			{System: decay, Stepper: integrators.NewEuler(), X0: dynamo.State{1}, Config: dynamo.Config{Dt: 0.1, Steps: 50}},
		}
		_, errs := dynamo.RunEach(ctx, jobs)
		for _, err := range errs {
			Expect(err).To(MatchError(dynamo.ErrCanceled))
		}
	})
})

var _ = Describe("State", func() {
	It("computes norms", func() {
		s := dynamo.State{3, -4}
		Expect(s.Norm()).To(Equal(5.0))
		Expect(s.MaxAbs()).To(Equal(4.0))
		Expect(s.AddScaled(2, dynamo.State{1, 1})).To(Equal(dynamo.State{5, -2}))
		Expect(s.Sub(dynamo.State{1, 1})).To(Equal(dynamo.State{2, -5}))
	})

	It("flags non-finite components", func() {
		Expect(dynamo.State{1, math.NaN()}.IsValid()).To(BeFalse())
		Expect(dynamo.State{1, 2}.IsValid()).To(BeTrue())
	})
})
