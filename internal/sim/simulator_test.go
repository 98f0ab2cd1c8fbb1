package sim_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/integrators"
	"github.com/san-kum/tankdrain/internal/physics"
	"github.com/san-kum/tankdrain/internal/sim"
)

// flakyStepper delegates to Euler until its failOn-th call, then fails with err.
type flakyStepper struct {
	calls  int
	failOn int
	err    error
	euler  *integrators.Euler
}

func (f *flakyStepper) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State, error) {
	f.calls++
	if f.calls >= f.failOn {
		return nil, nil, f.err
	}
	return f.euler.Step(dyn, x, t, dt)
}

type sampleCounter struct{ n int }

func (c *sampleCounter) Name() string            { return "samples" }
func (c *sampleCounter) Observe(s dynamo.Sample) { c.n++ }
func (c *sampleCounter) Value() float64          { return float64(c.n) }
func (c *sampleCounter) Reset()                  { c.n = 0 }

func buildModel(law physics.PressureModel) *physics.Model {
	tank, err := physics.NewTank(1.0, 0.3, 0.02)
	Expect(err).NotTo(HaveOccurred())
	m, err := physics.NewModel(tank, physics.InitialConditions{P0: 2e5, Z0: 0.5}, law, physics.DefaultConstants())
	Expect(err).NotTo(HaveOccurred())
	return m
}

func configFor(m *physics.Model, factor float64) dynamo.Config {
	dt, err := m.CharacteristicDt(factor)
	Expect(err).NotTo(HaveOccurred())
	cfg := dynamo.DefaultConfig()
	cfg.Dt = dt
	return cfg
}

var _ = Describe("Simulator", func() {
	Context("with the reference tank and a stable step", func() {
		var (
			model *physics.Model
			cfg   dynamo.Config
			traj  *dynamo.Trajectory
		)

		BeforeEach(func() {
			model = buildModel(physics.Isothermal{})
			cfg = configFor(model, 1e-4)
			var err error
			traj, err = sim.New(model, nil).Run(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("stops because the tank emptied or the flow stalled", func() {
			Expect(traj.Stop.Reason).To(BeElementOf(dynamo.FlowStalled, dynamo.BottomReached))
			Expect(traj.Stop.String()).NotTo(BeEmpty())
		})

		It("keeps all histories the same length", func() {
			Expect(traj.Len()).To(BeNumerically(">", 1))
			Expect(traj.Heights).To(HaveLen(traj.Len()))
			Expect(traj.Speeds).To(HaveLen(traj.Len()))
			Expect(traj.Pressures).To(HaveLen(traj.Len()))
		})

		It("starts from the initial conditions", func() {
			Expect(traj.Times[0]).To(BeZero())
			Expect(traj.Heights[0]).To(Equal(0.5))
			Expect(traj.Pressures[0]).To(Equal(2e5))
		})

		It("indexes samples by multiples of dt", func() {
			for i, ti := range traj.Times {
				Expect(ti).To(Equal(float64(i) * cfg.Dt))
			}
		})

		It("only ever lowers the water level", func() {
			for i := 1; i < traj.Len(); i++ {
				Expect(traj.Heights[i]).To(BeNumerically("<=", traj.Heights[i-1]))
			}
		})

		It("never retains a level below the bottom", func() {
			for _, z := range traj.Heights {
				Expect(z).To(BeNumerically(">=", 0))
			}
		})

		It("hands out clipped histories", func() {
			Expect(cap(traj.Heights)).To(Equal(len(traj.Heights)))
			Expect(cap(traj.Times)).To(Equal(len(traj.Times)))
		})
	})

	Context("with the adiabatic law", func() {
		It("drains until the cushion reaches atmospheric pressure", func() {
			model := buildModel(physics.Adiabatic{})
			traj, err := sim.New(model, nil).Run(configFor(model, 1e-4))
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Pressures[0]).To(Equal(2e5))
			Expect(traj.Stop.Reason).To(Equal(dynamo.FlowStalled))

			last, ok := traj.Last()
			Expect(ok).To(BeTrue())
			Expect(last.P).To(BeNumerically(">=", physics.DefaultConstants().Pa))
		})

		It("reports an overshoot past equilibrium as an unphysical state", func() {
			model := buildModel(physics.Adiabatic{})
			traj, err := sim.New(model, nil).Run(configFor(model, 0.4))
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Stop.Reason).To(Equal(dynamo.UnphysicalState))
			Expect(traj.Stop.String()).To(ContainSubstring("reduce dt"))
			Expect(traj.Len()).To(Equal(1))
		})
	})

	Context("with a step far too coarse", func() {
		It("stops without keeping the step that left the tank", func() {
			model := buildModel(physics.Isothermal{})
			traj, err := sim.New(model, nil).Run(configFor(model, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Stop.Reason).To(BeElementOf(dynamo.BottomReached, dynamo.UnphysicalState))
			Expect(traj.Heights).To(Equal([]float64{0.5}))
		})
	})

	Context("with a final time", func() {
		It("stops on the first sample past the limit", func() {
			model := buildModel(physics.Isothermal{})
			cfg := configFor(model, 1e-4)
			cfg.FinalTime = 1.0

			traj, err := sim.New(model, nil).Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Stop.Reason).To(Equal(dynamo.TimeLimitReached))
			Expect(traj.Duration()).To(BeNumerically(">", 1.0))
			Expect(traj.Duration()).To(BeNumerically("<=", 1.0+1.001*cfg.Dt))
			Expect(traj.Stop.Value).To(Equal(traj.Duration()))
		})
	})

	Context("when a step leaves the model's domain", func() {
		It("stops as unphysical and keeps the samples taken so far", func() {
			model := buildModel(physics.Isothermal{})
			cfg := configFor(model, 1e-4)
			stepper := &flakyStepper{
				failOn: 4,
				err:    &dynamo.DomainError{Quantity: "pressure", Z: 0.5, Value: -1},
				euler:  integrators.NewEuler(),
			}

			traj, err := sim.New(model, stepper).Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Stop.Reason).To(Equal(dynamo.UnphysicalState))
			Expect(traj.Len()).To(Equal(4))
			Expect(traj.Heights).To(HaveLen(4))
			Expect(traj.Speeds).To(HaveLen(4))
			Expect(traj.Pressures).To(HaveLen(4))
			Expect(traj.Heights[0]).To(Equal(0.5))
			for i := 1; i < traj.Len(); i++ {
				Expect(traj.Times[i]).To(Equal(float64(i) * cfg.Dt))
				Expect(traj.Heights[i]).To(BeNumerically("<", traj.Heights[i-1]))
				Expect(traj.Speeds[i]).To(BeNumerically(">", 0))
			}
		})

		It("propagates any other stepping error", func() {
			model := buildModel(physics.Isothermal{})
			stepper := &flakyStepper{failOn: 2, err: errors.New("solver exploded"), euler: integrators.NewEuler()}

			traj, err := sim.New(model, stepper).Run(configFor(model, 1e-4))
			Expect(err).To(HaveOccurred())
			var serr *dynamo.SimulationError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Step).To(Equal(2))
			Expect(traj).To(BeNil())
		})
	})

	Context("with metrics", func() {
		It("observes every retained sample", func() {
			model := buildModel(physics.Isothermal{})
			cfg := configFor(model, 1e-3)
			counter := &sampleCounter{}

			s := sim.New(model, nil)
			s.AddMetric(counter)
			traj, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Metrics).To(HaveKeyWithValue("samples", float64(traj.Len())))
		})
	})

	Context("with a bad configuration", func() {
		It("rejects a non-positive dt", func() {
			model := buildModel(physics.Isothermal{})
			cfg := dynamo.DefaultConfig()
			cfg.Dt = 0

			traj, err := sim.New(model, nil).Run(cfg)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
			Expect(traj).To(BeNil())
		})

		It("rejects a missing model", func() {
			_, err := sim.New(nil, nil).Run(dynamo.DefaultConfig())
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("returns the partial trajectory when the step limit runs out", func() {
			model := buildModel(physics.Isothermal{})
			cfg := configFor(model, 1e-4)
			cfg.MaxSteps = 10

			traj, err := sim.New(model, nil).Run(cfg)
			Expect(err).To(MatchError(dynamo.ErrStepLimit))
			var serr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(serr))
			Expect(traj.Len()).To(Equal(11))
		})
	})
})
