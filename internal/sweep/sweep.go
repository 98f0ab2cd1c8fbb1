// Package sweep runs independent tank simulations over a parameter grid and
// searches for the fill ratio that maximizes impulse.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tankdrain/internal/analysis"
	"github.com/san-kum/tankdrain/internal/config"
	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/sim"
)

// DefaultRatios are the fill ratios z0/H of the classic impulse study.
var DefaultRatios = []float64{0.15, 0.2, 0.25, 0.30, 0.33, 0.35, 0.4, 0.44, 0.5, 0.55}

// DefaultDtFactor is the step factor of the impulse studies. Short runs
// lose a visible share of their impulse with the coarser single-run step.
const DefaultDtFactor = 1e-5

// DefaultPressures returns 2 to 5 bar in steps of one bar, expressed in
// multiples of unit (1 for bar, physics.Bar for Pa).
func DefaultPressures(unit float64) []float64 {
	return Grid(2*unit, 5*unit, 4)
}

// Grid returns n evenly spaced values from lo to hi inclusive.
func Grid(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

type Options struct {
	Pressures []float64
	Ratios    []float64
	// Net subtracts the weight of the remaining water from the thrust.
	Net     bool
	Workers int
}

// Point is one finished run of the grid.
type Point struct {
	Pressure  float64
	FillRatio float64
	Impulse   float64
	Duration  float64
	Steps     int
	Stop      dynamo.Stop
}

// Run simulates every (pressure, ratio) pair of the grid on top of base.
// Results are ordered pressure-major, in the order of the option slices.
func Run(ctx context.Context, base *config.Config, opts Options) ([]Point, error) {
	if len(opts.Pressures) == 0 || len(opts.Ratios) == 0 {
		return nil, &dynamo.InvalidInputError{Op: "sweep", Reason: "empty grid"}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	points := make([]Point, len(opts.Pressures)*len(opts.Ratios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p0 := range opts.Pressures {
		for j, r := range opts.Ratios {
			idx := i*len(opts.Ratios) + j
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				pt, err := Evaluate(base, p0, r, opts.Net)
				if err != nil {
					return fmt.Errorf("p0=%g ratio=%g: %w", p0, r, err)
				}
				points[idx] = pt
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Evaluate runs one scenario with the given initial pressure and fill ratio.
// A scenario without dt or dt_factor runs at DefaultDtFactor.
func Evaluate(base *config.Config, p0, ratio float64, net bool) (Point, error) {
	cfg := *base
	cfg.Initial.Pressure = p0
	cfg.Initial.Level = 0
	cfg.Initial.FillRatio = ratio
	if cfg.Dt == 0 && cfg.DtFactor == 0 {
		cfg.DtFactor = DefaultDtFactor
	}

	model, rc, err := cfg.Build()
	if err != nil {
		return Point{}, err
	}
	traj, err := sim.New(model, nil).Run(rc)
	if err != nil {
		return Point{}, err
	}

	impulse := analysis.Impulse
	if net {
		impulse = analysis.NetImpulse
	}
	j, err := impulse(traj, model.Tank(), model.Constants())
	if err != nil {
		return Point{}, err
	}

	return Point{
		Pressure:  p0,
		FillRatio: ratio,
		Impulse:   j,
		Duration:  traj.Duration(),
		Steps:     traj.Len(),
		Stop:      traj.Stop,
	}, nil
}

// Series groups points by initial pressure, keeping only positive impulses.
func Series(points []Point) (pressures []float64, series [][]Point) {
	groups := make(map[float64][]Point)
	for _, pt := range points {
		if _, ok := groups[pt.Pressure]; !ok {
			pressures = append(pressures, pt.Pressure)
			groups[pt.Pressure] = nil
		}
		if pt.Impulse > 0 {
			groups[pt.Pressure] = append(groups[pt.Pressure], pt)
		}
	}
	sort.Float64s(pressures)

	series = make([][]Point, len(pressures))
	for i, p := range pressures {
		series[i] = groups[p]
	}
	return pressures, series
}

// Best returns the point with the largest impulse.
func Best(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := points[0]
	for _, pt := range points[1:] {
		if pt.Impulse > best.Impulse {
			best = pt
		}
	}
	return best, true
}
