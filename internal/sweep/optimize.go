package sweep

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/tankdrain/internal/config"
	"github.com/san-kum/tankdrain/internal/dynamo"
)

type OptimizeOptions struct {
	Lower, Upper float64 // fill ratio bounds, inside (0, 1)
	Initial      float64
	Net          bool
	MaxEvals     int
}

func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{
		Lower:    0.05,
		Upper:    0.95,
		Initial:  0.33,
		MaxEvals: 80,
	}
}

type Optimum struct {
	Point
	Evaluations int
	Status      optimize.Status
}

// boundedRatio maps an unconstrained y onto (lo, hi).
func boundedRatio(y, lo, hi float64) float64 {
	return lo + 0.5*(hi-lo)*(1+math.Tanh(y))
}

func unboundedRatio(r, lo, hi float64) float64 {
	x := 2*(r-lo)/(hi-lo) - 1
	x = math.Max(-0.9999, math.Min(0.9999, x))
	return math.Atanh(x)
}

// OptimizeFill searches the fill ratio that maximizes impulse at initial
// pressure p0 with Nelder-Mead on a tanh-bounded variable.
func OptimizeFill(ctx context.Context, base *config.Config, p0 float64, opts OptimizeOptions) (Optimum, error) {
	if !(opts.Lower > 0) || !(opts.Upper < 1) || !(opts.Lower < opts.Upper) {
		return Optimum{}, &dynamo.ConfigurationError{Field: "ratio_bounds", Value: opts.Lower, Reason: "need 0 < lower < upper < 1"}
	}
	if opts.Initial <= opts.Lower || opts.Initial >= opts.Upper {
		opts.Initial = 0.5 * (opts.Lower + opts.Upper)
	}

	// Probe once so configuration errors surface instead of flattening the
	// objective.
	if _, err := Evaluate(base, p0, opts.Initial, opts.Net); err != nil {
		return Optimum{}, err
	}

	problem := optimize.Problem{
		Func: func(y []float64) float64 {
			if ctx.Err() != nil {
				return 0
			}
			pt, err := Evaluate(base, p0, boundedRatio(y[0], opts.Lower, opts.Upper), opts.Net)
			if err != nil {
				return 0
			}
			return -pt.Impulse
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: opts.MaxEvals,
		Converger:       &optimize.FunctionConverge{Relative: 1e-4, Iterations: 10},
	}

	y0 := []float64{unboundedRatio(opts.Initial, opts.Lower, opts.Upper)}
	// Hitting the evaluation limit still leaves a usable best point.
	result, err := optimize.Minimize(problem, y0, settings, &optimize.NelderMead{SimplexSize: 0.5})
	if result == nil {
		return Optimum{}, err
	}
	if err := ctx.Err(); err != nil {
		return Optimum{}, err
	}

	best, err := Evaluate(base, p0, boundedRatio(result.X[0], opts.Lower, opts.Upper), opts.Net)
	if err != nil {
		return Optimum{}, err
	}
	return Optimum{
		Point:       best,
		Evaluations: result.Stats.FuncEvaluations,
		Status:      result.Status,
	}, nil
}
