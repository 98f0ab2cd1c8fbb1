package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tankdrain/internal/config"
	"github.com/san-kum/tankdrain/internal/dynamo"
)

func coarseConfig() *config.Config {
	cfg := config.GetPreset("reference")
	cfg.DtFactor = 1e-3
	return cfg
}

func TestGrid(t *testing.T) {
	assert.Equal(t, []float64{2, 3, 4, 5}, Grid(2, 5, 4))
	assert.Equal(t, []float64{7}, Grid(7, 9, 1))
	assert.Nil(t, Grid(0, 1, 0))
	assert.Equal(t, []float64{2e5, 3e5, 4e5, 5e5}, DefaultPressures(1e5))
}

func TestRun_GridOrder(t *testing.T) {
	opts := Options{
		Pressures: []float64{3e5, 2e5},
		Ratios:    []float64{0.5, 0.3, 0.4},
		Workers:   4,
	}
	points, err := Run(context.Background(), coarseConfig(), opts)
	require.NoError(t, err)
	require.Len(t, points, 6)

	for i, p0 := range opts.Pressures {
		for j, r := range opts.Ratios {
			pt := points[i*len(opts.Ratios)+j]
			assert.Equal(t, p0, pt.Pressure)
			assert.Equal(t, r, pt.FillRatio)
			assert.Greater(t, pt.Impulse, 0.0)
			assert.True(t, pt.Stop.Stopped())
		}
	}

	// More pressure, more impulse at the same fill.
	assert.Greater(t, points[0].Impulse, points[3].Impulse)
}

func TestEvaluate_DefaultStepMatchesFineRun(t *testing.T) {
	fine := config.DefaultConfig()
	fine.DtFactor = 1e-5

	for _, r := range []float64{0.15, 0.44} {
		got, err := Evaluate(config.DefaultConfig(), 5e5, r, false)
		require.NoError(t, err)
		want, err := Evaluate(fine, 5e5, r, false)
		require.NoError(t, err)

		assert.InEpsilon(t, want.Impulse, got.Impulse, 0.005, "ratio %g", r)
		assert.Greater(t, got.Steps, 1000, "ratio %g", r)
	}

	// The single-run step undercounts impulse on these short runs.
	coarse := config.DefaultConfig()
	coarse.DtFactor = config.DefaultDtFactor
	c, err := Evaluate(coarse, 5e5, 0.15, false)
	require.NoError(t, err)
	f, err := Evaluate(fine, 5e5, 0.15, false)
	require.NoError(t, err)
	assert.Less(t, c.Impulse, 0.99*f.Impulse)
}

func TestRun_NetBelowGross(t *testing.T) {
	base := coarseConfig()
	gross, err := Evaluate(base, 2e5, 0.5, false)
	require.NoError(t, err)
	net, err := Evaluate(base, 2e5, 0.5, true)
	require.NoError(t, err)

	assert.Less(t, net.Impulse, gross.Impulse)
	assert.Equal(t, gross.Steps, net.Steps)
}

func TestRun_Errors(t *testing.T) {
	base := coarseConfig()

	_, err := Run(context.Background(), base, Options{Ratios: []float64{0.5}})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))

	_, err = Run(context.Background(), base, Options{Pressures: []float64{0.5e5}, Ratios: []float64{0.5}})
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, base, Options{Pressures: []float64{2e5}, Ratios: []float64{0.3, 0.5}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSeries(t *testing.T) {
	points := []Point{
		{Pressure: 3e5, FillRatio: 0.2, Impulse: 4},
		{Pressure: 3e5, FillRatio: 0.4, Impulse: -1},
		{Pressure: 2e5, FillRatio: 0.2, Impulse: -2},
		{Pressure: 2e5, FillRatio: 0.4, Impulse: 1},
	}

	pressures, series := Series(points)
	require.Equal(t, []float64{2e5, 3e5}, pressures)
	require.Len(t, series, 2)
	assert.Equal(t, []Point{points[3]}, series[0])
	assert.Equal(t, []Point{points[0]}, series[1])

	best, ok := Best(points)
	assert.True(t, ok)
	assert.Equal(t, 4.0, best.Impulse)

	_, ok = Best(nil)
	assert.False(t, ok)
}

func TestBoundedRatio(t *testing.T) {
	for _, r := range []float64{0.1, 0.33, 0.5, 0.9} {
		y := unboundedRatio(r, 0.05, 0.95)
		assert.InDelta(t, r, boundedRatio(y, 0.05, 0.95), 1e-12)
	}
	assert.Greater(t, boundedRatio(-50, 0.05, 0.95), 0.0)
	assert.Less(t, boundedRatio(50, 0.05, 0.95), 1.0)
}

func TestOptimizeFill(t *testing.T) {
	base := coarseConfig()
	opts := DefaultOptimizeOptions()
	opts.MaxEvals = 40

	start, err := Evaluate(base, 3e5, opts.Initial, false)
	require.NoError(t, err)

	best, err := OptimizeFill(context.Background(), base, 3e5, opts)
	require.NoError(t, err)

	assert.Greater(t, best.FillRatio, opts.Lower)
	assert.Less(t, best.FillRatio, opts.Upper)
	assert.GreaterOrEqual(t, best.Impulse, start.Impulse*(1-1e-6))
	assert.Positive(t, best.Evaluations)
}

func TestOptimizeFill_Rejects(t *testing.T) {
	base := coarseConfig()

	opts := DefaultOptimizeOptions()
	opts.Lower, opts.Upper = 0.6, 0.4
	_, err := OptimizeFill(context.Background(), base, 3e5, opts)
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))

	_, err = OptimizeFill(context.Background(), base, 0.5e5, DefaultOptimizeOptions())
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}
