// Package figure renders trajectory and sweep plots to PNG files.
package figure

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/tankdrain/internal/analysis"
	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
	"github.com/san-kum/tankdrain/internal/sweep"
)

type Options struct {
	Width, Height float64 // inches
	DPI           int
	MaxPoints     int // per line; longer series are decimated
}

func DefaultOptions() Options {
	return Options{Width: 8, Height: 6, DPI: 300, MaxPoints: 4000}
}

// Series is one named line of a multi-line plot.
type Series struct {
	Label  string
	Xs, Ys []float64
}

// TrajectoryFigures writes level, speed, pressure and thrust against time into
// dir and returns the written paths.
func TrajectoryFigures(dir string, traj *dynamo.Trajectory, tank physics.Tank, c physics.Constants, opts Options) ([]string, error) {
	if err := traj.Validate("figure"); err != nil {
		return nil, err
	}
	thrust, err := analysis.ThrustCurve(traj, tank, c)
	if err != nil {
		return nil, err
	}
	pressureBar := make([]float64, traj.Len())
	for i, p := range traj.Pressures {
		pressureBar[i] = p / physics.Bar
	}

	figs := []struct {
		file, title, ylabel string
		ys                  []float64
	}{
		{"level.png", "Water level z(t)", "z (m)", traj.Heights},
		{"speed.png", "Ejection speed v(t)", "v (m/s)", traj.Speeds},
		{"pressure.png", "Internal pressure p(t)", "p (bar)", pressureBar},
		{"thrust.png", "Thrust (N)", "thrust (N)", thrust},
	}

	dir, err = homedir.Expand(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(figs))
	for _, f := range figs {
		path := filepath.Join(dir, f.file)
		s := Series{Xs: traj.Times, Ys: f.ys}
		if err := SaveLines(path, f.title, "t (s)", f.ylabel, []Series{s}, opts); err != nil {
			return paths, fmt.Errorf("%s: %w", f.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Run is one finished simulation labelled by its initial pressure.
type Run struct {
	Pressure   float64 // P0, Pa
	Trajectory *dynamo.Trajectory
}

// ThrustSeries turns each run into a thrust-vs-time line whose label carries
// the initial pressure and the impulse of the run.
func ThrustSeries(runs []Run, tank physics.Tank, c physics.Constants) ([]Series, error) {
	if len(runs) == 0 {
		return nil, &dynamo.InvalidInputError{Op: "thrust comparison", Reason: "no runs"}
	}
	series := make([]Series, 0, len(runs))
	for _, r := range runs {
		thrust, err := analysis.ThrustCurve(r.Trajectory, tank, c)
		if err != nil {
			return nil, err
		}
		impulse, err := analysis.Impulse(r.Trajectory, tank, c)
		if err != nil {
			return nil, err
		}
		series = append(series, Series{
			Label: fmt.Sprintf("P0=%g bar, Impulse=%.2f Ns", r.Pressure/physics.Bar, impulse),
			Xs:    r.Trajectory.Times,
			Ys:    thrust,
		})
	}
	return series, nil
}

// ThrustComparison overlays the thrust curves of several runs in one figure.
func ThrustComparison(path string, runs []Run, tank physics.Tank, c physics.Constants, opts Options) error {
	series, err := ThrustSeries(runs, tank, c)
	if err != nil {
		return err
	}
	return SaveLines(path, "Thrust (N)", "t (s)", "thrust (N)", series, opts)
}

// SweepFigure plots impulse against fill ratio, one line per initial pressure.
func SweepFigure(path string, points []sweep.Point, opts Options) error {
	pressures, groups := sweep.Series(points)
	series := make([]Series, 0, len(pressures))
	for i, p0 := range pressures {
		if len(groups[i]) == 0 {
			continue
		}
		s := Series{Label: fmt.Sprintf("P0=%g bar", p0/physics.Bar)}
		for _, pt := range groups[i] {
			s.Xs = append(s.Xs, pt.FillRatio)
			s.Ys = append(s.Ys, pt.Impulse)
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		return &dynamo.InvalidInputError{Op: "sweep figure", Reason: "no positive impulse"}
	}
	return SaveLines(path, "Impulse (Ns)", "z0/H", "impulse (Ns)", series, opts)
}

// SaveLines draws one or more line series into a PNG at path.
func SaveLines(path, title, xlabel, ylabel string, series []Series, opts Options) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	stylePlot(p)

	for i, s := range series {
		if len(s.Xs) != len(s.Ys) || len(s.Xs) == 0 {
			return &dynamo.InvalidInputError{Op: "plot", Reason: "series lengths differ or are empty"}
		}
		line, err := plotter.NewLine(decimate(s.Xs, s.Ys, opts.MaxPoints))
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(2.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if s.Label != "" {
			p.Legend.Add(s.Label, line)
		}
	}
	p.Legend.Top = true

	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	return savePNG(p, opts, path)
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)
	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
	p.Add(plotter.NewGrid())
}

func savePNG(p *plot.Plot, opts Options, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = 300
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// decimate keeps at most max points, always including the last one.
func decimate(xs, ys []float64, max int) plotter.XYs {
	n := len(xs)
	stride := 1
	if max > 1 && n > max {
		stride = int(math.Ceil(float64(n) / float64(max-1)))
	}

	pts := make(plotter.XYs, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if (n-1)%stride != 0 {
		pts = append(pts, plotter.XY{X: xs[n-1], Y: ys[n-1]})
	}
	return pts
}
