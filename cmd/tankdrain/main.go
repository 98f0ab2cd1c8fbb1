package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/san-kum/tankdrain/internal/analysis"
	"github.com/san-kum/tankdrain/internal/config"
	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/export"
	"github.com/san-kum/tankdrain/internal/figure"
	"github.com/san-kum/tankdrain/internal/metrics"
	"github.com/san-kum/tankdrain/internal/physics"
	"github.com/san-kum/tankdrain/internal/report"
	"github.com/san-kum/tankdrain/internal/sim"
	"github.com/san-kum/tankdrain/internal/sweep"
)

var (
	configFile string
	preset     string

	// scenario
	modelName string
	height    float64
	diameter  float64
	outlet    float64
	p0Bar     float64
	level     float64
	fill      float64
	dt        float64
	dtFactor  float64
	finalTime float64
	threshold float64
	maxSteps  int

	// output
	format       string
	noPlot       bool
	plotSize     int
	outDir       string
	dpi          int
	figPressures []float64

	// sweep / optimize
	pressuresBar []float64
	ratios       []float64
	net          bool
	workers      int
	prof         bool
	profDir      string
	sweepCSV     string
	sweepFig     string
	lower        float64
	upper        float64
	initialFill  float64
	maxEvals     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tankdrain",
		Short:         "pressurized water tank drain simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset scenario")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&format, "format", "text", "output format: text, csv, json")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip terminal plots")
	runCmd.Flags().IntVar(&plotSize, "width", 80, "terminal plot width")

	figureCmd := &cobra.Command{
		Use:   "figure",
		Short: "simulate one scenario and write PNG figures",
		Args:  cobra.NoArgs,
		RunE:  runFigures,
	}
	addScenarioFlags(figureCmd)
	figureCmd.Flags().StringVar(&outDir, "out", "figures", "output directory")
	figureCmd.Flags().IntVar(&dpi, "dpi", 300, "image resolution")
	figureCmd.Flags().Float64SliceVar(&figPressures, "pressures", nil, "also overlay thrust curves for these initial pressures (bar)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "impulse over initial pressure and fill ratio",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&pressuresBar, "pressures", sweep.DefaultPressures(1), "initial pressures (bar)")
	sweepCmd.Flags().Float64SliceVar(&ratios, "ratios", sweep.DefaultRatios, "fill ratios z0/H")
	sweepCmd.Flags().BoolVar(&net, "net", false, "subtract the weight of the remaining water")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = all cpus)")
	sweepCmd.Flags().BoolVar(&prof, "profile", false, "write a cpu profile")
	sweepCmd.Flags().StringVar(&profDir, "profile-dir", ".", "cpu profile directory")
	sweepCmd.Flags().StringVar(&sweepCSV, "csv", "", "write sweep results as csv")
	sweepCmd.Flags().StringVar(&sweepFig, "figure", "", "write an impulse figure (png)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "fill ratio that maximizes impulse",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	addScenarioFlags(optimizeCmd)
	optimizeCmd.Flags().Float64Var(&lower, "lower", 0.05, "lowest fill ratio")
	optimizeCmd.Flags().Float64Var(&upper, "upper", 0.95, "highest fill ratio")
	optimizeCmd.Flags().Float64Var(&initialFill, "start", 0.33, "starting fill ratio")
	optimizeCmd.Flags().BoolVar(&net, "net", false, "subtract the weight of the remaining water")
	optimizeCmd.Flags().IntVar(&maxEvals, "evals", 80, "maximum simulations")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODEL\tTANK (H/D/d m)\tP0 (bar)\tFILL")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%g/%g/%g\t%g\t%g\n", name, p.Model,
					p.Tank.Height, p.Tank.Diameter, p.Tank.OutletDiameter,
					p.Initial.Pressure/physics.Bar, p.InitialLevel()/p.Tank.Height)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scenario file from the defaults or a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	addScenarioFlags(initCmd)

	rootCmd.AddCommand(runCmd, figureCmd, sweepCmd, optimizeCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&modelName, "model", config.DefaultModel, "pressure model: "+strings.Join(physics.PressureModelNames(), ", "))
	f.Float64Var(&height, "height", config.DefaultHeight, "tank height (m)")
	f.Float64Var(&diameter, "diameter", config.DefaultDiameter, "tank diameter (m)")
	f.Float64Var(&outlet, "outlet", config.DefaultOutlet, "ejection tube diameter (m)")
	f.Float64Var(&p0Bar, "p0", config.DefaultPressure/physics.Bar, "initial pressure (bar)")
	f.Float64Var(&level, "level", 0, "initial water height (m), overrides --fill")
	f.Float64Var(&fill, "fill", config.DefaultFillRatio, "initial fill ratio z0/H")
	f.Float64Var(&dt, "dt", 0, "time step (s), overrides --dt-factor")
	f.Float64Var(&dtFactor, "dt-factor", 0, fmt.Sprintf("time step as a fraction of H/|F(z0)| (0: %g for run and figure, %g for sweep and optimize)", config.DefaultDtFactor, sweep.DefaultDtFactor))
	f.Float64Var(&finalTime, "time", 0, "time limit (s), 0 for none")
	f.Float64Var(&threshold, "threshold", config.DefaultFlowThreshold, "stall threshold on |dz/dt| (m/s)")
	f.IntVar(&maxSteps, "max-steps", dynamo.DefaultMaxSteps, "step guard")
}

// loadScenario applies the preset, then the config file, then any flag the
// user set explicitly.
func loadScenario(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "default"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = configFile
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = modelName
	}
	if flags.Changed("height") {
		cfg.Tank.Height = height
	}
	if flags.Changed("diameter") {
		cfg.Tank.Diameter = diameter
	}
	if flags.Changed("outlet") {
		cfg.Tank.OutletDiameter = outlet
	}
	if flags.Changed("p0") {
		cfg.Initial.Pressure = p0Bar * physics.Bar
	}
	if flags.Changed("fill") {
		cfg.Initial.FillRatio = fill
		cfg.Initial.Level = 0
	}
	if flags.Changed("level") {
		cfg.Initial.Level = level
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("dt-factor") {
		cfg.DtFactor = dtFactor
		cfg.Dt = 0
	}
	if flags.Changed("time") {
		cfg.FinalTime = finalTime
	}
	if flags.Changed("threshold") {
		cfg.FlowThreshold = threshold
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}

	return cfg, name, nil
}

// simulate runs the scenario once. A step limit error still returns the
// partial trajectory.
func simulate(cfg *config.Config) (*physics.Model, *dynamo.Trajectory, error) {
	model, rc, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(model, nil)
	for _, m := range metrics.Defaults(model.Tank(), model.Constants()) {
		s.AddMetric(m)
	}

	traj, err := s.Run(rc)
	if err != nil && !errors.Is(err, dynamo.ErrStepLimit) {
		return nil, nil, err
	}
	return model, traj, err
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	model, traj, err := simulate(cfg)
	if traj == nil {
		return err
	}
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	switch format {
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), traj)
	case "json":
		data := export.NewTrajectoryData(cfg.Model, model.GetParams(), traj)
		return export.WriteJSON(cmd.OutOrStdout(), data)
	case "text":
	default:
		return fmt.Errorf("unknown format: %s (available: text, csv, json)", format)
	}

	summary, serr := analysis.Summarize(traj, model.Tank(), model.Constants())
	if serr != nil {
		return serr
	}

	fmt.Printf("completed in %v (dt=%.3g s)\n", elapsed, traj.Dt)
	fmt.Println(report.Summary(name+" / "+cfg.Model, model.GetParams(), summary))
	fmt.Println()
	fmt.Println(report.Metrics(traj.Metrics))

	thrust, terr := analysis.ThrustCurve(traj, model.Tank(), model.Constants())
	if terr != nil {
		return terr
	}
	fmt.Println(report.MetricLabel.Render("thrust") + report.Sparkline(thrust, 40))

	if noPlot {
		return nil
	}
	pressureBar := make([]float64, traj.Len())
	for i, p := range traj.Pressures {
		pressureBar[i] = p / physics.Bar
	}

	plots := []struct {
		caption string
		data    []float64
	}{
		{"water level z (m) vs time", traj.Heights},
		{"ejection speed v (m/s) vs time", traj.Speeds},
		{"internal pressure p (bar) vs time", pressureBar},
		{"thrust (N) vs time", thrust},
	}
	for _, p := range plots {
		if len(p.data) < 2 {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(plotSize),
			asciigraph.Caption(fmt.Sprintf("%s, t = 0..%.3g s", p.caption, traj.Duration())),
		))
	}
	return nil
}

func runFigures(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	model, traj, err := simulate(cfg)
	if traj == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	opts := figure.DefaultOptions()
	opts.DPI = dpi
	paths, err := figure.TrajectoryFigures(outDir, traj, model.Tank(), model.Constants(), opts)
	if err != nil {
		return err
	}

	if len(figPressures) > 0 {
		runs := make([]figure.Run, 0, len(figPressures))
		for _, bar := range figPressures {
			c := *cfg
			c.Initial.Pressure = bar * physics.Bar
			_, tr, err := simulate(&c)
			if tr == nil {
				return fmt.Errorf("p0=%g bar: %w", bar, err)
			}
			runs = append(runs, figure.Run{Pressure: c.Initial.Pressure, Trajectory: tr})
		}
		path := filepath.Join(outDir, "thrust_comparison.png")
		if err := figure.ThrustComparison(path, runs, model.Tank(), model.Constants(), opts); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	fmt.Printf("%s: %s\n", name, traj.Stop)
	for _, p := range paths {
		fmt.Printf("  wrote %s\n", p)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if prof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(profDir), profile.NoShutdownHook).Stop()
	}

	base, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	opts := sweep.Options{
		Ratios:  ratios,
		Net:     net,
		Workers: workers,
	}
	for _, p := range pressuresBar {
		opts.Pressures = append(opts.Pressures, p*physics.Bar)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s: %d pressures x %d fill ratios...\n", name, len(opts.Pressures), len(opts.Ratios))
	start := time.Now()
	points, err := sweep.Run(ctx, base, opts)
	if err != nil {
		return err
	}
	fmt.Printf("completed %d runs in %v\n\n", len(points), time.Since(start))

	label := "impulse (Ns)"
	if net {
		label = "net impulse (Ns)"
	}
	fmt.Println(report.Title.Render(label))
	fmt.Println(report.SweepTable(points))

	pressures, groups := sweep.Series(points)
	var data [][]float64
	var legend []string
	for i, p := range pressures {
		if len(groups[i]) < 2 {
			continue
		}
		impulses := make([]float64, len(groups[i]))
		for j, pt := range groups[i] {
			impulses[j] = pt.Impulse
		}
		data = append(data, impulses)
		legend = append(legend, fmt.Sprintf("%g bar", p/physics.Bar))
	}
	if len(data) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(data,
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow, asciigraph.Cyan),
			asciigraph.Caption(fmt.Sprintf("%s over positive-impulse fill ratios (%s)", label, strings.Join(legend, ", "))),
		))
	}

	if best, ok := sweep.Best(points); ok {
		fmt.Printf("\nbest: P0 = %g bar, z0/H = %.2f, %s = %.3f\n", best.Pressure/physics.Bar, best.FillRatio, label, best.Impulse)
	}

	if sweepCSV != "" {
		f, err := os.Create(sweepCSV)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteSweepCSV(f, points); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", sweepCSV)
	}
	if sweepFig != "" {
		if err := figure.SweepFigure(sweepFig, points, figure.DefaultOptions()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", sweepFig)
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	base, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	opts := sweep.DefaultOptimizeOptions()
	opts.Lower = lower
	opts.Upper = upper
	opts.Initial = initialFill
	opts.Net = net
	opts.MaxEvals = maxEvals

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("optimizing fill ratio for %s at P0 = %g bar...\n", name, base.Initial.Pressure/physics.Bar)
	start := time.Now()
	best, err := sweep.OptimizeFill(ctx, base, base.Initial.Pressure, opts)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d simulations in %v (%v)\n", best.Evaluations, time.Since(start), best.Status)
	fmt.Printf("  fill ratio: %.4f (z0 = %.4f m)\n", best.FillRatio, best.FillRatio*base.Tank.Height)
	fmt.Printf("  impulse:    %.3f Ns\n", best.Impulse)
	fmt.Printf("  duration:   %.4f s\n", best.Duration)
	fmt.Printf("  stop:       %s\n", best.Stop)
	return nil
}
