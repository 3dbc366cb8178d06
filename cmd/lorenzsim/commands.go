package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/san-kum/lorenzsim/internal/analysis"
	"github.com/san-kum/lorenzsim/internal/config"
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/export"
	"github.com/san-kum/lorenzsim/internal/integrators"
	"github.com/san-kum/lorenzsim/internal/metrics"
	"github.com/san-kum/lorenzsim/internal/physics"
	"github.com/san-kum/lorenzsim/internal/sim"
	"github.com/san-kum/lorenzsim/internal/storage"
	"github.com/san-kum/lorenzsim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The viewer owns the terminal; log output would tear the alt screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)

	e, err := newEnsemble(cfg, logger)
	if err != nil {
		return err
	}
	return viz.Run(sim.NewScheduler(e, nil), cfg.FPS)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	e, err := newEnsemble(cfg, logger)
	if err != nil {
		return err
	}

	summary := &metrics.Summary{}
	rec := metrics.Multi{summary}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = append(rec, metrics.NewPrometheus(reg))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", metricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var xs, ys, zs []float64
	sink := func(d sim.FrameDelta) {
		if plot && len(d.Trajectories) > 0 {
			h := d.Trajectories[0].Head
			xs, ys, zs = append(xs, h[0]), append(ys, h[1]), append(zs, h[2])
		}
	}

	logger.Info("running ensemble", "trajectories", e.TrajectoryCount(), "frames", frames, "tail", cfg.TailLength, "seed", cfg.Seed)
	start := time.Now()
	sched := sim.NewScheduler(e, rec)
	if err := sched.Run(ctx, frames, 0, sink); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("interrupted", "frames", sched.Frames())
	}
	elapsed := time.Since(start)
	logger.Info("run complete", "elapsed", elapsed, "steps_per_second", summary.StepsPerSecond())

	meta := storage.RunMetadata{
		Preset:        cfg.Preset,
		Seed:          cfg.Seed,
		Sigma:         cfg.Sigma,
		Beta:          cfg.Beta,
		Rho:           cfg.Rho,
		StepSize:      cfg.StepSize,
		StepsPerFrame: cfg.StepsPerFrame,
		TailLength:    e.TailCapacity(),
		Frames:        summary.Frames,
		Metrics: map[string]float64{
			"steps":            float64(summary.Steps),
			"steps_per_second": summary.StepsPerSecond(),
			"full_uploads":     float64(summary.FullUploads),
			"dirty_ranges":     float64(summary.DirtyRanges),
		},
	}

	var status io.Writer = os.Stdout
	if jsonOut {
		status = os.Stderr
		if err := storage.ExportJSON(os.Stdout, meta, e); err != nil {
			return err
		}
	} else if err := printSummary(e, summary, elapsed, xs, ys, zs); err != nil {
		return err
	}

	if svgPath != "" {
		if err := writeSVG(svgPath, e); err != nil {
			return err
		}
		fmt.Fprintf(status, "wrote %s\n", svgPath)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, e)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "run id: %s\n", runID)
	}
	return nil
}

// printSummary writes a table of final states, throughput and, with --plot,
// the head of trajectory 0 over time.
func printSummary(e *sim.Ensemble, summary *metrics.Summary, elapsed time.Duration, xs, ys, zs []float64) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRAJ\tX\tY\tZ\tSTEPS\tTAIL")
	for i := 0; i < e.TrajectoryCount(); i++ {
		tr, err := e.Trajectory(i)
		if err != nil {
			return err
		}
		h, err := e.History(i)
		if err != nil {
			return err
		}
		s := tr.State()
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%d\t%d\n", i, s[0], s[1], s[2], tr.Tick(), h.Len())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d frames, %d steps in %v (%.0f steps/sec)\n",
		summary.Frames, summary.Steps, elapsed.Round(time.Millisecond), summary.StepsPerSecond())

	if plot && len(xs) > 1 {
		graph := asciigraph.PlotMany([][]float64{xs, ys, zs},
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.Caption("trajectory 0: x (red) y (green) z (blue)"),
		)
		fmt.Println()
		fmt.Println(graph)
	}
	return nil
}

func writeSVG(path string, e *sim.Ensemble) error {
	tails := make([][]dynamo.State, e.TrajectoryCount())
	for i := range tails {
		states, err := e.Snapshot(i)
		if err != nil {
			return err
		}
		tails[i] = states
	}
	svg := export.TailsToSVG(tails, viz.NewCamera(), 800, 800, viz.PaletteHex())
	return os.WriteFile(path, []byte(svg), 0644)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTRAJ\tTAIL\tFRAMES\tSIGMA\tBETA\tRHO")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.3g\t%.3g\t%.3g\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Trajectories,
			run.TailLength,
			run.Frames,
			run.Sigma,
			run.Beta,
			run.Rho,
		)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tails, err := st.LoadTails(runID)
	if err != nil {
		return err
	}
	if len(tails) == 0 || len(tails[0]) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("trajectories: %d, tail: %d\n\n", len(tails), len(tails[0]))

	data := make([]float64, len(tails[0]))
	for i, s := range tails[0] {
		data[i] = s[0]
	}
	ps := analysis.PowerSpectrum(data)
	plotData := ps
	if len(ps) >= 8 {
		plotData = ps[:len(ps)/4]
	}

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (x of trajectory 0)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(ps, meta.StepSize)
	fmt.Printf("dominant frequency: %.3f\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f\n", 1.0/freq)
	}
	return nil
}

// startState draws a random state and lets it settle onto the attractor.
func startState(cfg *config.Config) dynamo.State {
	r := rand.New(rand.NewSource(cfg.Seed))
	s := sim.Generate(r)
	p := cfg.Params()
	for i := 0; i < 5000; i++ {
		integrators.Advance(&s, p.StepSize, p.Sigma, p.Beta, p.Rho)
	}
	return s
}

func estimateLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	x0 := startState(cfg)
	res := analysis.Divergence(cfg.Params(), x0, epsilon, lyapunovSteps)
	if len(res.Separation) == 0 {
		return fmt.Errorf("nothing to estimate: eps %g, steps %d", epsilon, lyapunovSteps)
	}

	logSep := make([]float64, 0, 400)
	stride := max(len(res.Separation)/400, 1)
	for i := 0; i < len(res.Separation); i += stride {
		logSep = append(logSep, math.Log10(math.Max(res.Separation[i], 1e-300)))
	}
	graph := asciigraph.Plot(logSep,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("log10 separation"),
	)
	fmt.Println(graph)
	fmt.Println()
	fmt.Printf("start: %s\n", x0)
	fmt.Printf("largest lyapunov exponent: %.4f\n", res.Lyapunov)
	if res.Lyapunov > 0 {
		fmt.Printf("chaotic; separation doubles every %.3f time units\n", math.Ln2/res.Lyapunov)
	}
	return nil
}

func plotBifurcation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	data := analysis.RhoSweep(cfg.Params(), startState(cfg), rhoFrom, rhoTo, rhoN, 10000, sweepSteps)
	fmt.Printf("z maxima for rho in [%g, %g]\n\n", rhoFrom, rhoTo)
	fmt.Print(analysis.BifurcationToASCII(data, 80, 24))
	return nil
}

func plotPoincare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	pts := analysis.PoincareSection(cfg.Params(), startState(cfg), sectionSteps)
	fmt.Printf("%d crossings of z = %g\n\n", len(pts), cfg.Rho-1)
	fmt.Println(analysis.PointsToASCII(pts, 80, 24))
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)
	const benchFrames = 200

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRAJ\tSTEPS/FRAME\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC")
	for _, n := range []int{1, 32, 1024} {
		for _, spf := range []int{1, 3, 10} {
			for _, wk := range []int{1, 0} {
				p := cfg.Params()
				p.StepsPerFrame = spf
				p.Paused = false
				e, err := sim.NewEnsemble(cfg.TailLength, p, sim.WithSeed(cfg.Seed), sim.WithWorkers(wk), sim.WithLogger(logger))
				if err != nil {
					return err
				}
				if err := sim.Populate(e, n, 0); err != nil {
					return err
				}
				summary := &metrics.Summary{}
				sched := sim.NewScheduler(e, summary)
				if err := sched.Run(context.Background(), benchFrames, 0, nil); err != nil {
					return err
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%v\t%.0f\n",
					n, spf, workerLabel(wk), summary.Steps, summary.Busy.Round(time.Microsecond), summary.StepsPerSecond())
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tTIME\tSTEPS/SEC\tERROR")
	p := cfg.Params()
	sys := physics.FromParams(p)
	const n = 100000
	ref := referenceState(p, n)
	for _, name := range []string{"rk4", "euler"} {
		stepper, _ := integrators.ByName(name)
		x := sys.DefaultState()
		start := time.Now()
		for i := 0; i < n; i++ {
			x = stepper.Step(sys, x, p.StepSize)
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.3g\n",
			name, n, elapsed.Round(time.Microsecond), float64(n)/elapsed.Seconds(), x.Sub(ref).Norm())
	}
	return w.Flush()
}

// referenceState integrates n steps from the default state with a ten times
// finer RK4 step.
func referenceState(p dynamo.Params, n int) dynamo.State {
	x := physics.NewLorenz().DefaultState()
	dt := p.StepSize / 10
	for i := 0; i < n*10; i++ {
		integrators.Advance(&x, dt, p.Sigma, p.Beta, p.Rho)
	}
	return x
}

func workerLabel(n int) string {
	if n <= 0 {
		return "all"
	}
	return fmt.Sprint(n)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRANDOM\tCLONES\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, p.Random, p.Clones, p.Description)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "lorenzsim.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
