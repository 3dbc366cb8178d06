package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/san-kum/lorenzsim/internal/config"
	"github.com/san-kum/lorenzsim/internal/sim"
)

var (
	dataDir    string
	configFile string
	preset     string
	tailLength int
	count      int
	clones     int
	frameRate  int
	seed       int64
	workers    int
	logLevel   string

	// run
	frames      int
	plot        bool
	save        bool
	jsonOut     bool
	svgPath     string
	metricsAddr string

	// analysis
	lyapunovSteps int
	sweepSteps    int
	sectionSteps  int
	epsilon       float64
	rhoFrom       float64
	rhoTo         float64
	rhoN          int

	force bool
)

// main registers the lorenzsim commands. With no subcommand it opens the
// live viewer on a terminal and falls back to a headless run otherwise.
func main() {
	rootCmd := &cobra.Command{
		Use:          "lorenzsim",
		Short:        "lorenz attractor ensemble simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return runLive(cmd, args)
			}
			return runHeadless(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".lorenzsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "starting population preset")
	pf.IntVar(&tailLength, "tail", config.DefaultTailLength, "tail length per trajectory")
	pf.IntVar(&count, "count", config.DefaultTrajectories, "random trajectories")
	pf.IntVar(&clones, "clones", 0, "clones of random trajectories")
	pf.IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	pf.IntVar(&workers, "workers", 1, "integration goroutines per frame (0 uses all CPUs)")
	pf.StringVar(&logLevel, "log-level", "info", "log level")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the ensemble in the terminal viewer",
		RunE:  runLive,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the ensemble headless for a number of frames",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&frames, "frames", 600, "frames to run")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot trajectory 0")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "write the tails as JSON to stdout")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final tails as an svg image")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest lyapunov exponent",
		RunE:  estimateLyapunov,
	}
	lyapunovCmd.Flags().IntVar(&lyapunovSteps, "steps", 50000, "integration steps")
	lyapunovCmd.Flags().Float64Var(&epsilon, "eps", 1e-8, "initial separation")

	bifurcationCmd := &cobra.Command{
		Use:   "bifurcation",
		Short: "plot z maxima across a range of rho",
		RunE:  plotBifurcation,
	}
	bifurcationCmd.Flags().Float64Var(&rhoFrom, "from", 20, "first rho")
	bifurcationCmd.Flags().Float64Var(&rhoTo, "to", 200, "last rho")
	bifurcationCmd.Flags().IntVar(&rhoN, "n", 80, "rho values")
	bifurcationCmd.Flags().IntVar(&sweepSteps, "steps", 20000, "recorded steps per rho")

	poincareCmd := &cobra.Command{
		Use:   "poincare",
		Short: "plot crossings of the plane z = rho-1",
		RunE:  plotPoincare,
	}
	poincareCmd.Flags().IntVar(&sectionSteps, "steps", 200000, "integration steps")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark ensemble stepping",
		RunE:  bench,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, analyzeCmd, lyapunovCmd, bifurcationCmd, poincareCmd, benchCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, the preset and any flags the
// user set, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("tail") {
		cfg.TailLength = tailLength
	}
	if flags.Changed("count") {
		cfg.Trajectories = count
	}
	if flags.Changed("clones") {
		cfg.Clones = clones
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newEnsemble(cfg *config.Config, logger *slog.Logger) (*sim.Ensemble, error) {
	e, err := sim.NewEnsemble(cfg.TailLength, cfg.Params(),
		sim.WithSeed(cfg.Seed),
		sim.WithCloneEpsilon(cfg.CloneEpsilon),
		sim.WithWorkers(cfg.Workers),
		sim.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if err := sim.Populate(e, cfg.Trajectories, cfg.Clones); err != nil {
		return nil, err
	}
	return e, nil
}
