package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/abverdict/internal/config"
	"github.com/headline-goat/abverdict/internal/stats"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	envFile    string
	seed       uint64
	sampler    string
	logLevel   string

	threshold float64
	minSample int
	minEffect float64

	cfg    config.Config
	logger *zap.Logger
	calc   *stats.Calculator
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "abv",
		Short: "abverdict - Bayesian and frequentist verdicts for A/B tests",
		Long: `abverdict turns aggregated A/B test counts into decisions.

It estimates the probability a challenger beats control, checks
significance and early stopping, and plans sample sizes and power.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", getEnvOrDefault("ABV_CONFIG", ""), "policy file (YAML)")
	flags.StringVar(&a.envFile, "env-file", ".env", "env file with ABV_* settings")
	flags.Uint64Var(&a.seed, "seed", 0, "fixed random seed for reproducible results")
	flags.StringVar(&a.sampler, "sampler", "", "beta sampler: marsaglia or exact")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.Float64Var(&a.threshold, "threshold", 0, "probability required to declare a winner")
	flags.IntVar(&a.minSample, "min-sample", 0, "minimum trials per variant before concluding")
	flags.Float64Var(&a.minEffect, "min-effect", 0, "minimum detectable effect in percent")

	cmd.AddCommand(
		newCompareCmd(a),
		newConfidenceCmd(a),
		newSampleSizeCmd(a),
		newPowerCmd(a),
		newAnalyzeCmd(a),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// setup resolves configuration with flags taking precedence over the
// environment and policy file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := a.seed
		cfg.Seed = &seed
	}
	if flags.Changed("sampler") {
		cfg.Sampler = a.sampler
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("threshold") {
		cfg.Statistics.ConfidenceThreshold = a.threshold
	}
	if flags.Changed("min-sample") {
		cfg.Statistics.MinimumSampleSize = a.minSample
	}
	if flags.Changed("min-effect") {
		cfg.Statistics.MinimumDetectableEffect = a.minEffect
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	opts, err := cfg.CalculatorOptions()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.calc = stats.NewCalculator(append(opts, stats.WithLogger(logger))...)
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
