package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flavorfit/adapters/tables"
	"flavorfit/app"
	"flavorfit/domain/params"
	"flavorfit/domain/registry"
	"flavorfit/internal"
	"flavorfit/internal/config"
	"flavorfit/internal/errors"
	"flavorfit/internal/profiling"
)

// fitFlags are shared by every command that builds a likelihood.
type fitFlags struct {
	mode       string
	dataFile   string
	normalized bool
	logLevel   string
	assign     []string
}

func (f *fitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "Combination mode: gamma|charm|combined (default from FLAVORFIT_MODE)")
	cmd.Flags().StringVar(&f.dataFile, "data", "", "Measurement table (.yaml, .xlsx or .csv); embedded dataset if empty")
	cmd.Flags().BoolVar(&f.normalized, "normalized", false, "Include Gaussian normalisation constants")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE (default from LOG_LEVEL)")
	cmd.Flags().StringArrayVar(&f.assign, "set", nil, "Parameter override name=value, angles accept a deg suffix (repeatable)")
}

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "flavorfit",
		Short:         "Heavy-flavour global-fit likelihood evaluator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newScanCmd(),
		newListCmd(),
		newConvertCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flavorfit: [%s] %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command, f *fitFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("mode") {
		cfg.Fit.Mode = strings.ToLower(f.mode)
	}
	if cmd.Flags().Changed("data") {
		cfg.Data.File = f.dataFile
	}
	if cmd.Flags().Changed("normalized") {
		cfg.Fit.Normalized = f.normalized
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = strings.ToUpper(f.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := internal.ParseLogLevel(cfg.Log.Level)
	internal.DefaultLogger.SetLevel(level)
	return cfg, nil
}

// buildLikelihood loads the registry and joins it with the mode's catalog.
// Any data-entry defect stops the program here, before evaluation starts.
func buildLikelihood(ctx context.Context, cfg *config.Config) (*app.LikelihoodService, *registry.Registry, error) {
	reg, err := tables.NewSource(cfg.Data.File).LoadRegistry(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(errors.Classify(err), "failed to load measurements")
	}

	mode, err := params.ParseMode(cfg.Fit.Mode)
	if err != nil {
		return nil, nil, errors.Classify(err)
	}
	norm := app.Unnormalized
	if cfg.Fit.Normalized {
		norm = app.Normalized
	}

	svc, err := app.NewLikelihoodServiceForMode(reg, mode, norm)
	if err != nil {
		return nil, nil, errors.Wrap(errors.Classify(err), "failed to build likelihood")
	}
	internal.DefaultLogger.Info("Registry %s: %d measurements, mode %s, %s",
		reg.Fingerprint().Short(), reg.Len(), mode, norm)
	return svc, reg, nil
}

// point returns the layout defaults with the --set overrides applied.
func point(svc *app.LikelihoodService, assign []string) ([]float64, error) {
	layout := svc.Layout()
	p := layout.Defaults()
	if err := layout.Set(p, assign); err != nil {
		return nil, errors.Classify(err)
	}
	if err := layout.Validate(p); err != nil {
		internal.DefaultLogger.Warn("%v", err)
	}
	return p, nil
}

func newEvaluateCmd() *cobra.Command {
	var flags fitFlags
	var breakdown bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the log-likelihood at one parameter point",
		Long: `Evaluate the log-likelihood at the default parameter point, optionally
overridden with --set.

Example: flavorfit evaluate --mode gamma --set g=65deg --set rB_DK=0.1 --breakdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return runEvaluate(cmd.Context(), cfg, flags.assign, breakdown, asJSON)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "Show per-measurement contributions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runEvaluate(ctx context.Context, cfg *config.Config, assign []string, breakdown, asJSON bool) error {
	svc, _, err := buildLikelihood(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := point(svc, assign)
	if err != nil {
		return err
	}

	snap := app.Snapshot{}
	logL, err := svc.EvaluateInto(p, snap)
	if err != nil {
		return errors.Classify(err)
	}
	contributions, err := svc.Breakdown(p)
	if err != nil {
		return errors.Classify(err)
	}
	fit, pulls, err := app.NewScanService(svc, 1).Quality(p)
	if err != nil {
		return err
	}

	if asJSON {
		out := map[string]interface{}{
			"mode":          cfg.Fit.Mode,
			"normalization": svc.Normalization().String(),
			"parameters":    namedValues(svc.Layout().Names(), p),
			"log_l":         logL,
			"fit":           fit,
			"pulls":         pulls,
			"derived": map[string]float64{
				"x":   snap["derived/x"],
				"y":   snap["derived/y"],
				"qop": snap["derived/qop"],
				"phi": snap["derived/phi"],
			},
		}
		if breakdown {
			out["contributions"] = contributions
		}
		return printJSON(out)
	}

	fmt.Printf("\n📊 LIKELIHOOD (%s, %s)\n", cfg.Fit.Mode, svc.Normalization())
	for i, name := range svc.Layout().Names() {
		fmt.Printf("  %-10s = %.6g\n", name, p[i])
	}
	fmt.Printf("\nDerived mixing: x = %.5f, y = %.5f, |q/p| = %.4f, phi = %.4f\n",
		snap["derived/x"], snap["derived/y"], snap["derived/qop"], snap["derived/phi"])
	fmt.Printf("ln L = %.6f\n", logL)
	printQuality(fit, pulls)

	if breakdown {
		fmt.Printf("\n📈 CONTRIBUTIONS:\n")
		for _, c := range contributions {
			fmt.Printf("• %-24s chi2 = %8.3f\n", c.Name, c.Chi2())
			cp := c.Pulls()
			for i, label := range c.Labels {
				fmt.Printf("    %-16s pred %12.6g  meas %12.6g ± %-10.4g pull %+6.2f\n",
					label, c.Predicted[i], c.Measured[i], c.Sigmas[i], cp[i])
			}
		}
	}
	return nil
}

func printQuality(fit profiling.FitQuality, pulls profiling.PullSummary) {
	fmt.Printf("chi2/ndf = %.3f/%d, p-value = %.4f\n", fit.Chi2, fit.NDF, fit.PValue)
	fmt.Printf("Pulls: mean %.3f, rms %.3f, median %.3f, %d beyond 3 sigma (normality p = %.3f)\n",
		pulls.Mean, pulls.StdDev, pulls.Median, pulls.Outliers, pulls.NormalityP)
}

func newScanCmd() *cobra.Command {
	var flags fitFlags
	var minRaw, maxRaw string
	var points, workers int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [parameter]",
		Short: "Scan the log-likelihood along one parameter",
		Long: `Evaluate the log-likelihood on a grid in one parameter with all others fixed,
and report the best point and the -2 delta ln L = 1 interval.

Example: flavorfit scan g --min 40deg --max 100deg --points 121 --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("points") {
				cfg.Scan.Points = points
			}
			if cmd.Flags().Changed("workers") {
				cfg.Scan.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runScan(cmd.Context(), cfg, flags.assign, args[0], minRaw, maxRaw, asJSON)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&minRaw, "min", "", "Lower grid edge (default: parameter minimum)")
	cmd.Flags().StringVar(&maxRaw, "max", "", "Upper grid edge (default: parameter maximum)")
	cmd.Flags().IntVar(&points, "points", 101, "Number of grid points (default from FLAVORFIT_SCAN_POINTS)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent evaluations (default from FLAVORFIT_WORKERS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runScan(ctx context.Context, cfg *config.Config, assign []string, parameter, minRaw, maxRaw string, asJSON bool) error {
	svc, _, err := buildLikelihood(ctx, cfg)
	if err != nil {
		return err
	}
	base, err := point(svc, assign)
	if err != nil {
		return err
	}

	var spec params.Spec
	found := false
	for _, s := range svc.Layout().Specs() {
		if s.Name == parameter {
			spec, found = s, true
		}
	}
	if !found {
		_, err := svc.Layout().Index(parameter)
		return errors.Classify(err)
	}

	lo, hi := spec.Min, spec.Max
	if minRaw != "" {
		if lo, err = params.ParseValue(minRaw); err != nil {
			return errors.InvalidInput(fmt.Sprintf("invalid --min %q", minRaw))
		}
	}
	if maxRaw != "" {
		if hi, err = params.ParseValue(maxRaw); err != nil {
			return errors.InvalidInput(fmt.Sprintf("invalid --max %q", maxRaw))
		}
	}

	startTime := time.Now()
	result, err := app.NewScanService(svc, cfg.Scan.Workers).Run(ctx, app.ScanRequest{
		Parameter: parameter,
		Min:       lo,
		Max:       hi,
		Points:    cfg.Scan.Points,
		Base:      base,
	})
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(result)
	}

	fmt.Printf("\n🔍 SCAN %s (%s)\n", result.RunID, result.Mode)
	fmt.Printf("Parameter: %s in [%g, %g], %d points, %v\n", parameter, lo, hi, len(result.Points), time.Since(startTime))
	fmt.Printf("Best: %s = %.6g (ln L = %.4f)\n", parameter, result.Best.Value, result.Best.LogL)
	fmt.Printf("1 sigma: [%s, %s]\n",
		edge(result.Interval.Low, result.Interval.LowClosed),
		edge(result.Interval.High, result.Interval.HighClosed))
	printQuality(result.Fit, result.Pulls)

	fmt.Printf("\n%12s %14s %10s\n", parameter, "ln L", "-2dlnL")
	for _, pt := range result.Points {
		fmt.Printf("%12.6g %14.6f %10.4f\n", pt.Value, pt.LogL, pt.DeltaChi2)
	}
	return nil
}

func edge(v float64, closed bool) string {
	if closed {
		return fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("%.6g (grid edge)", v)
}

func newListCmd() *cobra.Command {
	var flags fitFlags

	cmd := &cobra.Command{
		Use:   "list [measurements|parameters|observables]",
		Short: "List registered measurements, parameters or scored observables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			what := "measurements"
			if len(args) == 1 {
				what = args[0]
			}
			return runList(cmd.Context(), cfg, what)
		},
	}

	flags.register(cmd)
	return cmd
}

func runList(ctx context.Context, cfg *config.Config, what string) error {
	svc, reg, err := buildLikelihood(ctx, cfg)
	if err != nil {
		return err
	}

	switch what {
	case "measurements":
		fmt.Printf("Registry %s (%d entries)\n", reg.Fingerprint().Short(), reg.Len())
		for _, e := range reg.Entries() {
			if m, ok := e.Measurement(); ok {
				fmt.Printf("• %-24s %s\n", e.Name(), m)
				continue
			}
			g, _ := e.Group()
			fmt.Printf("• %-24s group of %d, slots %v, ln|Σ| = %.3f\n", e.Name(), g.Dim(), g.Slots(), g.LogDet())
		}
	case "parameters":
		p := svc.Layout().Defaults()
		for i, s := range svc.Layout().Specs() {
			fmt.Printf("• %-10s default %-10.6g range [%g, %g]\n", s.Name, p[i], s.Min, s.Max)
		}
	case "observables":
		observables, err := app.Catalog(svc.Layout().Mode())
		if err != nil {
			return errors.Classify(err)
		}
		for _, o := range observables {
			fmt.Printf("• %-24s %s\n", o.Name, strings.Join(o.Labels, ", "))
		}
	default:
		return errors.InvalidInput(fmt.Sprintf("cannot list %q, want measurements, parameters or observables", what))
	}
	return nil
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a measurement table between YAML, Excel and CSV",
		Long: `Read a measurement table, validate it, and write it in the format named by
the output extension (.xlsx or .csv). Use "-" as input for the embedded dataset.

Example: flavorfit convert - measurements.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}
	return cmd
}

func runConvert(input, output string) error {
	if input == "-" {
		input = ""
	}
	source := tables.NewSource(input)
	doc, err := source.Document()
	if err != nil {
		return errors.Classify(err)
	}
	if _, err := tables.Build(doc); err != nil {
		return errors.Wrap(errors.Classify(err), "refusing to convert an invalid table")
	}
	if err := tables.WriteTable(output, doc); err != nil {
		return errors.Wrapf(err, "failed to write %s", output)
	}
	fmt.Printf("💾 %d entries written to %s\n", len(doc.Entries), output)
	return nil
}

func namedValues(names []string, values []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = values[i]
	}
	return out
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
