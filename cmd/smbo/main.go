// Command smbo runs tuning studies from the command line: it minimizes a
// cross-validated objective with the model-based strategy, optionally runs
// the exhaustive grid baseline over the same space, and reports how the two
// converge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/SMBO/internal/config"
	"github.com/copyleftdev/SMBO/internal/dataset"
	"github.com/copyleftdev/SMBO/internal/logging"
	"github.com/copyleftdev/SMBO/internal/objective"
	opt "github.com/copyleftdev/SMBO/internal/optimize"
	"github.com/copyleftdev/SMBO/internal/optimize/bayesian"
	"github.com/copyleftdev/SMBO/internal/optimize/grid"
	"github.com/copyleftdev/SMBO/internal/report"
	"github.com/copyleftdev/SMBO/internal/search"
	"github.com/copyleftdev/SMBO/internal/validate"
)

// Study is the YAML study file format. Unset fields keep the values from the
// environment configuration.
type Study struct {
	Objective  string   `yaml:"objective"`
	Minimizers []string `yaml:"minimizers"`

	MaxEvals      int   `yaml:"max_evals"`
	InitialPoints int   `yaml:"initial_points"`
	Seed          int64 `yaml:"seed"`
	CVFolds       int   `yaml:"cv_folds"`
	NEstimators   int   `yaml:"n_estimators"`

	Dataset struct {
		Path          string `yaml:"path"`
		SyntheticRows int    `yaml:"synthetic_rows"`
		SyntheticSeed int64  `yaml:"synthetic_seed"`
	} `yaml:"dataset"`
}

func loadStudy(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading study file: %w", err)
	}
	study := &Study{}
	if err := yaml.Unmarshal(data, study); err != nil {
		return nil, fmt.Errorf("parsing study file %s: %w", path, err)
	}
	return study, nil
}

// apply overlays the study file on top of the environment configuration.
func (st *Study) apply(cfg *config.Config) {
	if st.MaxEvals > 0 {
		cfg.Tuning.MaxEvals = st.MaxEvals
	}
	if st.InitialPoints > 0 {
		cfg.Tuning.NInitialPoints = st.InitialPoints
	}
	if st.Seed != 0 {
		cfg.Tuning.Seed = st.Seed
	}
	if st.CVFolds > 0 {
		cfg.Tuning.CVFolds = st.CVFolds
	}
	if st.NEstimators > 0 {
		cfg.Tuning.NEstimators = st.NEstimators
	}
	if st.Dataset.Path != "" {
		cfg.Dataset.Path = st.Dataset.Path
	}
	if st.Dataset.SyntheticRows > 0 {
		cfg.Dataset.SyntheticRows = st.Dataset.SyntheticRows
	}
	if st.Dataset.SyntheticSeed != 0 {
		cfg.Dataset.SyntheticSeed = st.Dataset.SyntheticSeed
	}
}

type tunable interface {
	Space() (*search.Space, error)
	Evaluate(point []float64) (float64, error)
}

func buildObjective(name string, table *dataset.Table, cfg *config.Config) (tunable, error) {
	folds := validate.KFold{K: cfg.Tuning.CVFolds, Seed: cfg.Tuning.Seed}
	switch name {
	case "boosted":
		return objective.NewBoosted(table, folds, cfg.Tuning.NEstimators, cfg.Tuning.Seed)
	case "", "pipeline":
		return objective.NewPipeline(table, folds, cfg.Tuning.NEstimators, cfg.Tuning.Seed)
	default:
		return nil, fmt.Errorf("unknown objective %q, want \"boosted\" or \"pipeline\"", name)
	}
}

func buildMinimizer(name string, optCfg opt.Config, logger *logging.Logger) (opt.Minimizer, error) {
	switch name {
	case "bayesian":
		return bayesian.New(optCfg, logging.NewZapLogger(logger))
	case "grid":
		return grid.New(optCfg, nil)
	default:
		return nil, fmt.Errorf("unknown minimizer %q, want \"bayesian\" or \"grid\"", name)
	}
}

func run() error {
	var (
		studyPath  = flag.String("study", "", "path to a YAML study file")
		objName    = flag.String("objective", "", "objective to tune: boosted or pipeline (default pipeline)")
		minimizers = flag.String("minimizers", "bayesian,grid", "comma-separated minimizers to run")
		dataPath   = flag.String("data", "", "CSV dataset whose last column is the target (default: synthetic)")
		outDir     = flag.String("out", "", "output directory for the convergence plot")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	toRun := strings.Split(*minimizers, ",")
	if *studyPath != "" {
		study, err := loadStudy(*studyPath)
		if err != nil {
			return err
		}
		study.apply(cfg)
		if study.Objective != "" && *objName == "" {
			*objName = study.Objective
		}
		if len(study.Minimizers) > 0 {
			toRun = study.Minimizers
		}
	}
	if *dataPath != "" {
		cfg.Dataset.Path = *dataPath
	}
	if *outDir != "" {
		cfg.Report.OutDir = *outDir
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	var table *dataset.Table
	if cfg.Dataset.Path != "" {
		table, err = dataset.LoadCSV(cfg.Dataset.Path)
		if err != nil {
			return err
		}
	} else {
		table = dataset.Synthetic(cfg.Dataset.SyntheticRows, cfg.Dataset.SyntheticSeed)
	}
	logger.Info("dataset loaded", map[string]interface{}{
		"rows":     table.Rows(),
		"features": table.Features(),
	})

	obj, err := buildObjective(*objName, table, cfg)
	if err != nil {
		return err
	}
	space, err := obj.Space()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	optCfg := opt.Config{
		Objective:      obj.Evaluate,
		Space:          space,
		MaxEvals:       cfg.Tuning.MaxEvals,
		NInitialPoints: cfg.Tuning.NInitialPoints,
		Seed:           cfg.Tuning.Seed,
	}

	var runs []*opt.Run
	for _, name := range toRun {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		minimizer, err := buildMinimizer(name, optCfg, logger)
		if err != nil {
			return err
		}

		logger.Info("study started", map[string]interface{}{
			"minimizer": name,
			"max_evals": cfg.Tuning.MaxEvals,
		})
		result, err := minimizer.Minimize(ctx, optCfg)
		if err != nil {
			return fmt.Errorf("%s run failed: %w", name, err)
		}
		runs = append(runs, result)

		if err := report.PrintBest(os.Stdout, result); err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		return fmt.Errorf("no minimizers selected")
	}

	fmt.Println()
	if err := report.Table(os.Stdout, runs...); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Report.OutDir, 0o755); err != nil {
		return err
	}
	plotPath := filepath.Join(cfg.Report.OutDir, "convergence.png")
	if err := report.PlotConvergence(plotPath, runs...); err != nil {
		return err
	}
	fmt.Printf("\nconvergence plot written to %s\n", plotPath)

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
