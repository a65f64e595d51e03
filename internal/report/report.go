// Package report renders convergence comparisons across optimization runs:
// a text table of summary statistics and a best-score-so-far plot. Runs are
// read-only inputs; nothing here mutates them.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/copyleftdev/SMBO/internal/optimize"
)

// Table writes one row per run: label, calls, final best score, and the mean
// and spread of the raw per-call scores.
func Table(w io.Writer, runs ...*optimize.Run) error {
	if len(runs) == 0 {
		return fmt.Errorf("report: no runs to compare")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCALLS\tBEST\tMEAN\tSTDDEV")

	for _, run := range runs {
		if len(run.History) == 0 {
			return fmt.Errorf("report: run %q has no history", run.Label)
		}

		scores := make([]float64, len(run.History))
		for i, eval := range run.History {
			scores[i] = eval.Solution.Score
		}

		mean, err := stats.Mean(scores)
		if err != nil {
			return fmt.Errorf("report: run %q: %w", run.Label, err)
		}
		stddev, err := stats.StandardDeviation(scores)
		if err != nil {
			return fmt.Errorf("report: run %q: %w", run.Label, err)
		}

		best := run.BestSoFar()
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\n", run.Label, run.Calls, best[len(best)-1], mean, stddev)
	}
	return tw.Flush()
}

// PrintBest writes the best score and point of one run.
func PrintBest(w io.Writer, run *optimize.Run) error {
	if run.Best == nil {
		return fmt.Errorf("report: run %q has no best solution", run.Label)
	}
	_, err := fmt.Fprintf(w, "%s: best score %.4f at %v\n", run.Label, run.Best.Score, run.Best.Point)
	return err
}

// PlotConvergence renders the best-so-far curves of all runs into one PNG.
func PlotConvergence(path string, runs ...*optimize.Run) error {
	if len(runs) == 0 {
		return fmt.Errorf("report: no runs to plot")
	}

	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "objective calls"
	p.Y.Label.Text = "best score so far"
	p.Legend.Top = true

	for i, run := range runs {
		if len(run.History) == 0 {
			return fmt.Errorf("report: run %q has no history", run.Label)
		}

		best := run.BestSoFar()
		pts := make(plotter.XYs, len(best))
		for j, score := range best {
			pts[j].X = float64(j + 1)
			pts[j].Y = score
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("report: run %q: %w", run.Label, err)
		}
		line.Color = plotutilColor(i)
		p.Add(line)
		p.Legend.Add(run.Label, line)
	}

	return p.Save(7*vg.Inch, 5*vg.Inch, path)
}
