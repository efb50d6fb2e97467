package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dannyallover/llm-forecasting/pkg/data"
	"github.com/dannyallover/llm-forecasting/pkg/eval"
)

var (
	evalCmd = &cli.Command{
		Name:    "evaluate",
		Aliases: []string{"eval", "e"},
		Usage:   "Score the four forecasting strategies against resolved outcomes (mean Brier score, lower is better)",
		Action:  cmdEvaluate,
	}
)

func cmdEvaluate(c *cli.Context) error {
	cfg := getConfig(c)

	ds, err := data.GetDataset(cfg.DB)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	slog.Debug("evaluating dataset", "retrievals", len(ds.Buckets), "questions", ds.Questions())

	report, err := eval.Evaluate(ds)
	if err != nil {
		return fmt.Errorf("evaluating dataset: %w", err)
	}

	// Plain labeled lines unless a structured format was asked for.
	if !c.IsSet(formatFlag.Name) {
		for _, s := range report.Scores {
			fmt.Fprintf(os.Stdout, "%s brier score: %.6f\n", s.Strategy, s.Brier)
		}
		return nil
	}

	if err := getEncoder().Encode(report); err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}

	return nil
}
