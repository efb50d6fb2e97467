// Package eval runs the comparative scoring loop: four competing point
// forecasts per question, mean Brier score per strategy.
package eval

import (
	"github.com/pkg/errors"

	"github.com/dannyallover/llm-forecasting/pkg/data"
	"github.com/dannyallover/llm-forecasting/pkg/ensemble"
	"github.com/dannyallover/llm-forecasting/pkg/metrics"
)

const (
	StrategyBase      string = "base"
	StrategyFinetuned string = "finetuned"
	StrategyCombined  string = "finetuned-and-base"
	StrategyCrowd     string = "crowd"
)

var (
	// Strategies lists the competing forecasts in report order.
	Strategies = []string{
		StrategyBase,
		StrategyFinetuned,
		StrategyCombined,
		StrategyCrowd,
	}
)

// StrategyScore is the mean Brier score of one forecasting strategy.
type StrategyScore struct {
	Strategy string  `json:"strategy"`
	Brier    float64 `json:"brier"`
}

// Report holds the comparative scores of a full evaluation run.
type Report struct {
	Retrievals int              `json:"retrievals"`
	Questions  int              `json:"questions"`
	Scores     []*StrategyScore `json:"scores"`
}

// Evaluate walks every retrieval bucket and question, computes the four
// competing forecasts, and returns their mean Brier scores. Any empty
// prediction set fails the run with a diagnostic naming the question.
func Evaluate(ds *data.Dataset) (*Report, error) {
	if ds == nil || len(ds.Buckets) == 0 {
		return nil, errors.New("dataset is empty")
	}

	accs := make(map[string]*metrics.Accumulator, len(Strategies))
	for _, s := range Strategies {
		accs[s] = &metrics.Accumulator{}
	}

	for _, b := range ds.Buckets {
		for _, q := range b.Questions {
			forecasts, err := forecastQuestion(q)
			if err != nil {
				return nil, errors.Wrapf(err, "retrieval %d question %d", b.Retrieval, q.ID)
			}
			for _, s := range Strategies {
				accs[s].Add(forecasts[s], q.Answer)
			}
		}
	}

	report := &Report{
		Retrievals: len(ds.Buckets),
		Questions:  ds.Questions(),
		Scores:     make([]*StrategyScore, 0, len(Strategies)),
	}
	for _, s := range Strategies {
		mean, err := accs[s].Mean()
		if err != nil {
			return nil, errors.Wrapf(err, "no forecasts for strategy %s", s)
		}
		report.Scores = append(report.Scores, &StrategyScore{Strategy: s, Brier: mean})
	}

	return report, nil
}

// forecastQuestion computes the four competing point forecasts for a
// single question.
func forecastQuestion(q *data.Question) (map[string]float64, error) {
	base, err := ensemble.TrimmedMean(q.Base)
	if err != nil {
		return nil, errors.Wrap(err, "base forecast")
	}

	finetuned, err := ensemble.Mean(concat(q.Finetuned, q.FinetunedOther))
	if err != nil {
		return nil, errors.Wrap(err, "finetuned forecast")
	}

	combined, err := ensemble.TrimmedMean(concat(q.Base, q.Finetuned, q.FinetunedOther))
	if err != nil {
		return nil, errors.Wrap(err, "combined forecast")
	}

	return map[string]float64{
		StrategyBase:      base,
		StrategyFinetuned: finetuned,
		StrategyCombined:  combined,
		StrategyCrowd:     q.Crowd,
	}, nil
}

func concat(sets ...[]float64) []float64 {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]float64, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
