package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dannyallover/llm-forecasting/pkg/data"
)

const (
	queryResultLimitDefault = 500
)

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	retrievalFlag = &cli.IntFlag{
		Name:  "retrieval",
		Usage: "Retrieval bucket index (0-based)",
		Value: -1,
	}

	questionIDFlag = &cli.IntFlag{
		Name:     "question",
		Usage:    "Question index within the retrieval bucket",
		Required: true,
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "List data query operations",
		Subcommands: []*cli.Command{
			{
				Name:    "summary",
				Usage:   "Dataset counts per retrieval bucket and prediction source",
				Aliases: []string{"s"},
				Action:  cmdQuerySummary,
			},
			{
				Name:    "questions",
				Usage:   "List questions with their prediction counts",
				Aliases: []string{"l"},
				Action:  cmdQueryQuestions,
				Flags: []cli.Flag{
					retrievalFlag,
					queryLimitFlag,
				},
			},
			{
				Name:    "question",
				Usage:   "Get one question with its full prediction sets",
				Aliases: []string{"d"},
				Action:  cmdQueryQuestion,
				Flags: []cli.Flag{
					retrievalFlag,
					questionIDFlag,
				},
			},
		},
	}
)

func optionalRetrieval(c *cli.Context) *int {
	v := c.Int(retrievalFlag.Name)
	if v < 0 {
		return nil
	}
	return &v
}

func cmdQuerySummary(c *cli.Context) error {
	cfg := getConfig(c)

	s, err := data.GetDatasetSummary(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to query summary: %w", err)
	}

	if err := getEncoder().Encode(s); err != nil {
		return fmt.Errorf("error encoding: %+v: %w", s, err)
	}

	return nil
}

func cmdQueryQuestions(c *cli.Context) error {
	limit := c.Int(queryLimitFlag.Name)
	if limit == 0 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}

	cfg := getConfig(c)

	list, err := data.ListQuestions(cfg.DB, optionalRetrieval(c), limit)
	if err != nil {
		return fmt.Errorf("failed to query questions: %w", err)
	}

	return getEncoder().Encode(list)
}

func cmdQueryQuestion(c *cli.Context) error {
	retrieval := c.Int(retrievalFlag.Name)
	if retrieval < 0 {
		return cli.ShowSubcommandHelp(c)
	}

	cfg := getConfig(c)

	d, err := data.GetQuestionDetail(cfg.DB, retrieval, c.Int(questionIDFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query question: %w", err)
	}

	if err := getEncoder().Encode(d); err != nil {
		return fmt.Errorf("error encoding: %+v: %w", d, err)
	}

	return nil
}
