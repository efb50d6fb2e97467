package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dannyallover/llm-forecasting/pkg/data"
	"github.com/dannyallover/llm-forecasting/pkg/net"
)

var (
	dirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "Directory containing the snapshot files",
	}

	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "Base URL to download the snapshot files from (optional, defaults to config snapshot_url)",
	}

	freshFlag = &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Clear previously imported data first",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import snapshot artifacts (answers, model and crowd predictions) into the local database",
		UsageText: `fctl import --dir ./snapshots              # import local snapshot files
   fctl import --url https://example.com/v1   # download snapshot files, then import
   fctl import --dir ./snapshots --fresh      # re-import from scratch`,
		Action: cmdImport,
		Flags: []cli.Flag{
			dirFlag,
			urlFlag,
			freshFlag,
		},
	}
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Dir      string              `json:"dir,omitempty"`
	URL      string              `json:"url,omitempty"`
	Summary  *data.ImportSummary `json:"summary,omitempty"`
	Duration string              `json:"duration"`
}

func cmdImport(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	dir := c.String(dirFlag.Name)
	url := c.String(urlFlag.Name)

	if dir == "" && url == "" {
		url = cfg.Conf.SnapshotURL
	}
	if dir == "" && url == "" {
		return cli.ShowSubcommandHelp(c)
	}

	if url != "" {
		tmp, err := os.MkdirTemp("", name+"-snapshot-")
		if err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		if err := downloadSnapshots(c.Context, url, tmp, snapshotFiles(cfg)); err != nil {
			return fmt.Errorf("downloading snapshots: %w", err)
		}
		dir = tmp
	}

	slog.Info("reading snapshot", "dir", dir)
	snap, err := data.ReadSnapshot(dir)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	if c.Bool(freshFlag.Name) {
		if err := data.ClearData(cfg.DB); err != nil {
			return fmt.Errorf("clearing data: %w", err)
		}
		slog.Info("cleared previously imported data")
	}

	summary, err := data.ImportSnapshot(cfg.DB, snap)
	if err != nil {
		return fmt.Errorf("importing snapshot: %w", err)
	}

	res := &ImportResult{
		Dir:      c.String(dirFlag.Name),
		URL:      url,
		Summary:  summary,
		Duration: time.Since(start).String(),
	}

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

func snapshotFiles(cfg *appConfig) []string {
	if len(cfg.Conf.SnapshotFiles) > 0 {
		return cfg.Conf.SnapshotFiles
	}
	return data.SnapshotFileNames()
}

func downloadSnapshots(ctx context.Context, baseURL, dir string, files []string) error {
	client, err := snapshotClient(ctx)
	if err != nil {
		return err
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	g, _ := errgroup.WithContext(ctx)
	for _, f := range files {
		url := baseURL + "/" + f
		dest := filepath.Join(dir, f)
		g.Go(func() error {
			slog.Info("downloading snapshot file", "url", url)
			if err := net.Download(client, url, dest); err != nil {
				return fmt.Errorf("downloading %s: %w", url, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func snapshotClient(ctx context.Context) (*http.Client, error) {
	token, err := getDatasetToken()
	if err != nil || token == "" {
		slog.Debug("no dataset token, downloading anonymously")
		return net.GetHTTPClient()
	}
	return net.GetTokenClient(ctx, token), nil
}
