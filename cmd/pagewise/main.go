// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/pagewise"
	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/discover"
	"github.com/poiesic/pagewise/drive"
	"github.com/poiesic/pagewise/ingestion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadDotEnv exports the variables in path unless they are already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pagewise",
		Usage: "Turn documents, web pages and drive files into paginated sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"PAGEWISE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML pipeline file",
				EnvVars: []string{"PAGEWISE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "pagewise-data",
				EnvVars: []string{"PAGEWISE_DB"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Store sources in PostgreSQL instead of BadgerDB",
				EnvVars: []string{"PAGEWISE_POSTGRES_DSN"},
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			cfg, err := LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[configKey] = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract and store files, URLs and drive files as one batch",
				ArgsUsage: "[file...]",
				Action:    ingestCommand,
				Flags: append(ownerFlags(), append(aiFlags(),
					&cli.StringSliceFlag{
						Name:  "url",
						Usage: "Web page to ingest (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "drive-id",
						Usage: "Google Drive file or folder id to ingest (repeatable)",
					},
					&cli.StringFlag{
						Name:    "drive-token",
						Usage:   "OAuth access token for Google Drive",
						EnvVars: []string{"GOOGLE_DRIVE_TOKEN"},
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus metrics for the run to this file",
					},
				)...),
			},
			{
				Name:      "show",
				Usage:     "Print stored sources as JSON",
				ArgsUsage: "[id...]",
				Action:    showCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "checksum",
						Usage: "Show sources whose content has this checksum",
					},
					&cli.StringFlag{
						Name:  "batch",
						Usage: "Show sources stored by this batch id",
					},
				},
			},
			{
				Name:      "discover",
				Usage:     "Search the web for sources on a topic and store them",
				ArgsUsage: "<topic>",
				Action:    discoverCommand,
				Flags: append(ownerFlags(),
					&cli.StringFlag{
						Name:     "exa-key",
						Usage:    "Exa API key",
						EnvVars:  []string{"EXA_API_KEY"},
						Required: true,
					},
					&cli.StringFlag{
						Name:   "exa-url",
						Usage:  "Exa API base URL",
						Value:  discover.DefaultExaURL,
						Hidden: true,
					},
				),
			},
		},
	}
}

func ownerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "user",
			Aliases:  []string{"u"},
			Usage:    "Owner user id stored on every source",
			EnvVars:  []string{"PAGEWISE_USER"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Workspace id stored on every source",
			EnvVars: []string{"PAGEWISE_WORKSPACE"},
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ai-backend",
			Usage:   "Inference backend for images, audio and video (googleai, openai)",
			Value:   ai.BackendGoogleAI,
			EnvVars: []string{"PAGEWISE_AI_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "Base URL of an OpenAI-compatible server",
			EnvVars: []string{"PAGEWISE_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "ai-key",
			Usage:   "API key for the inference backend",
			EnvVars: []string{"GEMINI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "ai-model",
			Usage:   "Model used for every media task",
			EnvVars: []string{"PAGEWISE_AI_MODEL"},
		},
	}
}

func configFrom(c *cli.Context) *Config {
	if cfg, ok := c.App.Metadata[configKey].(*Config); ok {
		return cfg
	}
	return DefaultConfig()
}

func openService(c *cli.Context, cfg *Config) (*pagewise.Service, error) {
	opts := []pagewise.ServiceOption{pagewise.WithPolicy(cfg.Policy)}
	if dsn := c.String("postgres-dsn"); dsn != "" {
		opts = append(opts, pagewise.WithPostgres(dsn))
	}
	if aiCfg := aiConfig(c); aiCfg != nil {
		opts = append(opts, pagewise.WithAIConfig(aiCfg))
	}
	svc, err := pagewise.NewService(c.Context, c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return svc, nil
}

// aiConfig returns nil when no inference backend is configured; media
// files are then reported as unsupported.
func aiConfig(c *cli.Context) *ai.Config {
	if c.String("ai-key") == "" && c.String("ai-host") == "" {
		return nil
	}
	opts := []ai.ConfigOption{
		ai.WithBackend(c.String("ai-backend")),
		ai.WithHost(c.String("ai-host")),
		ai.WithAPIKey(c.String("ai-key")),
	}
	if model := c.String("ai-model"); model != "" {
		opts = append(opts, ai.WithModel(model))
	}
	return ai.NewConfig(opts...)
}

func ownerOf(c *cli.Context) core.Owner {
	return core.Owner{UserID: c.String("user"), WorkspaceID: c.String("workspace")}
}

// buildBatch reads every file argument into an upload.
func buildBatch(c *cli.Context) (*core.Batch, error) {
	batch := &core.Batch{
		Owner:      ownerOf(c),
		URLs:       c.StringSlice("url"),
		DriveIDs:   c.StringSlice("drive-id"),
		DriveToken: c.String("drive-token"),
	}
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		batch.Uploads = append(batch.Uploads, core.Upload{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}
	if len(batch.Uploads)+len(batch.URLs)+len(batch.DriveIDs) == 0 {
		return nil, errors.New("nothing to ingest: pass files, --url or --drive-id")
	}
	return batch, nil
}

func ingestCommand(c *cli.Context) error {
	cfg := configFrom(c)
	batch, err := buildBatch(c)
	if err != nil {
		return err
	}

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	registry := prometheus.NewRegistry()
	metrics, err := ingestion.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	opts := append(cfg.CoordinatorOptions(),
		ingestion.WithDriveClientFactory(drive.GoogleClientFactory),
		ingestion.WithMonitor(metrics),
	)
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithMonitor(ingestion.NewProgressMonitor(c.App.ErrWriter, 1)))
	}
	coordinator, err := svc.NewCoordinator(opts...)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	report, err := coordinator.Run(c.Context, batch)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	slog.Info("batch finished", "batch_id", report.BatchID,
		"succeeded", report.Succeeded(), "failed", report.Failed())

	if path := c.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return writeJSON(c.App.Writer, report)
}

func showCommand(c *cli.Context) error {
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}
	checksum, batchID := c.String("checksum"), c.String("batch")
	if len(ids) == 0 && checksum == "" && batchID == "" {
		return errors.New("pass ids, --checksum or --batch")
	}

	svc, err := openService(c, configFrom(c))
	if err != nil {
		return err
	}
	defer svc.Close()

	sources := svc.Sources()
	var records []*core.SourceRecord
	switch {
	case checksum != "":
		records, err = sources.FindByChecksum(c.Context, checksum)
	case batchID != "":
		records, err = sources.FindByBatch(c.Context, batchID)
	default:
		records, err = sources.GetSources(c.Context, ids...)
	}
	if err != nil {
		return fmt.Errorf("failed to read sources: %w", err)
	}
	if len(records) == 0 {
		return errors.New("no matching sources")
	}
	return writeJSON(c.App.Writer, records)
}

func parseIDs(args []string) ([]core.ID, error) {
	ids := make([]core.ID, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid source id %q", arg)
		}
		ids = append(ids, core.ID(n))
	}
	return ids, nil
}

func discoverCommand(c *cli.Context) error {
	topic := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if topic == "" {
		return errors.New("a topic is required")
	}
	cfg := configFrom(c)

	searcher, err := discover.NewExa(c.String("exa-key"), discover.WithBaseURL(c.String("exa-url")))
	if err != nil {
		return err
	}

	svc, err := openService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var opts []discover.Option
	if cfg.Discover.DailyLimit > 0 {
		quota, err := svc.NewDailyQuota(cfg.Discover.DailyLimit)
		if err != nil {
			return err
		}
		opts = append(opts, discover.WithAdmission(quota))
	}
	discoverer, err := svc.NewDiscoverer(searcher, opts...)
	if err != nil {
		return fmt.Errorf("failed to create discoverer: %w", err)
	}

	report, err := discoverer.Discover(c.Context, ownerOf(c), topic)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	return writeJSON(c.App.Writer, report)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	writer := c.App.ErrWriter
	if writer == nil {
		writer = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}
