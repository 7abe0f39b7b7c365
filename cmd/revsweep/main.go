// Command revsweep removes revisions whose media document was deleted but
// whose history could not be removed at the time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/database"
	"github.com/mediashelf/mediashelf/internal/media/service"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.MongoDB.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	// authors are never resolved by a sweep
	svc := service.NewMongoService(client.Database(cfg.MongoDB.Database), nil, service.Options{})

	interval := cmd.Duration("interval")
	for {
		n, err := svc.SweepOrphanedRevisions(ctx)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		logger.Infof("revsweep: removed %d orphaned revisions", n)
		if interval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "revsweep",
		Usage:  "Remove revisions left behind by deleted media documents",
		Action: run,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Repeat the sweep at this interval; run once when zero",
				Sources: cli.EnvVars("REVSWEEP_INTERVAL"),
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Errorf("revsweep: %v", err)
		os.Exit(1)
	}
}
