package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graymantle/playport/internal/repositories"
	"github.com/graymantle/playport/internal/shared"
	"github.com/urfave/cli/v3"
)

// openDatabase opens the configured match cache database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		return nil, fmt.Errorf("%w: no database path configured", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// CacheList prints cached matches.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewMatchRepository(db)
	matches, err := repo.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, true)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Match Cache (%d entries)", count))
	if len(matches) == 0 {
		r.writePlain("Cache is empty.\n")
		return nil
	}

	for i, m := range matches {
		r.writePlain("%d. %s - %s\n", i+1, m.Artist, m.Title)
		r.writePlain("   %s:%s -> %s:%s (score %.2f)\n", m.SourceService, m.SourceID, m.DestService, m.DestID, m.Score)
	}
	return nil
}

// CacheClear deletes cached matches, optionally scoped to one source service.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	service := cmd.String("service")
	deleted, err := repositories.NewMatchRepository(db).Clear(ctx, service)
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "service", service, "deleted", deleted)
	return r.writePlain("✓ Removed %d cached matches\n", deleted)
}

// cacheCommand manages the local match cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local match cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached matches",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum entries to show (0 shows all)",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:  "clear",
				Usage: "Delete cached matches",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "service",
						Usage: "Only clear matches from this source service",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}
