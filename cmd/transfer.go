package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/graymantle/playport/internal/formatter"
	"github.com/graymantle/playport/internal/repositories"
	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	"github.com/graymantle/playport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun transfers a source playlist into a new destination playlist.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.TransferOptions{
		DestName:    cmd.String("dest"),
		Description: cmd.String("description"),
		Public:      cmd.Bool("public"),
	}
	return r.runTransfer(ctx, cmd, opts)
}

// TransferLiked transfers a source playlist into the destination's liked set.
func (r *Runner) TransferLiked(ctx context.Context, cmd *cli.Command) error {
	return r.runTransfer(ctx, cmd, tasks.TransferOptions{ToLiked: true})
}

// TransferAll transfers every source playlist, each into its own new
// destination playlist, skipping names that match an exclude pattern.
func (r *Runner) TransferAll(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("no-cache") {
		if closeCache, err := r.attachCache(); err != nil {
			r.logger.Warn("match cache unavailable", "error", err)
		} else {
			defer closeCache()
		}
	}

	excludes := cmd.StringSlice("exclude")
	r.logger.Info("starting batch transfer", "excludes", excludes)
	r.writePlain("Starting batch transfer...\n")

	reports, runErr := r.engine.TransferAll(ctx, excludes, cmd.Bool("public"),
		func(index, total int, pl services.Playlist) {
			r.writePlainln("[%d/%d] %s (%d tracks)", index, total, pl.Name, pl.TrackCount)
		},
		func(index, total int, display string, success bool) {
			marker := "✓"
			if !success {
				marker = "✗"
			}
			r.writePlain("  %s [%d/%d] %s\n", marker, index, total, display)
		})

	if len(reports) > 0 {
		tracks, added := 0, 0
		for _, report := range reports {
			tracks += report.TotalCount
			added += report.SuccessCount
		}

		r.writePlain("\n")
		r.writePlainHeader("Batch Summary")
		r.writePlain("Playlists: %d\n", len(reports))
		if tracks > 0 {
			r.writePlain("Tracks: %d/%d transferred (%.1f%%)\n", added, tracks, float64(added)/float64(tracks)*100)
		}
		for _, report := range reports {
			r.writePlain("  %s: %d/%d", report.PlaylistName, report.SuccessCount, report.TotalCount)
			if report.Incomplete {
				r.writePlain(" (incomplete)")
			}
			r.writePlain("\n")
		}

		if dir := r.reportDir(cmd); dir != "" {
			for _, report := range reports {
				if _, err := formatter.WriteReport(report, dir); err != nil {
					r.logger.Warn("failed to write report file", "playlist", report.PlaylistName, "error", err)
				}
			}
			r.writePlain("\nReports saved to: %s\n", dir)
		}
	}

	return runErr
}

// runTransfer resolves the source, wires the cache, runs the engine, and
// prints the report.
func (r *Runner) runTransfer(ctx context.Context, cmd *cli.Command, opts tasks.TransferOptions) error {
	sourceIDOrName := cmd.String("source")

	playlistID, err := r.resolveSourcePlaylist(ctx, sourceIDOrName)
	if err != nil {
		return err
	}
	opts.PlaylistID = playlistID

	if !cmd.Bool("no-cache") {
		if closeCache, err := r.attachCache(); err != nil {
			r.logger.Warn("match cache unavailable", "error", err)
		} else {
			defer closeCache()
		}
	}

	r.logger.Info("starting transfer", "source", sourceIDOrName, "liked", opts.ToLiked)
	r.writePlain("Starting transfer...\n")
	r.writePlain("Source: %s\n\n", sourceIDOrName)

	report, runErr := r.engine.Transfer(ctx, opts, func(index, total int, display string, success bool) {
		marker := "✓"
		if !success {
			marker = "✗"
		}
		r.writePlain("  %s [%d/%d] %s\n", marker, index, total, display)
	})

	if report != nil {
		r.writePlain("\n")
		r.writePlainHeader("Transfer Report")
		r.writePlain("%s", string(formatter.ReportToText(report)))

		if dir := r.reportDir(cmd); dir != "" {
			if path, err := formatter.WriteReport(report, dir); err != nil {
				r.logger.Warn("failed to write report file", "error", err)
			} else {
				r.writePlain("\nReport saved to: %s\n", path)
			}
			if cmd.Bool("csv") {
				if path, err := formatter.WriteCSVReport(report, dir); err != nil {
					r.logger.Warn("failed to write CSV report", "error", err)
				} else {
					r.writePlain("CSV saved to: %s\n", path)
				}
			}
		}
	}

	return runErr
}

// resolveSourcePlaylist accepts a playlist ID or name. Names are resolved
// against the source's playlist listing; an empty value means liked tracks.
func (r *Runner) resolveSourcePlaylist(ctx context.Context, idOrName string) (string, error) {
	if idOrName == "" {
		return "", nil
	}
	if r.source == nil {
		return "", fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}

	if _, err := r.source.GetPlaylist(ctx, idOrName); err == nil {
		return idOrName, nil
	}

	playlists, err := r.source.GetPlaylists(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}
	for _, pl := range playlists {
		if strings.EqualFold(pl.Name, idOrName) {
			return pl.ID, nil
		}
	}

	return "", fmt.Errorf("%w: no playlist found with name '%s'", shared.ErrPlaylistNotFound, idOrName)
}

// attachCache opens the configured database and wires the match cache into
// the engine. The returned func closes the database.
func (r *Runner) attachCache() (func(), error) {
	path := r.config.Database.Path
	if path == "" {
		return nil, fmt.Errorf("no database path configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not initialized, run 'playport setup database' first")
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.engine.SetCache(repositories.NewMatchCacheAdapter(repositories.NewMatchRepository(db)))
	return func() {
		r.engine.SetCache(nil)
		db.Close()
	}, nil
}

func (r *Runner) reportDir(cmd *cli.Command) string {
	if cmd.IsSet("report-dir") {
		return cmd.String("report-dir")
	}
	return r.config.Transfer.ReportDir
}

// transferCommand handles playlist transfer operations.
func transferCommand(r *Runner) *cli.Command {
	sharedFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source playlist name or ID (empty transfers liked tracks)",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Skip the local match cache",
		},
		&cli.StringFlag{
			Name:  "report-dir",
			Usage: "Directory for the JSON transfer report",
		},
		&cli.BoolFlag{
			Name:  "csv",
			Usage: "Also write the outcomes as CSV",
		},
	}

	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists between services",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Transfer a playlist into a new destination playlist",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Destination playlist name (defaults to the source name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Destination playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the destination playlist public",
					},
				}, sharedFlags...),
				Action: r.TransferRun,
			},
			{
				Name:   "liked",
				Usage:  "Transfer a playlist into the destination's liked songs",
				Flags:  sharedFlags,
				Action: r.TransferLiked,
			},
			{
				Name:  "all",
				Usage: "Transfer every source playlist into new destination playlists",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Skip playlists whose name contains this pattern (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the destination playlists public",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the local match cache",
					},
					&cli.StringFlag{
						Name:  "report-dir",
						Usage: "Directory for the JSON transfer reports",
					},
				},
				Action: r.TransferAll,
			},
		},
	}
}
