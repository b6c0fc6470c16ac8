package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/graymantle/playport/internal/match"
	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	"github.com/graymantle/playport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	source     services.SourceReader
	dest       services.DestinationCatalog
	api        *services.APIService
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Source     services.SourceReader
	Dest       services.DestinationCatalog
	API        *services.APIService
	Cache      tasks.MatchCache
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
// The transfer engine is assembled from the source, destination, and the
// config's matching and retry tuning.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Source == nil && opts.Spotify != nil {
		opts.Source = opts.Spotify
	}

	transfer := opts.Config.Transfer
	matcher := match.NewMatcher(opts.Dest, match.NewScorer(), transfer.Threshold, transfer.MaxResults)

	engine := tasks.NewPlaylistEngine(opts.Source, opts.Dest, matcher)
	engine.SetRetryPolicy(retryPolicyFromConfig(transfer))
	engine.SetWriteInterval(time.Duration(transfer.WriteIntervalMs) * time.Millisecond)
	if opts.Cache != nil {
		engine.SetCache(opts.Cache)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		source:     opts.Source,
		dest:       opts.Dest,
		api:        opts.API,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
	}
}

func retryPolicyFromConfig(transfer shared.TransferConfig) tasks.RetryPolicy {
	policy := tasks.DefaultRetryPolicy()
	if transfer.RetryAttempts > 0 {
		policy.MaxAttempts = transfer.RetryAttempts
	}
	if transfer.RetryBaseMs > 0 {
		policy.BaseDelay = time.Duration(transfer.RetryBaseMs) * time.Millisecond
	}
	if transfer.RetryCapMs > 0 {
		policy.CapDelay = time.Duration(transfer.RetryCapMs) * time.Millisecond
	}
	return policy
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, transferCommand, cacheCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
