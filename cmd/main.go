package main

import (
	"context"
	"errors"
	"os"

	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			spotifyService = svc
			if config.Credentials.Spotify.AccessToken != "" {
				_ = svc.Authenticate(context.Background(), map[string]string{
					"access_token": config.Credentials.Spotify.AccessToken,
				})
			}
		}
	}

	youtubeService := services.NewYouTubeService(config.Credentials.YouTube.ProxyURL)
	if config.Credentials.YouTube.HeadersPath != "" {
		_ = youtubeService.Authenticate(context.Background(), map[string]string{
			"auth_file": config.Credentials.YouTube.HeadersPath,
		})
	}
	apiService := services.NewAPIService(config.Credentials.YouTube.ProxyURL, nil)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Dest:       youtubeService,
		API:        apiService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "playport",
		Usage:    "Transfer playlists between music services",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(errors.Unwrap(err), shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
