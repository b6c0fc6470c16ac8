package main

import (
	"context"
	"fmt"

	"github.com/graymantle/playport/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthSpotify authenticates with Spotify. Without flags it prints the OAuth
// authorization URL; with --code it exchanges the code and saves the tokens;
// with --token it uses the access token directly.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrMissingCredentials)
	}

	code := cmd.String("code")
	token := cmd.String("token")

	if code == "" && token == "" {
		url := r.spotify.GetAuthURL(shared.GenerateID())
		r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", url)
		r.writePlain("Then run: playport auth spotify --code <code from redirect>\n")
		return nil
	}

	credentials := map[string]string{}
	if token != "" {
		credentials["access_token"] = token
	} else {
		credentials["auth_code"] = code
	}

	if err := r.spotify.Authenticate(ctx, credentials); err != nil {
		return err
	}

	// Verify the token actually works before persisting it.
	if _, err := r.spotify.GetPlaylists(ctx); err != nil {
		return fmt.Errorf("%w: token verification failed: %v", shared.ErrAuthFailed, err)
	}

	if saved := r.spotify.Token(); saved != nil {
		if err := r.saveTokens(saved); err != nil {
			r.logger.Warn("failed to persist tokens", "error", err)
		}
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Spotify authentication successful\n")
}

// AuthStatus checks the destination proxy's authentication state via /health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: service unavailable: %v", shared.ErrServiceUnavailable, err)
	}

	if !resp.IsJSON {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return r.writePlain("✓ Service is healthy\nStatus: %s\n", string(resp.Body))
		}
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		healthData, ok := resp.JSONData.(map[string]any)
		if !ok {
			return r.writePlain("✓ Service is healthy\n")
		}

		status, ok := healthData["status"].(string)
		if !ok {
			status = "unknown"
		}
		authenticated := false
		if auth, ok := healthData["authenticated"].(bool); ok {
			authenticated = auth
		}

		r.writePlain("✓ Service is healthy\n")
		r.writePlain("Status: %s\n", status)
		if authenticated {
			r.writePlain("Authentication: ✓ Authenticated\n")
		} else {
			r.writePlain("Authentication: ✗ Not authenticated\n")
		}
		return nil
	}

	return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
}

// saveTokens writes OAuth tokens into the config file so later runs reuse them.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrInvalidConfig)
	}
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidInput)
	}

	r.config.Credentials.Spotify.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		r.config.Credentials.Spotify.RefreshToken = token.RefreshToken
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Info("tokens saved", "path", r.configPath)
	return nil
}

// authCommand handles authentication operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code from the OAuth redirect",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Use an existing access token directly",
					},
				},
				Action: r.AuthSpotify,
			},
			{
				Name:   "status",
				Usage:  "Check destination proxy authentication state (calls /health)",
				Action: r.AuthStatus,
			},
		},
	}
}
