package main

import (
	"context"
	"errors"

	"github.com/desertthunder/daylist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config.toml and playlists.toml.
//
// Existing files are kept unless --force is set.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	force := cmd.Bool("force")
	templates := []struct {
		path  string
		write func(string, bool) error
	}{
		{cmd.String("config"), shared.CreateConfigFile},
		{cmd.String("playlists"), shared.CreatePlaylistsFile},
	}

	for _, tmpl := range templates {
		err := tmpl.write(tmpl.path, force)
		switch {
		case errors.Is(err, shared.ErrInvalidArgument):
			r.logger.Warn("file exists, use --force to overwrite", "path", tmpl.path)
			r.writePlain("- kept %s\n", tmpl.path)
		case err != nil:
			return err
		default:
			r.logger.Info("wrote template", "path", tmpl.path)
			r.writePlain("✓ wrote %s\n", tmpl.path)
		}
	}

	r.writePlainln("Add your server credentials to config.toml or .env (%s, %s, %s), then run: daylist generate --debug",
		shared.EnvBaseURL, shared.EnvUsername, shared.EnvPassword)
	return nil
}
