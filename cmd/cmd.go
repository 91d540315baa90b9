// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func playlistsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "playlists",
		Aliases: []string{"p"},
		Usage:   "Path to playlist specs (.toml, .yaml or .json); defaults to generation.playlists_path",
	}
}

// verbosityFlags returns --quiet and --verbose, which override [logging] level.
func verbosityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log warnings and errors",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log debug output",
		},
	}
}

// selectionFlags returns the flags shared by commands that generate playlists.
func selectionFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		playlistsFlag(),
		&cli.StringSliceFlag{
			Name:  "only",
			Usage: "Generate only the named playlist (repeatable)",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Jitter seed for reproducible runs; 0 draws a random seed",
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Override generation.pool_size",
		},
	}
}

// generateCommand fetches the pool, generates every spec and publishes the results.
func generateCommand(r *Runner) *cli.Command {
	flags := append(selectionFlags(), verbosityFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Dry run: print the playlists instead of uploading them",
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "Directory to export generated playlists to",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Export format: csv, markdown, txt or json",
			Value: "json",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the run summary as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate playlists from the library and upload them",
		Flags:   flags,
		Action:  r.Generate,
	}
}

// previewCommand runs a dry run and opens the interactive preview.
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "preview",
		Aliases: []string{"ui"},
		Usage:   "Preview generated playlists interactively before publishing",
		Flags:   append(selectionFlags(), verbosityFlags()...),
		Action:  r.Preview,
	}
}

// validateCommand checks the playlist specs without contacting the server.
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Load and validate playlist specs",
		Flags: []cli.Flag{
			configFlag(),
			playlistsFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Validate,
	}
}

// pingCommand checks connectivity and credentials.
func pingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check server connectivity and credentials",
		Flags:  append([]cli.Flag{configFlag()}, verbosityFlags()...),
		Action: r.Ping,
	}
}

// playlistsCommand lists the playlists on the server.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List playlists on the server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "match",
				Usage: "Only list playlists named BASE or \"BASE - ...\"",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// poolCommand fetches the candidate pool and reports classifier statistics.
func poolCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pool",
		Usage: "Fetch the candidate pool and show classifier statistics",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Override generation.pool_size",
			},
			&cli.BoolFlag{
				Name:  "excluded",
				Usage: "List excluded tracks with their reasons",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		}, verbosityFlags()...),
		Action: r.Pool,
	}
}

// setupCommand writes the example configuration and playlist specs.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write config.toml and playlists.toml templates",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "playlists",
				Aliases: []string{"p"},
				Usage:   "Path to write playlist specs to",
				Value:   "playlists.toml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing files",
			},
		},
		Action: r.Setup,
	}
}
