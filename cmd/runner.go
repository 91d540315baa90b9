package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/services"
	"github.com/desertthunder/daylist/internal/shared"
	"github.com/desertthunder/daylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	publisher  services.Publisher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     tasks.Curator
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Publisher are normally left nil and built from the config on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Publisher  services.Publisher
	HTTPClient *http.Client // Overrides the timeout client of the Subsonic catalog
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		publisher:  opts.Publisher,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewPlaylistEngine(opts.Catalog, opts.Publisher, opts.Logger),
	}
}

// SetLogger replaces the logger of the runner and its engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = tasks.NewPlaylistEngine(r.catalog, r.publisher, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		generateCommand, previewCommand, validateCommand, pingCommand, playlistsCommand, poolCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare loads the config named by --config, applies environment overrides and sets the log level.
//
// When needServer is set and no catalog was injected, the Subsonic client is built from the config.
func (r *Runner) prepare(cmd *cli.Command, needServer bool) error {
	path := cmd.String("config")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			r.config = config
			r.configPath = path
		} else if cmd.IsSet("config") {
			return fmt.Errorf("%w: %s not found", shared.ErrMissingConfig, path)
		}
	}

	if err := shared.ApplyEnv(r.config); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	level := shared.ParseLogLevel(r.config.Logging.Level)
	switch {
	case cmd.Bool("verbose"):
		level = log.DebugLevel
	case cmd.Bool("quiet"):
		level = log.WarnLevel
	}
	shared.SetLogLevel(r.logger, level)

	if needServer && r.catalog == nil {
		if err := r.config.Validate(); err != nil {
			return err
		}

		gen := r.config.Generation
		opts := []services.ClientOption{
			services.WithLogger(r.logger),
			services.WithConcurrency(gen.Workers, gen.RateLimit),
		}
		if r.httpClient != nil {
			opts = append(opts, services.WithHTTPClient(r.httpClient))
		}

		client, err := services.NewSubsonicClient(r.config.Subsonic, opts...)
		if err != nil {
			return fmt.Errorf("failed to create Subsonic client: %w", err)
		}
		r.catalog = client
		if r.publisher == nil {
			r.publisher = client
		}
		r.logger.Debug("connected catalog", "base_url", r.config.Subsonic.BaseURL, "user", r.config.Subsonic.Username)
	}

	r.engine = tasks.NewPlaylistEngine(r.catalog, r.publisher, r.logger)
	return nil
}

// loadSpecs reads the playlist specs named by --playlists (or the config) and applies --only.
func (r *Runner) loadSpecs(cmd *cli.Command) ([]curation.PlaylistSpec, error) {
	path := cmd.String("playlists")
	if path == "" {
		path = r.config.Generation.PlaylistsPath
	}

	specs, err := curation.LoadSpecs(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded playlist specs", "path", path, "count", len(specs))

	only := cmd.StringSlice("only")
	if len(only) == 0 {
		return specs, nil
	}

	byName := make(map[string]curation.PlaylistSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	selected := make([]curation.PlaylistSpec, 0, len(only))
	for _, name := range only {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: no playlist named %q in %s", shared.ErrInvalidFlag, name, path)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// poolOptions builds the pool request from the config and --pool-size.
func (r *Runner) poolOptions(cmd *cli.Command) services.PoolOptions {
	gen := r.config.Generation
	size := gen.PoolSize
	if n := cmd.Int("pool-size"); n > 0 {
		size = n
	}
	return services.PoolOptions{
		Size:     size,
		Diverse:  gen.DiversePool,
		Genres:   gen.GenreSeeds,
		PerGenre: gen.PerGenre,
	}
}

// runOptions builds run options from the config and the selection flags.
func (r *Runner) runOptions(cmd *cli.Command) tasks.RunOptions {
	seed := r.config.Generation.Seed
	if cmd.IsSet("seed") {
		seed = cmd.Uint64("seed")
	}
	return tasks.RunOptions{
		Pool:    r.poolOptions(cmd),
		Seed:    seed,
		Workers: r.config.Generation.Workers,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
