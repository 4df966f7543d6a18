package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/imagecache"
	"github.com/desertthunder/closet/internal/repositories"
	"github.com/desertthunder/closet/internal/services"
	"github.com/desertthunder/closet/internal/shared"
	"github.com/desertthunder/closet/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	store    *shared.SQLiteStore
	cache    *imagecache.Cache
	articles *repositories.ArticleRepository
	outfits  *repositories.OutfitRepository
	pipeline *tasks.Pipeline
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
// Storage and provider clients are opened lazily per command.
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// ensureStorage opens the key-value store, image cache, and repositories.
func (r *Runner) ensureStorage() error {
	if r.store != nil {
		return nil
	}

	store, err := shared.OpenStore(r.config.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	r.store = store
	r.cache = imagecache.New(r.config.Storage.ImageDir, r.httpClient, r.logger)
	if err := r.cache.EnsureStorageReady(); err != nil {
		return err
	}

	r.articles = repositories.NewArticleRepository(store, r.cache, r.logger)
	r.outfits = repositories.NewOutfitRepository(store, r.articles, r.logger)
	return nil
}

// ensurePipeline builds the configured detector and generation stages.
func (r *Runner) ensurePipeline() error {
	if r.pipeline != nil {
		return nil
	}
	if err := r.ensureStorage(); err != nil {
		return err
	}

	detector, err := services.NewDetector(r.config.Providers, r.httpClient)
	if err != nil {
		return err
	}

	var generator *services.Generator
	credential := r.config.Providers.Classifier.APIKey
	if detector.Name() == "generative" {
		credential = r.config.Providers.Vision.APIKey
		generator = services.NewGenerator(r.config.Providers.Vision, r.httpClient, r.config.Pipeline.GenerationRPS)
	}

	r.pipeline = tasks.NewPipeline(tasks.PipelineOpts{
		Detector:   detector,
		Generator:  generator,
		Cache:      r.cache,
		Credential: credential,
		Concurrent: r.config.Pipeline.Concurrent,
		Logger:     r.logger,
	})
	return nil
}

// drainProgress logs pipeline progress updates until the channel closes.
func (r *Runner) drainProgress(ctx context.Context, progress <-chan tasks.ProgressUpdate) {
	for {
		select {
		case update, ok := <-progress:
			if !ok {
				return
			}
			r.logger.Info(update.Message, "step", update.Step, "total", update.Total)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, captureCommand, wardrobeCommand, outfitCommand,
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
