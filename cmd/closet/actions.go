package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/closet/internal/formatter"
	"github.com/desertthunder/closet/internal/repositories"
	"github.com/desertthunder/closet/internal/services"
	"github.com/desertthunder/closet/internal/shared"
	"github.com/desertthunder/closet/internal/tasks"
	"github.com/desertthunder/closet/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup initializes local storage, writes an example config when missing,
// and runs the startup migration pass.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.logger.Info("wrote example config", "path", configPath)
	}

	if err := r.ensureStorage(); err != nil {
		return err
	}

	runner := tasks.NewStartupRunner(r.store, r.cache, r.logger)
	report := runner.Run(ctx)

	return r.writeJSON(report, cmd.Bool("pretty"))
}

// Migrate runs the startup migration pass on its own.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	runner := tasks.NewStartupRunner(r.store, r.cache, r.logger)
	report := runner.Run(ctx)

	if err := r.writeJSON(report, cmd.Bool("pretty")); err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("one or more migrations failed")
	}
	return nil
}

// Capture runs the pipeline over one photo, lets the user confirm
// candidates, and persists the confirmed garments.
func (r *Runner) Capture(ctx context.Context, cmd *cli.Command) error {
	photoRef := cmd.StringArg("photo")
	if photoRef == "" {
		return fmt.Errorf("%w: photo path or URL", shared.ErrMissingArgument)
	}

	if err := r.ensurePipeline(); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	go r.drainProgress(ctx, progress)

	result := r.pipeline.ProcessPhoto(ctx, services.Photo{Ref: photoRef}, progress)
	close(progress)

	if result.Failed() {
		// The pipeline error is the outcome; a write failure must not mask it.
		_ = r.writePlain("capture failed at stage %s: %s\n", result.Err.Stage, result.Err.Message)
		return result.Err
	}

	selectedIDs, err := r.selectCandidates(cmd, result.Items)
	if err != nil {
		return err
	}
	if len(selectedIDs) == 0 {
		return r.writePlain("nothing selected, wardrobe unchanged\n")
	}

	confirmed := tasks.ConfirmSelection(result.Items, selectedIDs)
	wardrobe := r.articles.Add(ctx, confirmed, repositories.DefaultAddOpts())

	if err := r.writePlain("wardrobe now has %d articles\n", len(wardrobe)); err != nil {
		return err
	}
	return r.writeJSON(confirmed, cmd.Bool("pretty"))
}

// selectCandidates resolves the confirmed candidate IDs from flags or the
// interactive picker.
func (r *Runner) selectCandidates(cmd *cli.Command, items []tasks.ItemResult) ([]string, error) {
	if cmd.Bool("all") {
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.Candidate.ID)
		}
		return ids, nil
	}

	if selected := cmd.String("select"); selected != "" {
		return strings.Split(selected, ","), nil
	}

	return ui.PickCandidates(items)
}

// WardrobeList prints the garment collection.
func (r *Runner) WardrobeList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	articles := r.articles.GetAll(ctx, repositories.GetOpts{MigrateImages: cmd.Bool("migrate")})

	switch cmd.String("format") {
	case "csv":
		data, err := formatter.ExportToCSV(articles)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "markdown", "md":
		return r.writePlain("%s", formatter.ExportToMarkdown(articles))
	default:
		return r.writeJSON(articles, cmd.Bool("pretty"))
	}
}

// WardrobeDelete removes garments by ID.
func (r *Runner) WardrobeDelete(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one article id", shared.ErrMissingArgument)
	}

	if err := r.ensureStorage(); err != nil {
		return err
	}

	remainder, err := r.articles.DeleteByIDs(ctx, ids)
	if err != nil {
		return err
	}

	return r.writeJSON(remainder, cmd.Bool("pretty"))
}

// WardrobeClear removes the entire garment collection.
func (r *Runner) WardrobeClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	if err := r.articles.ClearAll(ctx); err != nil {
		return err
	}
	return r.writePlain("wardrobe cleared\n")
}

// WardrobeWorn increments wear counts for the given articles.
func (r *Runner) WardrobeWorn(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	articles, err := r.articles.IncrementWearCount(ctx, cmd.Args().Slice())
	if err != nil {
		return err
	}

	return r.writeJSON(articles, cmd.Bool("pretty"))
}

// OutfitCreate saves a named outfit referencing existing articles.
func (r *Runner) OutfitCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	articleIDs := strings.Split(cmd.String("articles"), ",")
	if cmd.String("articles") == "" {
		articleIDs = nil
	}

	outfit, err := r.outfits.Save(ctx, name, articleIDs)
	if err != nil {
		return err
	}

	return r.writeJSON(outfit, cmd.Bool("pretty"))
}

// OutfitList prints all outfits.
func (r *Runner) OutfitList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}
	return r.writeJSON(r.outfits.List(ctx), cmd.Bool("pretty"))
}

// OutfitWorn marks an outfit (and every article in it) as worn once.
func (r *Runner) OutfitWorn(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	outfit, err := r.outfits.MarkWorn(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	return r.writeJSON(outfit, cmd.Bool("pretty"))
}

// OutfitClear removes every outfit. Articles keep their wear counts.
func (r *Runner) OutfitClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	if err := r.outfits.ClearAll(ctx); err != nil {
		return err
	}
	return r.writePlain("outfits cleared\n")
}

// OutfitDelete removes one outfit.
func (r *Runner) OutfitDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureStorage(); err != nil {
		return err
	}

	if err := r.outfits.Delete(ctx, cmd.StringArg("id")); err != nil {
		return err
	}
	return r.writePlain("outfit deleted\n")
}
