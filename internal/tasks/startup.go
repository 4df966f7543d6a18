package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/imagecache"
	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// articlesKey mirrors the repository storage key; the runner repairs the raw
// collection structurally, below the typed repository layer, so that records
// written by older versions are covered too.
const articlesKey = "closet.articles"

// MigrationReport is the outcome of one startup migration.
type MigrationReport struct {
	Name          string `json:"name"`
	Success       bool   `json:"success"`
	MigratedCount int    `json:"migratedCount"`
	TotalCount    int    `json:"totalCount"`
	Err           string `json:"error,omitempty"`
}

// RunReport aggregates all startup migrations. Success is true only when no
// migration threw an unrecovered error.
type RunReport struct {
	Success    bool              `json:"success"`
	Migrations []MigrationReport `json:"migrations"`
}

// StartupRunner runs once per launch, independent of the repository's
// on-read migration, to guarantee invariants across the entire record set
// even when app versions were skipped: every record has a numeric wear
// count, and every remote-only image has had a chance to acquire a local
// copy. Each migration is independently idempotent; a second consecutive run
// reports zero migrated.
type StartupRunner struct {
	store  shared.Store
	cache  *imagecache.Cache
	logger *log.Logger
}

// NewStartupRunner creates a StartupRunner.
func NewStartupRunner(store shared.Store, cache *imagecache.Cache, logger *log.Logger) *StartupRunner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StartupRunner{store: store, cache: cache, logger: logger}
}

// Run executes every startup migration. A failure in one migration never
// prevents the others from running.
func (r *StartupRunner) Run(ctx context.Context) RunReport {
	report := RunReport{Success: true}

	for _, migration := range []struct {
		name string
		run  func(context.Context) (int, int, error)
	}{
		{"wear-count-backfill", r.backfillWearCounts},
		{"local-image-backfill", r.backfillLocalImages},
	} {
		migrated, total, err := migration.run(ctx)
		entry := MigrationReport{
			Name:          migration.name,
			Success:       err == nil,
			MigratedCount: migrated,
			TotalCount:    total,
		}
		if err != nil {
			r.logger.Error("startup migration failed", "migration", migration.name, "err", err)
			entry.Err = err.Error()
			report.Success = false
		} else {
			r.logger.Info("startup migration complete", "migration", migration.name, "migrated", migrated, "total", total)
		}
		report.Migrations = append(report.Migrations, entry)
	}

	return report
}

// backfillWearCounts repairs records whose wearCount field is missing or
// non-numeric. Detection is structural (raw JSON), not version-stamped, so
// records written by any prior version are handled.
func (r *StartupRunner) backfillWearCounts(ctx context.Context) (int, int, error) {
	data, ok, err := r.store.Get(articlesKey)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read articles: %w", err)
	}
	if !ok || len(data) == 0 {
		return 0, 0, nil
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, 0, fmt.Errorf("failed to parse articles: %w", err)
	}

	migrated := 0
	for _, record := range raw {
		value, present := record["wearCount"]
		if present {
			if count, isNumber := value.(float64); isNumber && count >= 0 {
				continue
			}
		}
		record["wearCount"] = 0
		migrated++
	}

	if migrated == 0 {
		return 0, len(raw), nil
	}

	repaired, err := json.Marshal(raw)
	if err != nil {
		return 0, len(raw), fmt.Errorf("failed to serialize repaired articles: %w", err)
	}
	if err := r.store.Set(articlesKey, repaired); err != nil {
		return 0, len(raw), fmt.Errorf("failed to persist repaired articles: %w", err)
	}

	return migrated, len(raw), nil
}

// backfillLocalImages downloads a local copy for every record that has a
// remote URL but no local path. Individual download failures are absorbed by
// the cache layer (the record stays remote-only and is retried next launch);
// only store access failures fail the migration.
func (r *StartupRunner) backfillLocalImages(ctx context.Context) (int, int, error) {
	data, ok, err := r.store.Get(articlesKey)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read articles: %w", err)
	}
	if !ok || len(data) == 0 {
		return 0, 0, nil
	}

	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return 0, 0, fmt.Errorf("failed to parse articles: %w", err)
	}

	migrated, changed := r.cache.MigrateAll(ctx, articles)
	if changed == 0 {
		return 0, len(articles), nil
	}

	repaired, err := json.Marshal(migrated)
	if err != nil {
		return 0, len(articles), fmt.Errorf("failed to serialize migrated articles: %w", err)
	}
	if err := r.store.Set(articlesKey, repaired); err != nil {
		return 0, len(articles), fmt.Errorf("failed to persist migrated articles: %w", err)
	}

	return changed, len(articles), nil
}
