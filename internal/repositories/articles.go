package repositories

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/imagecache"
	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// GetOpts controls read-side behavior of [ArticleRepository.GetAll].
type GetOpts struct {
	// MigrateImages runs the image cache migration over the result and
	// persists the outcome when at least one local path changed.
	MigrateImages bool
}

// AddOpts controls [ArticleRepository.Add].
type AddOpts struct {
	// ValidateImageFields drops records that carry no image field of any kind.
	ValidateImageFields bool
	// MigrateImages downloads a local copy for records with a remote URL but
	// no local path before committing.
	MigrateImages bool
}

// DefaultAddOpts validates image fields and migrates remote images.
func DefaultAddOpts() AddOpts {
	return AddOpts{ValidateImageFields: true, MigrateImages: true}
}

// ArticleRepository persists garment records, enforcing identity dedup,
// image-field validation, and wear-count tracking.
type ArticleRepository struct {
	store  shared.Store
	cache  *imagecache.Cache
	logger *log.Logger
}

// NewArticleRepository creates an ArticleRepository. cache may be nil when
// image migration is never requested.
func NewArticleRepository(store shared.Store, cache *imagecache.Cache, logger *log.Logger) *ArticleRepository {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ArticleRepository{store: store, cache: cache, logger: logger}
}

// GetAll reads the full garment collection. Read failures and malformed
// content degrade to an empty list. When opts.MigrateImages is set, the
// migrated collection is persisted only if at least one record's local path
// actually changed, avoiding redundant writes.
func (r *ArticleRepository) GetAll(ctx context.Context, opts GetOpts) []models.Article {
	articles := readCollection[models.Article](r.store, articlesKey, r.logger)

	if opts.MigrateImages && r.cache != nil && len(articles) > 0 {
		migrated, changed := r.cache.MigrateAll(ctx, articles)
		if changed > 0 {
			if err := writeCollection(r.store, articlesKey, migrated); err != nil {
				r.logger.Warn("failed to persist migrated images", "changed", changed, "err", err)
			}
		}
		articles = migrated
	}

	return articles
}

// Add appends new garment records to the collection and returns the full
// post-add collection.
//
// Records whose ID already exists are dropped, not merged. WearCount is
// initialized to 0 when absent; an explicitly supplied value is preserved.
// On a persistence failure the pre-add collection is returned and the
// failure is logged, not raised; additive writes favor availability.
func (r *ArticleRepository) Add(ctx context.Context, articles []models.Article, opts AddOpts) []models.Article {
	existing := readCollection[models.Article](r.store, articlesKey, r.logger)

	seen := make(map[string]bool, len(existing))
	for _, article := range existing {
		seen[article.ID] = true
	}

	combined := existing
	for _, article := range articles {
		if seen[article.ID] {
			r.logger.Info("dropping duplicate article", "id", article.ID)
			continue
		}

		if article.WearCount < 0 {
			article.WearCount = 0
		}

		if opts.ValidateImageFields && !article.HasImage() {
			r.logger.Warn("dropping article with no image field", "id", article.ID)
			continue
		}

		if opts.MigrateImages && r.cache != nil && article.NeedsImageMigration() {
			article = r.cache.MigrateOne(ctx, article)
		}

		seen[article.ID] = true
		combined = append(combined, article)
	}

	if err := writeCollection(r.store, articlesKey, combined); err != nil {
		r.logger.Error("failed to persist articles, returning previous collection", "err", err)
		return existing
	}

	return combined
}

// DeleteByIDs removes matching records and returns the remainder. A
// persistence failure here propagates to the caller; destructive operations
// favor correctness signaling over availability.
func (r *ArticleRepository) DeleteByIDs(ctx context.Context, ids []string) ([]models.Article, error) {
	articles := readCollection[models.Article](r.store, articlesKey, r.logger)

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	remainder := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if !drop[article.ID] {
			remainder = append(remainder, article)
		}
	}

	if err := writeCollection(r.store, articlesKey, remainder); err != nil {
		return nil, fmt.Errorf("failed to persist deletion: %w", err)
	}

	return remainder, nil
}

// IncrementWearCount increments the wear count of every record whose ID is
// in ids by exactly 1, treating a missing or negative stored value as 0.
// Records outside the set are returned unchanged. An empty set is a logged
// no-op that still returns the full current collection. Persistence failures
// propagate.
func (r *ArticleRepository) IncrementWearCount(ctx context.Context, ids []string) ([]models.Article, error) {
	articles := readCollection[models.Article](r.store, articlesKey, r.logger)

	if len(ids) == 0 {
		r.logger.Info("increment wear count called with no ids")
		return articles, nil
	}

	bump := make(map[string]bool, len(ids))
	for _, id := range ids {
		bump[id] = true
	}

	for i := range articles {
		if !bump[articles[i].ID] {
			continue
		}
		if articles[i].WearCount < 0 {
			articles[i].WearCount = 0
		}
		articles[i].WearCount++
	}

	if err := writeCollection(r.store, articlesKey, articles); err != nil {
		return nil, fmt.Errorf("failed to persist wear counts: %w", err)
	}

	return articles, nil
}

// ClearAll removes the entire garment collection. Persistence failures
// propagate.
func (r *ArticleRepository) ClearAll(ctx context.Context) error {
	if err := r.store.Delete(articlesKey); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	return nil
}
