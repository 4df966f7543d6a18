package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// OutfitRepository persists named outfits and coordinates wear-marking with
// the article collection.
type OutfitRepository struct {
	store    shared.Store
	articles *ArticleRepository
	logger   *log.Logger
}

// NewOutfitRepository creates an OutfitRepository. The article repository is
// needed for wear-marking, which bumps every referenced article.
func NewOutfitRepository(store shared.Store, articles *ArticleRepository, logger *log.Logger) *OutfitRepository {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &OutfitRepository{store: store, articles: articles, logger: logger}
}

// Save creates a new outfit. The name must be non-empty after trimming and
// the outfit must reference at least one article; both are validated before
// any store access.
func (r *OutfitRepository) Save(ctx context.Context, name string, articleIDs []string) (models.Outfit, error) {
	outfit := models.Outfit{
		ID:         shared.GenerateID(),
		Name:       strings.TrimSpace(name),
		ArticleIDs: articleIDs,
		CreatedAt:  time.Now(),
		WearCount:  0,
	}

	if err := outfit.Validate(); err != nil {
		return models.Outfit{}, err
	}

	outfits := readCollection[models.Outfit](r.store, outfitsKey, r.logger)
	outfits = append(outfits, outfit)

	if err := writeCollection(r.store, outfitsKey, outfits); err != nil {
		return models.Outfit{}, fmt.Errorf("failed to persist outfit: %w", err)
	}

	return outfit, nil
}

// List reads the full outfit collection. Read failures degrade to an empty
// list.
func (r *OutfitRepository) List(ctx context.Context) []models.Outfit {
	return readCollection[models.Outfit](r.store, outfitsKey, r.logger)
}

// MarkWorn increments the wear count of the outfit and of every article it
// references, and stamps LastWornAt. The operation is all-or-nothing from
// the caller's perspective: the outfit record is only persisted after the
// article increments succeed. Persistence failures propagate.
func (r *OutfitRepository) MarkWorn(ctx context.Context, outfitID string) (models.Outfit, error) {
	outfits := readCollection[models.Outfit](r.store, outfitsKey, r.logger)

	index := -1
	for i, outfit := range outfits {
		if outfit.ID == outfitID {
			index = i
			break
		}
	}
	if index == -1 {
		return models.Outfit{}, fmt.Errorf("%w: %s", shared.ErrOutfitNotFound, outfitID)
	}

	if _, err := r.articles.IncrementWearCount(ctx, outfits[index].ArticleIDs); err != nil {
		return models.Outfit{}, fmt.Errorf("failed to mark articles worn: %w", err)
	}

	now := time.Now()
	outfits[index].WearCount++
	outfits[index].LastWornAt = &now

	if err := writeCollection(r.store, outfitsKey, outfits); err != nil {
		return models.Outfit{}, fmt.Errorf("failed to persist outfit wear: %w", err)
	}

	return outfits[index], nil
}

// ClearAll removes the entire outfit collection. Article wear counts are
// untouched. Persistence failures propagate.
func (r *OutfitRepository) ClearAll(ctx context.Context) error {
	if err := r.store.Delete(outfitsKey); err != nil {
		return fmt.Errorf("failed to clear outfits: %w", err)
	}
	return nil
}

// Delete removes one outfit by ID. Persistence failures propagate.
func (r *OutfitRepository) Delete(ctx context.Context, id string) error {
	outfits := readCollection[models.Outfit](r.store, outfitsKey, r.logger)

	remainder := make([]models.Outfit, 0, len(outfits))
	found := false
	for _, outfit := range outfits {
		if outfit.ID == id {
			found = true
			continue
		}
		remainder = append(remainder, outfit)
	}

	if !found {
		return fmt.Errorf("%w: %s", shared.ErrOutfitNotFound, id)
	}

	if err := writeCollection(r.store, outfitsKey, remainder); err != nil {
		return fmt.Errorf("failed to persist outfit deletion: %w", err)
	}

	return nil
}
