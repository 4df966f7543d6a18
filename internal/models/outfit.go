package models

import (
	"strings"
	"time"

	"github.com/desertthunder/closet/internal/shared"
)

// Outfit is a named ordered collection of article IDs with its own wear
// tracking.
type Outfit struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ArticleIDs []string   `json:"articleIds"`
	CreatedAt  time.Time  `json:"createdAt"`
	WearCount  int        `json:"wearCount"`
	LastWornAt *time.Time `json:"lastWornAt,omitempty"`
}

// Validate checks that the outfit has a non-empty trimmed name and at least
// one article.
func (o Outfit) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return shared.ErrEmptyOutfitName
	}
	if len(o.ArticleIDs) == 0 {
		return shared.ErrEmptyOutfit
	}
	return nil
}
