package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of garment categories.
type Category string

const (
	CategoryOuterwear Category = "outerwear"
	CategoryTops      Category = "tops"
	CategoryBottoms   Category = "bottoms"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
	CategoryOther     Category = "other"
)

// Categories lists every valid [Category] in display order.
func Categories() []Category {
	return []Category{
		CategoryOuterwear, CategoryTops, CategoryBottoms,
		CategoryShoes, CategoryAccessory, CategoryOther,
	}
}

// ParseCategory maps free-form input to a [Category]. Unclassified input
// maps to [CategoryOther].
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryOuterwear:
		return CategoryOuterwear
	case CategoryTops:
		return CategoryTops
	case CategoryBottoms:
		return CategoryBottoms
	case CategoryShoes:
		return CategoryShoes
	case CategoryAccessory:
		return CategoryAccessory
	default:
		return CategoryOther
	}
}

// BoundingBox is a normalized rectangle over the source photo with all
// coordinates in [0,1]. Only present for crop-based detection.
type BoundingBox struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Article is one garment record: the unit of wardrobe inventory.
//
// Image fields are listed in display priority order; [Article.DisplayImage]
// resolves the first usable one.
type Article struct {
	ID                string       `json:"id"`
	Description       string       `json:"description,omitempty"`
	Category          Category     `json:"category"`
	LocalImagePath    string       `json:"localImagePath,omitempty"`
	CroppedImagePath  string       `json:"croppedImagePath,omitempty"`
	OriginalImagePath string       `json:"originalImagePath,omitempty"`
	RemoteImageURL    string       `json:"remoteImageUrl,omitempty"`
	Confidence        *float64     `json:"confidence,omitempty"`
	WearCount         int          `json:"wearCount"`
	BoundingBox       *BoundingBox `json:"boundingBox,omitempty"`
}

// DisplayImage returns the highest-priority image reference:
// local cache > detector crop > source photo > remote URL.
// Returns "" when the article carries no image at all.
func (a Article) DisplayImage() string {
	for _, candidate := range []string{
		a.LocalImagePath, a.CroppedImagePath, a.OriginalImagePath, a.RemoteImageURL,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// HasImage reports whether any image field is populated.
func (a Article) HasImage() bool {
	return a.DisplayImage() != ""
}

// NeedsImageMigration reports whether the article carries a remote URL but no
// durable local copy. Provider URLs expire within hours, so these records
// must be repaired by the migration pass.
func (a Article) NeedsImageMigration() bool {
	return a.RemoteImageURL != "" && a.LocalImagePath == ""
}

// Validate checks structural invariants independent of repository options.
func (a Article) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("article has no id")
	}
	if a.WearCount < 0 {
		return fmt.Errorf("article %s has negative wear count %d", a.ID, a.WearCount)
	}
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 1) {
		return fmt.Errorf("article %s has confidence %f outside [0,1]", a.ID, *a.Confidence)
	}
	return nil
}

// Candidate is a garment detected in a photo before confirmation. Candidates
// are transient; confirmed candidates become [Article] records with final IDs.
type Candidate struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Color       string       `json:"color,omitempty"`
	Confidence  *float64     `json:"confidence,omitempty"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
	SourcePhoto string       `json:"sourcePhoto,omitempty"`
}
