package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// GenerativeDetector implements [Detector] by delegating to the description
// stage. Candidates carry rich free-text descriptions but no bounding box;
// studio images are synthesized later by the pipeline.
type GenerativeDetector struct {
	describer *Describer
}

// NewGenerativeDetector creates the generative variant around a Describer.
func NewGenerativeDetector(describer *Describer) *GenerativeDetector {
	return &GenerativeDetector{describer: describer}
}

func (g *GenerativeDetector) Name() string { return "generative" }

// Detect reads the photo and runs the description stage.
func (g *GenerativeDetector) Detect(ctx context.Context, photo Photo) ([]models.Candidate, error) {
	if photo.Ref == "" {
		return nil, shared.ErrMissingPhoto
	}

	imageBytes, err := photo.Bytes()
	if err != nil {
		return nil, err
	}

	items, err := g.describer.DescribeGarments(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	return g.describer.Candidates(items, photo.Ref), nil
}

// NewDetector constructs the configured [Detector] variant. The variant is
// fixed at construction; call sites never branch on provider names.
func NewDetector(cfg shared.ProvidersConfig, client *http.Client) (Detector, error) {
	switch cfg.Detector {
	case "classifier":
		return NewClassifierDetector(cfg.Classifier, client), nil
	case "generative", "":
		return NewGenerativeDetector(NewDescriber(cfg.Vision, client)), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownProvider, cfg.Detector)
	}
}
