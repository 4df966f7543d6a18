// package tasks orchestrates the garment capture pipeline and the startup
// migration pass over persisted records.
//
// A capture run moves through Validating → Detecting → Generating/Caching
// (per-candidate fan-out) → Complete. Per-candidate failures are recorded on
// the affected item and never abort siblings; stage-level failures yield a
// single pipeline error for the whole photo. Progress updates are emitted
// over a non-blocking channel for CLI/UI consumption.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/closet/internal/imagecache"
	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/services"
	"github.com/desertthunder/closet/internal/shared"
)

// PipelineError is a whole-photo failure attributed to one stage.
type PipelineError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// ItemResult is the outcome for one candidate: either a fully-formed garment
// with a cached image, or a candidate carrying an error and no image.
type ItemResult struct {
	Candidate      models.Candidate `json:"candidate"`
	RemoteImageURL string           `json:"remoteImageUrl,omitempty"`
	LocalImagePath string           `json:"localImagePath,omitempty"`
	Err            string           `json:"error,omitempty"`
}

// PipelineResult is either a single pipeline-level error or a list of
// per-candidate results, which may individually carry errors. Callers must
// check both shapes.
type PipelineResult struct {
	Err   *PipelineError `json:"error,omitempty"`
	Items []ItemResult   `json:"items,omitempty"`
}

// Failed reports whether the whole photo failed.
func (r PipelineResult) Failed() bool { return r.Err != nil }

// Pipeline sequences detection, image generation, and local caching for one
// captured photo.
type Pipeline struct {
	detector   services.Detector
	generator  *services.Generator
	cache      *imagecache.Cache
	credential string
	concurrent bool
	logger     *log.Logger
}

// PipelineOpts contains dependencies for creating a [Pipeline].
type PipelineOpts struct {
	Detector   services.Detector
	Generator  *services.Generator
	Cache      *imagecache.Cache
	Credential string
	Concurrent bool
	Logger     *log.Logger
}

// NewPipeline creates a Pipeline. Generator may be nil for the classifier
// variant, which never synthesizes images.
func NewPipeline(opts PipelineOpts) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Pipeline{
		detector:   opts.Detector,
		generator:  opts.Generator,
		cache:      opts.Cache,
		credential: opts.Credential,
		concurrent: opts.Concurrent,
		logger:     opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the pipeline.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ProcessPhoto runs the full capture pipeline for one photo.
//
// The result is either a single pipeline-level error (missing credential or
// photo, detection/description failure, no items) or one ItemResult per
// candidate in original description order. A failed candidate never cancels
// its siblings.
func (p *Pipeline) ProcessPhoto(ctx context.Context, photo services.Photo, progress chan<- ProgressUpdate) PipelineResult {
	p.sendProgress(progress, validatingUpdate())

	if photo.Ref == "" {
		return PipelineResult{Err: &PipelineError{Stage: services.StagePipeline, Message: "no photo provided"}}
	}
	if p.credential == "" {
		return PipelineResult{Err: &PipelineError{Stage: services.StagePipeline, Message: "no API credential configured"}}
	}

	p.sendProgress(progress, detectingUpdate(p.detector.Name()))

	candidates, err := p.detector.Detect(ctx, photo)
	if err != nil {
		return PipelineResult{Err: p.stageError(err)}
	}
	if len(candidates) == 0 {
		return PipelineResult{Err: &PipelineError{Stage: services.StageDescribe, Message: shared.ErrNoItemsDetected.Error()}}
	}

	items := p.renderCandidates(ctx, candidates, progress)

	p.sendProgress(progress, completeUpdate(len(items)))
	return PipelineResult{Items: items}
}

// renderCandidates runs the generation and caching fan-out. Candidates with
// bounding boxes come from crop-based detection and need no synthesis; they
// pass through as complete items referencing the source photo.
func (p *Pipeline) renderCandidates(ctx context.Context, candidates []models.Candidate, progress chan<- ProgressUpdate) []ItemResult {
	items := make([]ItemResult, len(candidates))
	total := len(candidates)

	if p.generator == nil {
		for i, candidate := range candidates {
			items[i] = ItemResult{Candidate: candidate}
		}
		return items
	}

	render := func(i int, candidate models.Candidate) {
		p.sendProgress(progress, generatingUpdate(i+1, total, candidate.Description))

		url, err := p.generator.GenerateImage(ctx, candidate.Description)
		if err != nil {
			p.logger.Warn("image generation failed", "candidate", candidate.ID, "err", err)
			items[i] = ItemResult{Candidate: candidate, Err: err.Error()}
			return
		}

		p.sendProgress(progress, cachingUpdate(i+1, total))

		item := ItemResult{Candidate: candidate, RemoteImageURL: url}
		localPath, err := p.cache.DownloadAndCache(ctx, url, "")
		if err != nil {
			p.logger.Warn("image caching failed", "candidate", candidate.ID, "err", err)
			item.Err = err.Error()
		} else {
			item.LocalImagePath = localPath
		}
		items[i] = item
	}

	if p.concurrent {
		// Indexed writes keep the result list in original description order
		// regardless of completion order.
		var wg sync.WaitGroup
		for i, candidate := range candidates {
			wg.Add(1)
			go func(i int, candidate models.Candidate) {
				defer wg.Done()
				render(i, candidate)
			}(i, candidate)
		}
		wg.Wait()
	} else {
		for i, candidate := range candidates {
			render(i, candidate)
		}
	}

	return items
}

// stageError maps a detection failure to a pipeline error with the right
// stage attribution.
func (p *Pipeline) stageError(err error) *PipelineError {
	var detectionErr *services.DetectionError
	if errors.As(err, &detectionErr) {
		return &PipelineError{Stage: detectionErr.Stage, Message: detectionErr.Message}
	}

	stage := services.StageDescribe
	if p.detector.Name() == "classifier" {
		stage = services.StageClassify
	}
	if errors.Is(err, shared.ErrMissingCredentials) || errors.Is(err, shared.ErrMissingPhoto) {
		stage = services.StagePipeline
	}
	return &PipelineError{Stage: stage, Message: err.Error()}
}

// ConfirmSelection finalizes the user's chosen candidates into durable
// garment records, assigning each a final ID. Crop-based candidates keep a
// reference to the source photo; generative candidates carry only their
// synthesized image fields, so a candidate whose generation failed yields a
// record with no image at all (and is dropped later by validation).
func ConfirmSelection(items []ItemResult, selectedIDs []string) []models.Article {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var articles []models.Article
	for _, item := range items {
		if !selected[item.Candidate.ID] {
			continue
		}

		article := models.Article{
			ID:             shared.GenerateID(),
			Description:    item.Candidate.Description,
			Category:       item.Candidate.Category,
			RemoteImageURL: item.RemoteImageURL,
			LocalImagePath: item.LocalImagePath,
			Confidence:     item.Candidate.Confidence,
			WearCount:      0,
			BoundingBox:    item.Candidate.BoundingBox,
		}

		if item.Candidate.BoundingBox != nil {
			article.OriginalImagePath = item.Candidate.SourcePhoto
		}

		articles = append(articles, article)
	}

	return articles
}
