// package services defines the detection provider contract and the HTTP
// clients for the external vision services.
//
// Two detector variants exist: a classifier that labels regions of the
// source photo, and a generative detector that describes garments and later
// has studio images synthesized for each.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/closet/internal/models"
)

// Pipeline stage names used for error attribution.
const (
	StagePipeline = "pipeline"
	StageDescribe = "describeGarmentImage"
	StageGenerate = "generateGarmentImage"
	StageClassify = "classifyPhoto"
	StageCache    = "cacheImage"
)

// Detector is the polymorphic detection contract. Both variants turn one
// photo into zero or more garment candidates.
type Detector interface {
	// Detect analyzes the photo and returns garment candidates. Transport or
	// malformed-response failures surface as a [*DetectionError]; the caller
	// decides whether that is fatal for the whole photo.
	Detect(ctx context.Context, photo Photo) ([]models.Candidate, error)

	// Name returns the variant name ("classifier" or "generative").
	Name() string
}

// Photo references a captured image, either a local file path or a
// reachable URL.
type Photo struct {
	Ref string
}

// IsRemote reports whether the photo is referenced by URL rather than a
// local file.
func (p Photo) IsRemote() bool {
	return strings.HasPrefix(p.Ref, "http://") || strings.HasPrefix(p.Ref, "https://")
}

// Bytes reads the photo contents. Only valid for local photos.
func (p Photo) Bytes() ([]byte, error) {
	if p.IsRemote() {
		return nil, fmt.Errorf("photo %s is remote; pass the URL instead of inlining bytes", p.Ref)
	}
	data, err := os.ReadFile(p.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}

// Base64 reads and encodes the photo contents for inline transport.
func (p Photo) Base64() (string, error) {
	data, err := p.Bytes()
	if err != nil {
		return "", err
	}
	return base64Encode(data), nil
}

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DetectionError is a typed provider failure carrying the HTTP status (0 for
// non-transport failures) and the pipeline stage it is attributed to.
type DetectionError struct {
	Stage      string
	StatusCode int
	Message    string
	Wrapped    error
}

func (e *DetectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Stage, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *DetectionError) Unwrap() error {
	return e.Wrapped
}

// NewDetectionError builds a [*DetectionError] for the given stage.
func NewDetectionError(stage string, status int, message string, wrapped error) *DetectionError {
	return &DetectionError{Stage: stage, StatusCode: status, Message: message, Wrapped: wrapped}
}
