// Classifier detector: labeled bounding boxes over an existing photo via an
// external label-detection service.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/closet/internal/models"
	"github.com/desertthunder/closet/internal/shared"
)

// DefaultConfidenceThreshold filters low-confidence concepts. Inherited from
// the original tuning; override via config rather than editing this.
const DefaultConfidenceThreshold = 0.3

// clothingVocabulary is the fixed set of concept labels treated as garments.
var clothingVocabulary = map[string]models.Category{
	"jacket":     models.CategoryOuterwear,
	"coat":       models.CategoryOuterwear,
	"blazer":     models.CategoryOuterwear,
	"hoodie":     models.CategoryOuterwear,
	"cardigan":   models.CategoryOuterwear,
	"shirt":      models.CategoryTops,
	"t-shirt":    models.CategoryTops,
	"top":        models.CategoryTops,
	"blouse":     models.CategoryTops,
	"sweater":    models.CategoryTops,
	"dress":      models.CategoryTops,
	"pants":      models.CategoryBottoms,
	"trousers":   models.CategoryBottoms,
	"jeans":      models.CategoryBottoms,
	"shorts":     models.CategoryBottoms,
	"skirt":      models.CategoryBottoms,
	"shoe":       models.CategoryShoes,
	"sneaker":    models.CategoryShoes,
	"boot":       models.CategoryShoes,
	"sandal":     models.CategoryShoes,
	"hat":        models.CategoryAccessory,
	"cap":        models.CategoryAccessory,
	"scarf":      models.CategoryAccessory,
	"belt":       models.CategoryAccessory,
	"bag":        models.CategoryAccessory,
	"handbag":    models.CategoryAccessory,
	"glove":      models.CategoryAccessory,
	"sunglasses": models.CategoryAccessory,
	"watch":      models.CategoryAccessory,
	"clothing":   models.CategoryOther,
	"garment":    models.CategoryOther,
}

// ClassifierDetector implements [Detector] using a region-detection model:
// each surviving concept becomes a candidate with a normalized bounding box.
type ClassifierDetector struct {
	apiKey     string
	baseURL    string
	threshold  float64
	httpClient *http.Client
}

// NewClassifierDetector creates the classifier variant from config.
func NewClassifierDetector(cfg shared.ClassifierConfig, client *http.Client) *ClassifierDetector {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.clarifai.com/v2"
	}
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	return &ClassifierDetector{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		threshold:  threshold,
		httpClient: client,
	}
}

func (c *ClassifierDetector) Name() string { return "classifier" }

// label-detection request/response envelopes.

type classifyImage struct {
	Base64 string `json:"base64,omitempty"`
	URL    string `json:"url,omitempty"`
}

type classifyInputData struct {
	Image classifyImage `json:"image"`
}

type classifyInput struct {
	Data classifyInputData `json:"data"`
}

type classifyRequest struct {
	Inputs []classifyInput `json:"inputs"`
}

type classifyConcept struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type classifyRegion struct {
	RegionInfo struct {
		BoundingBox struct {
			TopRow    float64 `json:"top_row"`
			LeftCol   float64 `json:"left_col"`
			BottomRow float64 `json:"bottom_row"`
			RightCol  float64 `json:"right_col"`
		} `json:"bounding_box"`
	} `json:"region_info"`
	Data struct {
		Concepts []classifyConcept `json:"concepts"`
	} `json:"data"`
}

type classifyResponse struct {
	Outputs []struct {
		Data struct {
			Regions []classifyRegion `json:"regions"`
		} `json:"data"`
	} `json:"outputs"`
}

// Detect calls the label-detection service and returns one candidate per
// region whose best clothing concept clears the confidence threshold.
// Local photos are inlined as base64; remote photos are passed by URL.
func (c *ClassifierDetector) Detect(ctx context.Context, photo Photo) ([]models.Candidate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: classifier API key not set", shared.ErrMissingCredentials)
	}
	if photo.Ref == "" {
		return nil, shared.ErrMissingPhoto
	}

	var image classifyImage
	if photo.IsRemote() {
		image.URL = photo.Ref
	} else {
		encoded, err := photo.Base64()
		if err != nil {
			return nil, err
		}
		image.Base64 = encoded
	}

	reqBody := classifyRequest{Inputs: []classifyInput{{Data: classifyInputData{Image: image}}}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/models/apparel-detection/outputs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewDetectionError(StageClassify, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDetectionError(StageClassify, 0, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewDetectionError(StageClassify, resp.StatusCode, strings.TrimSpace(string(body)), shared.ErrProviderRequest)
	}

	var envelope classifyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnparsableResponse, err)
	}
	if len(envelope.Outputs) == 0 {
		return nil, fmt.Errorf("%w: response has no outputs", shared.ErrUnparsableResponse)
	}

	var candidates []models.Candidate
	for i, region := range envelope.Outputs[0].Data.Regions {
		concept, ok := c.bestClothingConcept(region.Data.Concepts)
		if !ok {
			continue
		}

		confidence := concept.Value
		box := region.RegionInfo.BoundingBox
		candidates = append(candidates, models.Candidate{
			ID:          fmt.Sprintf("%d", i+1),
			Description: concept.Name,
			Category:    categoryForLabel(concept.Name),
			Confidence:  &confidence,
			BoundingBox: &models.BoundingBox{
				Top:    box.TopRow,
				Left:   box.LeftCol,
				Bottom: box.BottomRow,
				Right:  box.RightCol,
			},
			SourcePhoto: photo.Ref,
		})
	}

	return candidates, nil
}

// bestClothingConcept returns the highest-value concept that is in the
// clothing vocabulary and clears the threshold.
func (c *ClassifierDetector) bestClothingConcept(concepts []classifyConcept) (classifyConcept, bool) {
	best := classifyConcept{}
	found := false
	for _, concept := range concepts {
		if concept.Value <= c.threshold {
			continue
		}
		if _, ok := clothingVocabulary[strings.ToLower(concept.Name)]; !ok {
			continue
		}
		if !found || concept.Value > best.Value {
			best = concept
			found = true
		}
	}
	return best, found
}

// categoryForLabel maps a concept label to a category; unmapped labels fall
// back to other.
func categoryForLabel(label string) models.Category {
	if category, ok := clothingVocabulary[strings.ToLower(label)]; ok {
		return category
	}
	return models.CategoryOther
}
