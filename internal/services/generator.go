// Image generation stage: one synthesis call per garment description.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/closet/internal/shared"
	"golang.org/x/time/rate"
)

// Generator calls the image-generation service to render a studio-style
// product image for one garment description. There is no batching at the
// provider level; a limiter keeps fan-out bursts polite.
type Generator struct {
	apiKey     string
	baseURL    string
	imageSize  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGenerator creates a Generator for the configured vision provider.
// rps bounds generation calls per second; zero or negative disables limiting.
func NewGenerator(cfg shared.VisionConfig, client *http.Client, rps float64) *Generator {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	// Square low-cost resolution chosen for mobile display.
	imageSize := cfg.ImageSize
	if imageSize == "" {
		imageSize = "512x512"
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Generator{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		imageSize:  imageSize,
		httpClient: client,
		limiter:    limiter,
	}
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage synthesizes one studio image for the description and returns
// the provider-hosted URL. The URL is time-limited; callers must cache a
// local copy before it expires.
func (g *Generator) GenerateImage(ctx context.Context, description string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: vision API key not set", shared.ErrMissingCredentials)
	}
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("%w: empty garment description", shared.ErrInvalidInput)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter interrupted: %w", err)
		}
	}

	prompt := fmt.Sprintf(
		"Professional product photo of %s on a plain white studio background, centered, no person, no text.",
		description,
	)

	payload, err := json.Marshal(generationRequest{
		Model:  "dall-e-2",
		Prompt: prompt,
		N:      1,
		Size:   g.imageSize,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", NewDetectionError(StageGenerate, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewDetectionError(StageGenerate, 0, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewDetectionError(StageGenerate, resp.StatusCode, strings.TrimSpace(string(body)), shared.ErrProviderRequest)
	}

	var envelope generationResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnparsableResponse, err)
	}
	if len(envelope.Data) == 0 || envelope.Data[0].URL == "" {
		return "", shared.ErrGenerationUnexpected
	}

	return envelope.Data[0].URL, nil
}
