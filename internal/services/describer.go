// Description stage: one chat-completions vision call per photo that must
// yield only a JSON array of clothing items.
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

// maxGarmentsPerPhoto caps the number of descriptions requested from the
// model when no limit is configured.
const maxGarmentsPerPhoto = 4

// describeSystemPrompt instructs the model to emit nothing but the
// clothingItems JSON array. Code fences around the array are tolerated at
// parse time, but the instruction keeps responses parseable in practice.
const describeSystemPrompt = `You are a fashion cataloging assistant. Identify every distinct clothing item ` +
	`in the photo (at most %d). Respond with ONLY a JSON object of the form ` +
	`{"clothingItems": [{"id": "1", "description": "...", "category": "...", "color": "..."}]} ` +
	`and no other text. Each description is at most 6 words. Category must be one of: ` +
	`outerwear, tops, bottoms, shoes, accessory, other.`

// GarmentDescription is one structured item from the description stage.
type GarmentDescription struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Color       string `json:"color"`
}

// Describer calls the vision-description service.
type Describer struct {
	apiKey      string
	baseURL     string
	maxGarments int
	httpClient  *http.Client
}

// NewDescriber creates a Describer for the configured vision provider.
func NewDescriber(cfg shared.VisionConfig, client *http.Client) *Describer {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	maxGarments := cfg.MaxGarments
	if maxGarments <= 0 || maxGarments > maxGarmentsPerPhoto {
		maxGarments = maxGarmentsPerPhoto
	}

	return &Describer{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		maxGarments: maxGarments,
		httpClient:  client,
	}
}

// chat-completions request/response envelopes (only the fields we read).

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// clothingItemsEnvelope is the strict response shape the system prompt demands.
type clothingItemsEnvelope struct {
	ClothingItems []GarmentDescription `json:"clothingItems"`
}

// DescribeGarments sends one request with the encoded photo and returns 1-4
// structured garment descriptions.
//
// Outcomes stay distinct: a missing credential fails fast before any
// network call, transport failures return a [*DetectionError], an unparsable
// body wraps [shared.ErrUnparsableResponse], and a well-formed empty array
// wraps [shared.ErrNoItemsDetected] so callers can show a targeted message.
func (d *Describer) DescribeGarments(ctx context.Context, imageBytes []byte) ([]GarmentDescription, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("%w: vision API key not set", shared.ErrMissingCredentials)
	}
	if len(imageBytes) == 0 {
		return nil, shared.ErrMissingPhoto
	}

	dataURL := "data:image/jpeg;base64," + base64Encode(imageBytes)

	reqBody := chatRequest{
		Model: "gpt-4o-mini",
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(describeSystemPrompt, d.maxGarments)},
			{Role: "user", Content: []chatContentPart{
				{Type: "text", Text: "Catalog the clothing in this photo."},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
			}},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, NewDetectionError(StageDescribe, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDetectionError(StageDescribe, 0, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewDetectionError(StageDescribe, resp.StatusCode, strings.TrimSpace(string(body)), shared.ErrProviderRequest)
	}

	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnparsableResponse, err)
	}
	if len(envelope.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", shared.ErrUnparsableResponse)
	}

	items, err := parseClothingItems(envelope.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	if len(items) > d.maxGarments {
		items = items[:d.maxGarments]
	}
	return items, nil
}

// parseClothingItems decodes the model's content into garment descriptions.
// Accepts either the {"clothingItems": [...]} envelope or a bare array, with
// optional Markdown code fences around either.
func parseClothingItems(content string) ([]GarmentDescription, error) {
	content = stripCodeFences(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response content", shared.ErrUnparsableResponse)
	}

	var items []GarmentDescription

	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnparsableResponse, err)
		}
	} else {
		var envelope clothingItemsEnvelope
		if err := json.Unmarshal([]byte(content), &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnparsableResponse, err)
		}
		items = envelope.ClothingItems
	}

	if len(items) == 0 {
		return nil, shared.ErrNoItemsDetected
	}
	return items, nil
}

// stripCodeFences removes a Markdown code fence wrapper (```json ... ```)
// if the model ignored the no-prose instruction.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// Candidates converts descriptions to transient [models.Candidate] values.
// Generative detection produces no bounding boxes.
func (d *Describer) Candidates(items []GarmentDescription, sourcePhoto string) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(items))
	for i, item := range items {
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		candidates = append(candidates, models.Candidate{
			ID:          id,
			Description: item.Description,
			Category:    models.ParseCategory(item.Category),
			Color:       item.Color,
			SourcePhoto: sourcePhoto,
		})
	}
	return candidates
}
