package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CLIPSimilarityClient calls a model server hosting
// openai/clip-vit-base-patch32. The server receives a base64 image and a
// text and answers with the model's logits_per_image scalar.
type CLIPSimilarityClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewCLIPSimilarityClient(endpoint, token string, client *http.Client) *CLIPSimilarityClient {
	if client == nil {
		client = &http.Client{}
	}
	return &CLIPSimilarityClient{endpoint: endpoint, token: token, client: client}
}

type similarityRequest struct {
	Image string `json:"image"`
	Text  string `json:"text"`
}

type similarityResponse struct {
	LogitsPerImage *float64 `json:"logits_per_image"`
}

func (c *CLIPSimilarityClient) Similarity(ctx context.Context, image []byte, text string) (float64, error) {
	payload, err := json.Marshal(similarityRequest{
		Image: base64.StdEncoding.EncodeToString(image),
		Text:  text,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("similarity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("similarity API error %d: %s", resp.StatusCode, truncateRunes(string(body), 200))
	}

	var out similarityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.LogitsPerImage == nil {
		return 0, fmt.Errorf("%w: missing logits_per_image", ErrMalformedResponse)
	}
	return *out.LogitsPerImage, nil
}
