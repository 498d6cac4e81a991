package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HFSentimentClient calls a Hugging Face text-classification endpoint
// serving distilbert-base-uncased-finetuned-sst-2-english.
type HFSentimentClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHFSentimentClient(endpoint, token string, client *http.Client) *HFSentimentClient {
	if client == nil {
		client = &http.Client{}
	}
	return &HFSentimentClient{endpoint: endpoint, token: token, client: client}
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HFSentimentClient) Classify(ctx context.Context, text string) (SentimentPrediction, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return SentimentPrediction{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return SentimentPrediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return SentimentPrediction{}, fmt.Errorf("sentiment request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SentimentPrediction{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return SentimentPrediction{}, fmt.Errorf("sentiment API error %d: %s", resp.StatusCode, truncateRunes(string(body), 200))
	}

	labels, err := parseHFLabels(body)
	if err != nil {
		return SentimentPrediction{}, err
	}
	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return SentimentPrediction{Label: best.Label, Score: best.Score}, nil
}

// parseHFLabels accepts both the nested [[...]] shape of the hosted
// inference API and the flat [...] shape of a local pipeline server.
func parseHFLabels(body []byte) ([]hfLabel, error) {
	var nested [][]hfLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	var flat []hfLabel
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	return nil, fmt.Errorf("%w: unexpected sentiment payload", ErrMalformedResponse)
}
