package services

import (
	"context"
	"time"

	"credcheck/logger"
	"credcheck/models"

	"go.uber.org/zap"
)

const (
	// clipMatchThreshold is on CLIP's logits_per_image scale.
	clipMatchThreshold = 25.0
	maxClipTextChars   = 77

	flagImageUnprocessable = "The provided image could not be processed."
	flagImageRelated       = "The main image appears to be semantically related to the article's text."
	flagImageUnrelated     = "The main image does not seem to match the content of the text."
)

// SimilarityScorer returns the raw image-text similarity of a joint
// embedding model.
type SimilarityScorer interface {
	Similarity(ctx context.Context, image []byte, text string) (float64, error)
}

// CoherenceScorer quantizes raw similarity into a match/no-match signal.
type CoherenceScorer struct {
	fetcher ImageFetcher
	scorer  SimilarityScorer
	timeout time.Duration
	logger  *zap.Logger
}

func NewCoherenceScorer(fetcher ImageFetcher, scorer SimilarityScorer, timeout time.Duration, log *zap.Logger) *CoherenceScorer {
	return &CoherenceScorer{fetcher: fetcher, scorer: scorer, timeout: timeout, logger: logger.OrNop(log)}
}

func (s *CoherenceScorer) Match(ctx context.Context, imageURL, text string) models.CoherenceSignal {
	unprocessable := models.CoherenceSignal{Matched: false, Score: 0.0, Flag: flagImageUnprocessable}

	if s.fetcher == nil || s.scorer == nil {
		s.logger.Warn("Coherence scoring not configured")
		return unprocessable
	}

	data, err := s.fetcher.Fetch(ctx, imageURL, s.timeout)
	if err == nil {
		_, err = probeImage(data)
	}
	if err != nil {
		s.logger.Warn("Error fetching or processing image URL", zap.String("url", imageURL), zap.Error(err))
		return unprocessable
	}

	similarity, err := s.scorer.Similarity(ctx, data, truncateRunes(text, maxClipTextChars))
	if err != nil {
		s.logger.Warn("Similarity scoring failed", zap.Error(err))
		return unprocessable
	}
	s.logger.Debug("Image-text similarity", zap.Float64("similarity", similarity))

	if similarity > clipMatchThreshold {
		return models.CoherenceSignal{Matched: true, Score: 0.9, Flag: flagImageRelated}
	}
	return models.CoherenceSignal{Matched: false, Score: 0.2, Flag: flagImageUnrelated}
}
