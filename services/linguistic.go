package services

import (
	"context"
	"errors"
	"strings"

	"credcheck/logger"
	"credcheck/models"

	"go.uber.org/zap"
)

const (
	maxSentimentChars = 512
	negativeThreshold = 0.8

	flagSensational      = "The text exhibits strong negative sentiment, which can be a sign of emotive or biased language."
	flagNeutralTone      = "The text's tone appears to be neutral."
	flagLinguisticFailed = "Text analysis could not be completed."
)

// SentimentPrediction is the top label of a binary sentiment classifier.
type SentimentPrediction struct {
	Label string
	Score float64
}

// SentimentClassifier labels text as POSITIVE or NEGATIVE.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (SentimentPrediction, error)
}

// LinguisticAnalyzer uses sentiment as a proxy for sensational tone.
type LinguisticAnalyzer struct {
	classifier SentimentClassifier
	logger     *zap.Logger
}

func NewLinguisticAnalyzer(classifier SentimentClassifier, log *zap.Logger) *LinguisticAnalyzer {
	return &LinguisticAnalyzer{classifier: classifier, logger: logger.OrNop(log)}
}

// Analyze never fails: classifier errors yield the neutral 0.5 fallback.
func (a *LinguisticAnalyzer) Analyze(ctx context.Context, text string) models.LinguisticSignal {
	if a.classifier == nil {
		a.logger.Warn("Sentiment classifier not configured")
		return models.LinguisticSignal{Score: 0.5, Flag: flagLinguisticFailed}
	}

	pred, err := a.classifier.Classify(ctx, truncateRunes(text, maxSentimentChars))
	if err == nil && pred.Label == "" {
		err = errors.New("classifier returned no label")
	}
	if err != nil {
		a.logger.Warn("Error in text analysis", zap.Error(err))
		return models.LinguisticSignal{Score: 0.5, Flag: flagLinguisticFailed}
	}

	if strings.EqualFold(pred.Label, "NEGATIVE") && pred.Score > negativeThreshold {
		return models.LinguisticSignal{Score: 0.3, Flag: flagSensational}
	}
	return models.LinguisticSignal{Score: 0.7, Flag: flagNeutralTone}
}
