package services

import (
	"context"
	"fmt"
	"strings"

	"credcheck/logger"
	"credcheck/models"

	"go.uber.org/zap"
)

const (
	errOracleUnavailable = "Gemini model is not configured."
	errEmptyClaim        = "Claim cannot be empty."
	errFactCheckFailed   = "An error occurred during fact-checking."
)

const imageClaimPrompt = "Analyze this image closely. Describe the primary subject, scene, and any text visible. Formulate this description into a single, concise factual claim."

func factCheckPrompt(claim string) string {
	return fmt.Sprintf(`You are a world-class Trust & Safety analysis engine. Your task is to analyze a given claim for factual accuracy, provide context, and cite credible sources.

Analyze this claim: %q

Your response MUST be a single, minified JSON object with the following schema. Do not include any text before or after the JSON object.

{
  "verdict": "A short, definitive verdict. Choose one of: 'Factually Correct', 'Factually Incorrect', 'Misleading', 'Lacks Context'.",
  "confidence_score": "A float from 0.0 to 1.0 representing your confidence in the verdict.",
  "explanation": "A detailed but concise explanation of your reasoning. Explain WHY the claim is correct or incorrect. If it's misleading, explain what nuance is missing.",
  "correction": "If the verdict is 'Factually Incorrect' or 'Misleading', provide the corrected information. Otherwise, this should be null.",
  "enrichment": "An array of 2-3 strings. Each string is an additional, interesting, and verifiable fact that provides more context about the main subjects of the claim. This should be provided even if the claim is correct.",
  "sources": "An array of 2-3 URL strings from highly credible, publicly available sources that a user can visit to verify the information (e.g., Wikipedia, Reuters, BBC, Britannica, major scientific journals)."
}`, claim)
}

// ClaimOracle fact-checks claims and captions images with the LLM.
type ClaimOracle struct {
	llm    LLM
	logger *zap.Logger
}

func NewClaimOracle(llm LLM, log *zap.Logger) *ClaimOracle {
	return &ClaimOracle{llm: llm, logger: logger.OrNop(log)}
}

type claimPayload struct {
	Verdict         *string    `json:"verdict"`
	ConfidenceScore *flexFloat `json:"confidence_score"`
	Explanation     *string    `json:"explanation"`
	Correction      *string    `json:"correction"`
	Enrichment      []string   `json:"enrichment"`
	Sources         []string   `json:"sources"`
}

// Verify fact-checks claim. Every failure is reported as a Fail outcome
// carrying a user-facing message.
func (o *ClaimOracle) Verify(ctx context.Context, claim string) models.Outcome[models.ClaimVerdict] {
	if o.llm == nil {
		return models.Fail[models.ClaimVerdict](errOracleUnavailable)
	}
	if strings.TrimSpace(claim) == "" {
		return models.Fail[models.ClaimVerdict](errEmptyClaim)
	}

	text, err := o.llm.GenerateText(ctx, factCheckPrompt(claim))
	if err != nil {
		o.logger.Warn("Error during Gemini verification", zap.Error(err))
		return models.Fail[models.ClaimVerdict](errFactCheckFailed)
	}

	verdict, err := parseClaimVerdict(text)
	if err != nil {
		o.logger.Warn("Invalid fact-check response", zap.Error(err), zap.String("raw", truncateRunes(text, 500)))
		return models.Fail[models.ClaimVerdict](errFactCheckFailed)
	}
	return models.Ok(verdict)
}

func parseClaimVerdict(text string) (models.ClaimVerdict, error) {
	var p claimPayload
	if err := decodeModelJSON(text, &p); err != nil {
		return models.ClaimVerdict{}, err
	}
	if p.Verdict == nil || p.ConfidenceScore == nil || p.Explanation == nil {
		return models.ClaimVerdict{}, fmt.Errorf("%w: missing verdict, confidence_score or explanation", ErrMalformedResponse)
	}

	label := models.ClaimVerdictLabel(strings.TrimSpace(*p.Verdict))
	if !label.Valid() {
		return models.ClaimVerdict{}, fmt.Errorf("%w: unknown verdict %q", ErrMalformedResponse, *p.Verdict)
	}
	confidence := float64(*p.ConfidenceScore)
	if !validConfidence(confidence) {
		return models.ClaimVerdict{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformedResponse, confidence)
	}

	correction := p.Correction
	if !label.AllowsCorrection() || (correction != nil && strings.TrimSpace(*correction) == "") {
		correction = nil
	}

	return models.ClaimVerdict{
		Verdict:         label,
		ConfidenceScore: confidence,
		Explanation:     *p.Explanation,
		Correction:      correction,
		Enrichment:      nonNil(p.Enrichment),
		Sources:         nonNil(p.Sources),
	}, nil
}

// DescribeImageForClaim turns an image into a one-sentence factual claim.
// Failures are described in the returned string itself.
func (o *ClaimOracle) DescribeImageForClaim(ctx context.Context, image []byte) string {
	if o.llm == nil {
		return "Error: " + errOracleUnavailable
	}
	mime, err := probeImage(image)
	if err != nil {
		return fmt.Sprintf("Error describing image: %v", err)
	}
	text, err := o.llm.GenerateWithImage(ctx, imageClaimPrompt, image, mime)
	if err != nil {
		o.logger.Warn("An error occurred during image description", zap.Error(err))
		return fmt.Sprintf("Error describing image: %v", err)
	}
	return strings.TrimSpace(text)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
