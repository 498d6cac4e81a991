package models

import "strings"

// Provenance is the caller's declaration of how an image was obtained.
type Provenance string

const (
	ProvenanceCamera     Provenance = "camera"
	ProvenanceDownloaded Provenance = "downloaded"
	ProvenanceMessaging  Provenance = "messaging"
	ProvenanceUnknown    Provenance = "unknown"
)

// ParseProvenance maps a form value onto the closed set. Anything
// unrecognised, including the empty string, is treated as unknown.
func ParseProvenance(s string) Provenance {
	switch p := Provenance(strings.ToLower(strings.TrimSpace(s))); p {
	case ProvenanceCamera, ProvenanceDownloaded, ProvenanceMessaging:
		return p
	default:
		return ProvenanceUnknown
	}
}

// AnalysisInput is one request handed to the analysis pipeline.
type AnalysisInput struct {
	Text       string
	ImageBytes []byte
	ImageURL   string
	Provenance Provenance
}

// Empty reports whether no content at all was supplied.
func (in AnalysisInput) Empty() bool {
	return in.Text == "" && len(in.ImageBytes) == 0 && in.ImageURL == ""
}

// LinguisticSignal scores the tone of the primary claim.
type LinguisticSignal struct {
	Score float64 `json:"score"`
	Flag  string  `json:"flag"`
}

// CoherenceSignal tells whether an image matches the claim it accompanies.
type CoherenceSignal struct {
	Matched bool    `json:"match"`
	Score   float64 `json:"score"`
	Flag    string  `json:"flag"`
}

type AuthenticityVerdict string

const (
	VerdictLikelyAI      AuthenticityVerdict = "Likely AI-Generated"
	VerdictLikelyReal    AuthenticityVerdict = "Likely Real Photograph"
	VerdictIndeterminate AuthenticityVerdict = "Indeterminate"
	VerdictError         AuthenticityVerdict = "Error"
)

// Assessable reports whether v is a verdict the vision model may return.
func (v AuthenticityVerdict) Assessable() bool {
	switch v {
	case VerdictLikelyAI, VerdictLikelyReal, VerdictIndeterminate:
		return true
	}
	return false
}

// MetadataCheck is the EXIF sub-check of image forensics.
type MetadataCheck struct {
	HasExif bool   `json:"has_exif"`
	Flag    string `json:"flag"`
}

// VisualAssessment is the vision model's forensic opinion.
type VisualAssessment struct {
	Verdict         AuthenticityVerdict `json:"verdict"`
	ConfidenceScore float64             `json:"confidence_score"`
	Reasoning       string              `json:"reasoning"`
}

// AuthenticitySignal combines the forensic sub-checks into one verdict.
type AuthenticitySignal struct {
	Verdict         AuthenticityVerdict       `json:"verdict"`
	Confidence      float64                   `json:"confidence"`
	FullExplanation string                    `json:"full_explanation"`
	Metadata        MetadataCheck             `json:"metadata_analysis"`
	Visual          Outcome[VisualAssessment] `json:"visual_analysis"`
}

type ClaimVerdictLabel string

const (
	ClaimCorrect      ClaimVerdictLabel = "Factually Correct"
	ClaimIncorrect    ClaimVerdictLabel = "Factually Incorrect"
	ClaimMisleading   ClaimVerdictLabel = "Misleading"
	ClaimLacksContext ClaimVerdictLabel = "Lacks Context"
)

func (l ClaimVerdictLabel) Valid() bool {
	switch l {
	case ClaimCorrect, ClaimIncorrect, ClaimMisleading, ClaimLacksContext:
		return true
	}
	return false
}

// AllowsCorrection reports whether a correction may accompany the verdict.
func (l ClaimVerdictLabel) AllowsCorrection() bool {
	return l == ClaimIncorrect || l == ClaimMisleading
}

// ClaimVerdict is the fact-check of the primary claim.
type ClaimVerdict struct {
	Verdict         ClaimVerdictLabel `json:"verdict"`
	ConfidenceScore float64           `json:"confidence_score"`
	Explanation     string            `json:"explanation"`
	Correction      *string           `json:"correction"`
	Enrichment      []string          `json:"enrichment"`
	Sources         []string          `json:"sources"`
}

// Fallback verdicts used when no fact-check is available.
const (
	VerdictAnalysisComplete = "Analysis Complete"
	VerdictImageAnalyzed    = "Image Analyzed"
)

// AnalysisResult is the merged response returned to API clients.
type AnalysisResult struct {
	Verdict            string                       `json:"verdict"`
	ConfidenceScore    float64                      `json:"confidence_score"`
	Explanation        string                       `json:"explanation"`
	Correction         *string                      `json:"correction"`
	Enrichment         []string                     `json:"enrichment"`
	Sources            []string                     `json:"sources"`
	LinguisticAnalysis *LinguisticSignal            `json:"linguistic_analysis"`
	ImageAnalysis      *CoherenceSignal             `json:"image_analysis"`
	ImageAuthenticity  *Outcome[AuthenticitySignal] `json:"image_authenticity"`
}
