package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"credcheck/logger"
	"credcheck/models"

	"go.uber.org/zap"
)

const (
	cameraPenaltyFactor = 0.6
	cameraPenaltyFloor  = 0.3

	flagExifPresent = "Image contains EXIF metadata, a strong indicator of a real photograph from a camera."
	flagExifAbsent  = "Image lacks EXIF metadata. This is highly common for AI-generated images or images that have been scrubbed of their original data."

	flagCameraNoExif   = "The image lacks camera metadata (EXIF), which is unusual for a photo claimed to be directly from a camera. This is a suspicious sign."
	flagSharedNoExif   = "The image lacks camera metadata, which is normal and expected for images downloaded from the internet or sent via messaging apps."
	flagCameraWithExif = "The image contains camera metadata (EXIF), which strongly supports the claim that it is an original photograph."
	noticePenalty      = "Confidence was significantly reduced due to the mismatch between the stated source and the image's metadata."
)

const forensicPrompt = `You are a world-class digital image forensics expert and meticulous auditor. Analyze the PROVIDED IMAGE for signs of AI generation or digital manipulation. Base EVERY claim on visible evidence; avoid speculation. If evidence is insufficient, choose "Indeterminate".

Inspection checklist (cover each briefly, citing concrete cues you see):
1) Lighting & Shadows: global light direction; shadow hardness vs. time of day; shadow color; specular highlights; eye catchlights; reflections; occlusion consistency.
2) Geometry & Perspective: horizon and vanishing points; lens distortion; parallax; object boundaries; impossible joins; perspective of text and signage.
3) Textures & Materials: skin pores and hair strands; fabric weave; wood grain; repetition or tiling; over-smoothed "plasticky" surfaces; diffusion artifacts; oversharpening halos; moire.
4) Biological Plausibility: hands, fingers and thumbs; ears, teeth and eyes; limb lengths and poses; jewelry; glasses frames and contact between objects and skin.
5) Background & Fine Print: coherence vs. collage; edge melt; duplicated motifs; signage, license plates and clocks (warping, gibberish, inconsistent fonts).
6) Color/Tone & Depth of Field: white balance uniformity; unnatural gradients, bloom or HDR halos; color bleeding; bokeh shape vs. aperture; depth mask errors around hair or fur.
7) Edges/Compositing: matte halos; segmentation seams; unnatural micro-edges; inconsistencies at overlaps and transparencies (veils, smoke, glass).
8) Compression/Noise (visual only): noise uniformity across regions and channels; block boundaries; double-JPEG hints; upscaler artifacts. If metadata is unavailable, do not assume.
9) Editing Tells: cloning or patch repeats; copy-move; resynthesis; mismatched sharpness or noise between regions; re-lighting inconsistencies.

Output FORMAT RULES (must follow EXACTLY):
- Return ONE single MINIFIED JSON object, no markdown, no code fences, no extra text.
- Keys (exact order): verdict, confidence_score, reasoning.
- verdict is one of "Likely AI-Generated", "Likely Real Photograph", "Indeterminate".
- confidence_score is a float in [0.0, 1.0] with up to 2 decimals.
- reasoning is a concise stepwise explanation referencing the checklist ("1)...; 2)...; ..."), at most ~700 characters, no newlines.

Scoring guidance:
- +0.15 to 0.30 for multiple independent strong artifacts.
- +0.05 to 0.10 for each weak cue if several align.
- Cap at 0.85 unless evidence is overwhelming; use 0.40 to 0.60 for mixed signals.
- Use 0.20 to 0.35 and "Indeterminate" for low-resolution or obstructed images or when cues conflict.

Edge cases:
- If the image is too small, heavily compressed or partially visible, return "Indeterminate" and say why in reasoning.
- Do NOT include suggestions, questions or extra keys.

Example (structure only):
{"verdict":"Indeterminate","confidence_score":0.34,"reasoning":"1) Shadows plausible but soft; 2) Perspective OK; 3) Skin slightly over-smoothed; 4) Hands plausible; 5) Background text mildly warped; 6) DoF consistent; 7) Minor edge halos near hair; 8) Uniform noise suggests upscaling. Mixed cues."}`

// ForensicsAnalyzer assesses whether an image is AI-generated or edited.
type ForensicsAnalyzer struct {
	llm    LLM
	logger *zap.Logger
}

func NewForensicsAnalyzer(llm LLM, log *zap.Logger) *ForensicsAnalyzer {
	return &ForensicsAnalyzer{llm: llm, logger: logger.OrNop(log)}
}

// Assess runs the metadata and vision sub-checks and merges them using
// the caller's provenance hint. Only an undecodable image fails the whole
// signal; a failed vision check is carried inside the result.
func (f *ForensicsAnalyzer) Assess(ctx context.Context, image []byte, provenance models.Provenance) models.Outcome[models.AuthenticitySignal] {
	mime, err := probeImage(image)
	if err != nil {
		return models.Fail[models.AuthenticitySignal](fmt.Sprintf("Could not open image file: %v", err))
	}

	metadata := checkMetadata(image)
	visual := f.assessVisual(ctx, image, mime)

	return models.Ok(synthesize(metadata, visual, provenance))
}

type visualPayload struct {
	Verdict         *string    `json:"verdict"`
	ConfidenceScore *flexFloat `json:"confidence_score"`
	Reasoning       *string    `json:"reasoning"`
}

func (f *ForensicsAnalyzer) assessVisual(ctx context.Context, image []byte, mime string) models.Outcome[models.VisualAssessment] {
	if f.llm == nil {
		return models.Fail[models.VisualAssessment]("Gemini model not configured.")
	}

	text, err := f.llm.GenerateWithImage(ctx, forensicPrompt, image, mime)
	if err == nil {
		var assessment models.VisualAssessment
		assessment, err = parseVisualAssessment(text)
		if err == nil {
			return models.Ok(assessment)
		}
	}
	f.logger.Warn("Error during Gemini Vision analysis", zap.Error(err))
	return models.Fail[models.VisualAssessment](fmt.Sprintf("Gemini Vision analysis failed: %v", err))
}

func parseVisualAssessment(text string) (models.VisualAssessment, error) {
	var p visualPayload
	if err := decodeModelJSON(text, &p); err != nil {
		return models.VisualAssessment{}, err
	}
	if p.Verdict == nil || p.ConfidenceScore == nil || p.Reasoning == nil {
		return models.VisualAssessment{}, fmt.Errorf("%w: missing verdict, confidence_score or reasoning", ErrMalformedResponse)
	}
	verdict := models.AuthenticityVerdict(strings.TrimSpace(*p.Verdict))
	if !verdict.Assessable() {
		return models.VisualAssessment{}, fmt.Errorf("%w: unknown verdict %q", ErrMalformedResponse, *p.Verdict)
	}
	confidence := float64(*p.ConfidenceScore)
	if !validConfidence(confidence) {
		return models.VisualAssessment{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformedResponse, confidence)
	}
	return models.VisualAssessment{
		Verdict:         verdict,
		ConfidenceScore: confidence,
		Reasoning:       *p.Reasoning,
	}, nil
}

// synthesize starts from the vision verdict and adjusts it by how well the
// stated provenance agrees with the metadata.
func synthesize(metadata models.MetadataCheck, visual models.Outcome[models.VisualAssessment], provenance models.Provenance) models.AuthenticitySignal {
	verdict := models.VerdictError
	confidence := 0.0
	var parts []string

	if v, ok := visual.Value(); ok {
		verdict = v.Verdict
		confidence = v.ConfidenceScore
		if v.Reasoning != "" {
			parts = append(parts, v.Reasoning)
		}
	}

	suspicious := false
	switch {
	case provenance == models.ProvenanceCamera && !metadata.HasExif:
		parts = append(parts, flagCameraNoExif)
		suspicious = true
	case (provenance == models.ProvenanceDownloaded || provenance == models.ProvenanceMessaging) && !metadata.HasExif:
		parts = append(parts, flagSharedNoExif)
	case provenance == models.ProvenanceCamera && metadata.HasExif:
		parts = append(parts, flagCameraWithExif)
	default:
		parts = append(parts, metadata.Flag)
	}

	if suspicious {
		confidence = math.Max(cameraPenaltyFloor, confidence*cameraPenaltyFactor)
		parts = append(parts, noticePenalty)
	}

	return models.AuthenticitySignal{
		Verdict:         verdict,
		Confidence:      confidence,
		FullExplanation: strings.Join(parts, " "),
		Metadata:        metadata,
		Visual:          visual,
	}
}
