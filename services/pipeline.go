package services

import (
	"context"
	"time"

	"credcheck/logger"
	"credcheck/models"

	"go.uber.org/zap"
)

const (
	errImageDownload   = "The provided image URL could not be downloaded or is invalid."
	explainNeedsText   = "Provide text for a full fact-check."
	defaultFetchWindow = 10 * time.Second
)

// Stage names a step of the analysis pipeline.
type Stage string

const (
	StageImageFetch   Stage = "image_fetch"
	StageAuthenticity Stage = "image_authenticity"
	StageClaim        Stage = "primary_claim"
	StageLinguistic   Stage = "linguistic_analysis"
	StageFactCheck    Stage = "fact_check"
	StageCoherence    Stage = "image_analysis"
)

// StageObserver is told about each completed stage and what it produced.
// Observers must not retain or mutate detail.
type StageObserver func(stage Stage, detail any)

// Dependencies holds the long-lived handles built once at startup. Any
// field may be nil; the matching signal then degrades to its fallback.
// CoherenceTimeout bounds the second image download made by the
// coherence scorer.
type Dependencies struct {
	LLM              LLM
	Sentiment        SentimentClassifier
	Similarity       SimilarityScorer
	Fetcher          ImageFetcher
	FetchTimeout     time.Duration
	CoherenceTimeout time.Duration
	Logger           *zap.Logger
}

// Pipeline runs every signal for one request, strictly in sequence, and
// merges them into a single result.
type Pipeline struct {
	fetcher      ImageFetcher
	fetchTimeout time.Duration
	forensics    *ForensicsAnalyzer
	linguistic   *LinguisticAnalyzer
	coherence    *CoherenceScorer
	oracle       *ClaimOracle
	logger       *zap.Logger
}

func NewPipeline(deps Dependencies) *Pipeline {
	log := logger.OrNop(deps.Logger)
	fetchTimeout := deps.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchWindow
	}
	coherenceTimeout := deps.CoherenceTimeout
	if coherenceTimeout <= 0 {
		coherenceTimeout = 15 * time.Second
	}
	return &Pipeline{
		fetcher:      deps.Fetcher,
		fetchTimeout: fetchTimeout,
		forensics:    NewForensicsAnalyzer(deps.LLM, log.Named("forensics")),
		linguistic:   NewLinguisticAnalyzer(deps.Sentiment, log.Named("linguistic")),
		coherence:    NewCoherenceScorer(deps.Fetcher, deps.Similarity, coherenceTimeout, log.Named("coherence")),
		oracle:       NewClaimOracle(deps.LLM, log.Named("oracle")),
		logger:       log.Named("pipeline"),
	}
}

func (p *Pipeline) Analyze(ctx context.Context, in models.AnalysisInput) models.AnalysisResult {
	return p.AnalyzeWithObserver(ctx, in, nil)
}

// AnalyzeWithObserver is Analyze with a per-stage callback. The result does
// not depend on the observer.
func (p *Pipeline) AnalyzeWithObserver(ctx context.Context, in models.AnalysisInput, observe StageObserver) models.AnalysisResult {
	notify := func(stage Stage, detail any) {
		if observe != nil {
			observe(stage, detail)
		}
	}

	var (
		linguistic   *models.LinguisticSignal
		coherence    *models.CoherenceSignal
		authenticity *models.Outcome[models.AuthenticitySignal]
		factCheck    *models.Outcome[models.ClaimVerdict]
	)

	image := in.ImageBytes
	if len(image) == 0 && in.ImageURL != "" {
		p.logger.Debug("Downloading image", zap.String("url", in.ImageURL))
		data, err := p.fetchImage(ctx, in.ImageURL)
		if err != nil {
			p.logger.Warn("Failed to download image from URL", zap.String("url", in.ImageURL), zap.Error(err))
			failed := models.Fail[models.AuthenticitySignal](errImageDownload)
			authenticity = &failed
		} else {
			image = data
		}
		notify(StageImageFetch, map[string]any{"ok": err == nil, "bytes": len(data)})
	}

	if len(image) > 0 && authenticity == nil {
		provenance := in.Provenance
		if provenance == "" {
			provenance = models.ProvenanceUnknown
		}
		result := p.forensics.Assess(ctx, image, provenance)
		authenticity = &result
		notify(StageAuthenticity, result)
	}

	claim := in.Text
	if claim == "" && len(image) > 0 {
		claim = p.oracle.DescribeImageForClaim(ctx, image)
		p.logger.Debug("Generated claim from image", zap.String("claim", claim))
		notify(StageClaim, claim)
	}

	if claim != "" {
		signal := p.linguistic.Analyze(ctx, claim)
		linguistic = &signal
		notify(StageLinguistic, signal)

		verdict := p.oracle.Verify(ctx, claim)
		factCheck = &verdict
		notify(StageFactCheck, verdict)
	}

	// Coherence needs the original URL; uploaded bytes alone do not trigger it.
	if claim != "" && in.ImageURL != "" {
		signal := p.coherence.Match(ctx, in.ImageURL, claim)
		coherence = &signal
		notify(StageCoherence, signal)
	}

	result := merge(claim != "", factCheck)
	result.LinguisticAnalysis = linguistic
	result.ImageAnalysis = coherence
	result.ImageAuthenticity = authenticity
	return result
}

func (p *Pipeline) fetchImage(ctx context.Context, url string) ([]byte, error) {
	if p.fetcher == nil {
		return nil, ErrImageFetch
	}
	return p.fetcher.Fetch(ctx, url, p.fetchTimeout)
}

// merge promotes a valid fact-check to the top-level fields, or builds the
// fallback verdict when there is none.
func merge(hasClaim bool, factCheck *models.Outcome[models.ClaimVerdict]) models.AnalysisResult {
	if factCheck != nil {
		if v, ok := factCheck.Value(); ok {
			return models.AnalysisResult{
				Verdict:         string(v.Verdict),
				ConfidenceScore: v.ConfidenceScore,
				Explanation:     v.Explanation,
				Correction:      v.Correction,
				Enrichment:      nonNil(v.Enrichment),
				Sources:         nonNil(v.Sources),
			}
		}
	}

	verdict := models.VerdictImageAnalyzed
	if hasClaim {
		verdict = models.VerdictAnalysisComplete
	}
	explanation := explainNeedsText
	if factCheck != nil {
		explanation = factCheck.Err()
	}
	return models.AnalysisResult{
		Verdict:         verdict,
		ConfidenceScore: 0.0,
		Explanation:     explanation,
		Correction:      nil,
		Enrichment:      []string{},
		Sources:         []string{},
	}
}
