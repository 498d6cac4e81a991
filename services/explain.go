package services

import (
	"strings"

	"credcheck/models"
)

const noteSourceUnverified = "Source credibility could not be verified at this time."

// ExplainSignals builds a short human-readable summary from the
// linguistic and coherence flags. Either signal may be nil.
func ExplainSignals(linguistic *models.LinguisticSignal, coherence *models.CoherenceSignal) string {
	var parts []string
	if linguistic != nil && linguistic.Flag != "" {
		parts = append(parts, linguistic.Flag)
	}
	if coherence != nil && coherence.Flag != "" {
		parts = append(parts, coherence.Flag)
	}
	parts = append(parts, noteSourceUnverified)
	return strings.Join(parts, " ")
}
