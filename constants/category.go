package constants

import (
	"strings"
)

// ContentCategory is the detected kind of an uploaded artifact. It decides
// which extraction stages run and which design-week phase the artifact implies.
type ContentCategory string

const (
	KickoffSession       ContentCategory = "KICKOFF_SESSION"
	ProcessDesignSession ContentCategory = "PROCESS_DESIGN_SESSION"
	TechnicalSession     ContentCategory = "TECHNICAL_SESSION"
	SignoffSession       ContentCategory = "SIGNOFF_SESSION"
	UnknownCategory      ContentCategory = "UNKNOWN"
)

var allCategories = []ContentCategory{
	KickoffSession,
	ProcessDesignSession,
	TechnicalSession,
	SignoffSession,
	UnknownCategory,
}

func CategoriesAsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a declared hint or raw model label onto the closed
// category set. Returns UNKNOWN and false when nothing matches.
func Canonicalize(input string) (ContentCategory, bool) {
	if input == "" {
		return UnknownCategory, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	// synonyms map
	synonyms := map[string]ContentCategory{
		"kickoff":         KickoffSession,
		"kick_off":        KickoffSession,
		"discovery":       KickoffSession,
		"intake":          KickoffSession,
		"process":         ProcessDesignSession,
		"process_design":  ProcessDesignSession,
		"workflow_design": ProcessDesignSession,
		"technical":       TechnicalSession,
		"technical_spec":  TechnicalSession,
		"tech_session":    TechnicalSession,
		"spec":            TechnicalSession,
		"architecture":    TechnicalSession,
		"signoff":         SignoffSession,
		"sign_off":        SignoffSession,
		"approval":        SignoffSession,
		"final_review":    SignoffSession,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return UnknownCategory, false
}

// stageSequences is the per-category stage table. Sequencing is data, not
// branching: new categories are additive rows here. CLASSIFICATION is not
// listed because it always runs first to produce the category itself.
var stageSequences = map[ContentCategory][]JobStage{
	KickoffSession:       {StageExtraction},
	ProcessDesignSession: {StageExtraction, StagePopulation},
	TechnicalSession:     {StageExtraction, StagePopulation},
	SignoffSession:       {StageExtraction},
	UnknownCategory:      {StageGeneralExtraction},
}

// StageSequence returns the ordered extraction stages for a category.
// Unrecognized categories fall back to the general-purpose stage so no
// artifact is ever left unextracted.
func StageSequence(cat ContentCategory) []JobStage {
	seq, ok := stageSequences[cat]
	if !ok {
		seq = stageSequences[UnknownCategory]
	}
	out := make([]JobStage, len(seq))
	copy(out, seq)
	return out
}

// categoryPhase maps a detected category to the design-week phase it implies.
// UNKNOWN implies nothing.
var categoryPhase = map[ContentCategory]int{
	KickoffSession:       1,
	ProcessDesignSession: 2,
	TechnicalSession:     3,
	SignoffSession:       4,
}

// Phase returns the design-week phase implied by a category, 0 if none.
func Phase(cat ContentCategory) int {
	return categoryPhase[cat]
}

// PhaseStatus maps a detected phase to the engagement status it implies.
// Advisory only: callers apply it forward, never as a downgrade.
func PhaseStatus(phase int) EngagementStatus {
	if phase >= 4 {
		return EngagementPendingSignoff
	}
	if phase >= 1 {
		return EngagementInProgress
	}
	return EngagementNotStarted
}
