package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/amara-obi/designweek/constants"
)

// maxContentChars bounds how much artifact text goes into one call. Session
// transcripts run long; the tail rarely changes extraction quality.
const maxContentChars = 24000

// StageFactTypes returns the fact types a stage is allowed to emit for a
// category. EXTRACTION is category-focused; GENERAL_EXTRACTION and POPULATION
// may emit the full closed set.
func StageFactTypes(stage constants.JobStage, category constants.ContentCategory) []constants.FactType {
	if stage != constants.StageExtraction {
		return constants.AllFactTypes()
	}
	switch category {
	case constants.KickoffSession:
		return []constants.FactType{
			constants.FactCompanyBackground, constants.FactStakeholder,
			constants.FactTeamStructure, constants.FactGoal, constants.FactPainPoint,
			constants.FactSuccessMetric, constants.FactTargetAudience,
			constants.FactBrandVoice, constants.FactCompetitor, constants.FactChannel,
			constants.FactVolumeMetric, constants.FactScopeIn, constants.FactScopeOut,
			constants.FactDecision, constants.FactOpenQuestion,
		}
	case constants.ProcessDesignSession:
		return []constants.FactType{
			constants.FactCurrentProcess, constants.FactChannel, constants.FactGoal,
			constants.FactHappyPathStep, constants.FactEdgeCase,
			constants.FactGuardrailNever, constants.FactGuardrailAlways,
			constants.FactEscalationRule, constants.FactFallbackBehavior,
			constants.FactScopeIn, constants.FactScopeOut,
			constants.FactDecision, constants.FactAssumption, constants.FactRisk,
		}
	case constants.TechnicalSession:
		return []constants.FactType{
			constants.FactTechStack, constants.FactSystemIntegration,
			constants.FactDataSource, constants.FactAPIEndpoint, constants.FactAuthMethod,
			constants.FactDataModel, constants.FactErrorHandling,
			constants.FactEscalationRule, constants.FactFallbackBehavior,
			constants.FactPerformanceRequirement, constants.FactSecurityRequirement,
			constants.FactDeploymentTarget, constants.FactDecision,
			constants.FactOpenQuestion, constants.FactAssumption,
		}
	case constants.SignoffSession:
		return []constants.FactType{
			constants.FactAcceptanceCriterion, constants.FactScopeIn,
			constants.FactScopeOut, constants.FactGuardrailNever,
			constants.FactGuardrailAlways, constants.FactDecision,
			constants.FactOpenQuestion, constants.FactRisk,
		}
	default:
		return constants.AllFactTypes()
	}
}

// BuildClassificationPrompt composes the system message for the
// classification call.
func BuildClassificationPrompt() string {
	parts := []string{
		"You classify design-week consulting artifacts. Return ONLY JSON matching the provided JSON Schema.",
		"Categories: KICKOFF_SESSION is an initial discovery conversation about the client's business, goals, and pain points.",
		"PROCESS_DESIGN_SESSION works through the target workflow step by step, including guardrails and escalation rules.",
		"TECHNICAL_SESSION covers systems, integrations, data models, APIs, and deployment.",
		"SIGNOFF_SESSION is a final review where scope and acceptance criteria are confirmed.",
		"If the artifact does not clearly match one category, use UNKNOWN. Never guess between two plausible categories.",
	}
	return strings.Join(parts, " ")
}

// BuildStageSystemPrompt composes the system message for an extraction stage
// with the allowed fact-type enum and formatting rules.
func BuildStageSystemPrompt(req ExtractRequest) string {
	types := StageFactTypes(req.Stage, req.Category)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	parts := []string{
		"You extract atomic facts from design-week consulting artifacts. Return ONLY JSON matching the provided JSON Schema.",
		"Each fact is one self-contained statement a consultant could verify with the client. Do not merge unrelated statements into one fact.",
		"Every fact 'type' MUST be exactly one of the allowed enum: " + strings.Join(names, ", ") + ".",
		"Set 'confidence' between 0 and 1 based on how explicitly the artifact supports the fact.",
		"Never output null. If a field is not present, omit it.",
	}

	switch req.Stage {
	case constants.StageGeneralExtraction:
		parts = append(parts,
			"The artifact category is unknown. Extract whatever typed facts the content supports; prefer fewer, higher-confidence facts.")
	case constants.StagePopulation:
		parts = append(parts,
			"This is the population pass: for process and technical facts, attach a 'structured_data' object capturing the fields the fact implies (e.g. step order, system names, endpoints, thresholds).")
	}

	if req.CompanyName != "" {
		parts = append(parts, "Client company: "+req.CompanyName+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the artifact content plus hints, truncated.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.ArtifactName); name != "" {
		b.WriteString("Artifact: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if req.Category != "" && req.Category != constants.UnknownCategory {
		b.WriteString("Detected category: ")
		b.WriteString(string(req.Category))
		b.WriteString("\n")
	}

	content := strings.TrimSpace(req.Content)
	b.WriteString("\nArtifact content:\n")
	if len(content) > maxContentChars {
		// Back up to a rune boundary so the cut never produces invalid UTF-8.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		b.WriteString(content[:cut])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(content)
	}
	return b.String()
}
