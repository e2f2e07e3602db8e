package constants

// FactType is the closed set of atomic-fact types the extraction stages may
// emit. This list is the single source of truth: the profile routing table is
// keyed off it and a fact type that routes nowhere is a modeling defect.
type FactType string

const (
	// Business-profile-routed.
	FactCompanyBackground FactType = "COMPANY_BACKGROUND"
	FactStakeholder       FactType = "STAKEHOLDER"
	FactTeamStructure     FactType = "TEAM_STRUCTURE"
	FactGoal              FactType = "GOAL"
	FactPainPoint         FactType = "PAIN_POINT"
	FactSuccessMetric     FactType = "SUCCESS_METRIC"
	FactTargetAudience    FactType = "TARGET_AUDIENCE"
	FactBrandVoice        FactType = "BRAND_VOICE"
	FactCompetitor        FactType = "COMPETITOR"
	FactCurrentProcess    FactType = "CURRENT_PROCESS"
	FactChannel           FactType = "CHANNEL"
	FactVolumeMetric      FactType = "VOLUME_METRIC"

	// Technical-profile-routed.
	FactTechStack              FactType = "TECH_STACK"
	FactSystemIntegration      FactType = "SYSTEM_INTEGRATION"
	FactDataSource             FactType = "DATA_SOURCE"
	FactAPIEndpoint            FactType = "API_ENDPOINT"
	FactAuthMethod             FactType = "AUTH_METHOD"
	FactDataModel              FactType = "DATA_MODEL"
	FactErrorHandling          FactType = "ERROR_HANDLING"
	FactEscalationRule         FactType = "ESCALATION_RULE"
	FactFallbackBehavior       FactType = "FALLBACK_BEHAVIOR"
	FactPerformanceRequirement FactType = "PERFORMANCE_REQUIREMENT"
	FactSecurityRequirement    FactType = "SECURITY_REQUIREMENT"
	FactDeploymentTarget       FactType = "DEPLOYMENT_TARGET"

	// Test-plan-routed.
	FactHappyPathStep       FactType = "HAPPY_PATH_STEP"
	FactEdgeCase            FactType = "EDGE_CASE"
	FactGuardrailNever      FactType = "GUARDRAIL_NEVER"
	FactGuardrailAlways     FactType = "GUARDRAIL_ALWAYS"
	FactScopeIn             FactType = "SCOPE_IN"
	FactScopeOut            FactType = "SCOPE_OUT"
	FactAcceptanceCriterion FactType = "ACCEPTANCE_CRITERION"

	// Decision-tracking-only: surfaced on dashboards, never projected into a
	// profile view.
	FactDecision     FactType = "DECISION"
	FactOpenQuestion FactType = "OPEN_QUESTION"
	FactAssumption   FactType = "ASSUMPTION"
	FactRisk         FactType = "RISK"
)

// Destination names the one profile view a fact type feeds.
type Destination string

const (
	DestBusiness  Destination = "business"
	DestTechnical Destination = "technical"
	DestTestPlan  Destination = "test_plan"
	DestDecision  Destination = "decision_tracking"
)

var factDestinations = map[FactType]Destination{
	FactCompanyBackground: DestBusiness,
	FactStakeholder:       DestBusiness,
	FactTeamStructure:     DestBusiness,
	FactGoal:              DestBusiness,
	FactPainPoint:         DestBusiness,
	FactSuccessMetric:     DestBusiness,
	FactTargetAudience:    DestBusiness,
	FactBrandVoice:        DestBusiness,
	FactCompetitor:        DestBusiness,
	FactCurrentProcess:    DestBusiness,
	FactChannel:           DestBusiness,
	FactVolumeMetric:      DestBusiness,

	FactTechStack:              DestTechnical,
	FactSystemIntegration:      DestTechnical,
	FactDataSource:             DestTechnical,
	FactAPIEndpoint:            DestTechnical,
	FactAuthMethod:             DestTechnical,
	FactDataModel:              DestTechnical,
	FactErrorHandling:          DestTechnical,
	FactEscalationRule:         DestTechnical,
	FactFallbackBehavior:       DestTechnical,
	FactPerformanceRequirement: DestTechnical,
	FactSecurityRequirement:    DestTechnical,
	FactDeploymentTarget:       DestTechnical,

	FactHappyPathStep:       DestTestPlan,
	FactEdgeCase:            DestTestPlan,
	FactGuardrailNever:      DestTestPlan,
	FactGuardrailAlways:     DestTestPlan,
	FactScopeIn:             DestTestPlan,
	FactScopeOut:            DestTestPlan,
	FactAcceptanceCriterion: DestTestPlan,

	FactDecision:     DestDecision,
	FactOpenQuestion: DestDecision,
	FactAssumption:   DestDecision,
	FactRisk:         DestDecision,
}

// AllFactTypes returns the full closed enumeration in a stable order.
func AllFactTypes() []FactType {
	out := make([]FactType, 0, len(factDestinations))
	for _, group := range [][]FactType{businessFacts, technicalFacts, testPlanFacts, decisionFacts} {
		out = append(out, group...)
	}
	return out
}

var (
	businessFacts = []FactType{
		FactCompanyBackground, FactStakeholder, FactTeamStructure, FactGoal,
		FactPainPoint, FactSuccessMetric, FactTargetAudience, FactBrandVoice,
		FactCompetitor, FactCurrentProcess, FactChannel, FactVolumeMetric,
	}
	technicalFacts = []FactType{
		FactTechStack, FactSystemIntegration, FactDataSource, FactAPIEndpoint,
		FactAuthMethod, FactDataModel, FactErrorHandling, FactEscalationRule,
		FactFallbackBehavior, FactPerformanceRequirement, FactSecurityRequirement,
		FactDeploymentTarget,
	}
	testPlanFacts = []FactType{
		FactHappyPathStep, FactEdgeCase, FactGuardrailNever, FactGuardrailAlways,
		FactScopeIn, FactScopeOut, FactAcceptanceCriterion,
	}
	decisionFacts = []FactType{
		FactDecision, FactOpenQuestion, FactAssumption, FactRisk,
	}
)

// DestinationOf returns the destination for a fact type and whether the type
// is part of the closed set at all.
func DestinationOf(t FactType) (Destination, bool) {
	d, ok := factDestinations[t]
	return d, ok
}

func FactTypesAsStringSlice() []string {
	types := AllFactTypes()
	result := make([]string, len(types))
	for i, t := range types {
		result[i] = string(t)
	}
	return result
}

// FactStatus is the only mutable field on an atomic fact.
type FactStatus string

const (
	FactExtracted FactStatus = "EXTRACTED"
	FactApproved  FactStatus = "APPROVED"
	FactRejected  FactStatus = "REJECTED"
)
