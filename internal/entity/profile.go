package entity

import (
	"github.com/google/uuid"
)

// ProfileKind selects one of the three saved profile documents.
type ProfileKind string

const (
	ProfileBusiness  ProfileKind = "business"
	ProfileTechnical ProfileKind = "technical"
	ProfileTestPlan  ProfileKind = "test_plan"
)

// BusinessProfile is the business-facing projection of an engagement's facts.
// A saved, human-edited copy always wins over a fresh projection unless the
// caller asks for regeneration.
type BusinessProfile struct {
	Identity   BusinessIdentity   `json:"identity"`
	Objectives BusinessObjectives `json:"objectives"`
	Market     BusinessMarket     `json:"market"`
	Operations BusinessOperations `json:"operations"`
}

type BusinessIdentity struct {
	CompanyBackground string   `json:"company_background,omitempty"`
	Stakeholders      []string `json:"stakeholders,omitempty"`
	TeamStructure     string   `json:"team_structure,omitempty"`
}

type BusinessObjectives struct {
	Goals          []string `json:"goals,omitempty"`
	PainPoints     []string `json:"pain_points,omitempty"`
	SuccessMetrics []string `json:"success_metrics,omitempty"`
}

type BusinessMarket struct {
	TargetAudience string   `json:"target_audience,omitempty"`
	BrandVoice     string   `json:"brand_voice,omitempty"`
	Competitors    []string `json:"competitors,omitempty"`
}

type BusinessOperations struct {
	CurrentProcess string   `json:"current_process,omitempty"`
	Channels       []string `json:"channels,omitempty"`
	VolumeMetrics  []string `json:"volume_metrics,omitempty"`
}

// TechnicalProfile is the implementation-facing projection.
type TechnicalProfile struct {
	Stack             []string              `json:"stack,omitempty"`
	Integrations      []string              `json:"integrations,omitempty"`
	DataSources       []string              `json:"data_sources,omitempty"`
	APIEndpoints      []string              `json:"api_endpoints,omitempty"`
	AuthMethods       []string              `json:"auth_methods,omitempty"`
	DataModels        []string              `json:"data_models,omitempty"`
	ErrorHandling     []string              `json:"error_handling,omitempty"`
	Escalations       []string              `json:"escalations,omitempty"`
	Fallbacks         []string              `json:"fallbacks,omitempty"`
	Requirements      TechnicalRequirements `json:"requirements"`
	DeploymentTargets []string              `json:"deployment_targets,omitempty"`
}

type TechnicalRequirements struct {
	Performance []string `json:"performance,omitempty"`
	Security    []string `json:"security,omitempty"`
}

// TestCaseStatus values are the only mutable part of a generated test case.
const (
	TestNotRun  = "not_run"
	TestPassed  = "passed"
	TestFailed  = "failed"
	TestBlocked = "blocked"
)

// Test case priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Test case categories.
const (
	CaseHappyPath  = "happy_path"
	CaseScope      = "scope"
	CaseBoundary   = "boundary"
	CaseEdge       = "edge_case"
	CaseGuardrail  = "guardrail"
	CaseAcceptance = "acceptance"
)

type TestCase struct {
	SourceFactID uuid.UUID `json:"source_fact_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
}

// TestPlan is the QA-facing projection. CoveragePercent is derived, never
// stored: round(100*passed/total), 0 when there are no cases.
type TestPlan struct {
	Cases []TestCase `json:"cases,omitempty"`
}

// ProfileStats accompanies every profile read/regenerate response.
type ProfileStats struct {
	HasSavedProfile     bool `json:"has_saved_profile"`
	ExtractedItemsCount int  `json:"extracted_items_count"`
	Merged              bool `json:"merged"`
}
