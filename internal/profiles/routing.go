// Package profiles projects an engagement's atomic facts into the three
// profile views and reconciles fresh projections with human-edited saved
// documents.
package profiles

import (
	"fmt"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

// Route is one row of the routing table: where a fact type lands.
type Route struct {
	Destination constants.Destination
	Section     string
}

// routes is the single routing table shared by all three projections. Every
// member of the closed fact-type enum must appear exactly once; the package
// test cross-checks this against constants.AllFactTypes so a newly added
// type that routes nowhere fails the build, not production.
var routes = map[constants.FactType]Route{
	constants.FactCompanyBackground: {constants.DestBusiness, "identity.company_background"},
	constants.FactStakeholder:       {constants.DestBusiness, "identity.stakeholders"},
	constants.FactTeamStructure:     {constants.DestBusiness, "identity.team_structure"},
	constants.FactGoal:              {constants.DestBusiness, "objectives.goals"},
	constants.FactPainPoint:         {constants.DestBusiness, "objectives.pain_points"},
	constants.FactSuccessMetric:     {constants.DestBusiness, "objectives.success_metrics"},
	constants.FactTargetAudience:    {constants.DestBusiness, "market.target_audience"},
	constants.FactBrandVoice:        {constants.DestBusiness, "market.brand_voice"},
	constants.FactCompetitor:        {constants.DestBusiness, "market.competitors"},
	constants.FactCurrentProcess:    {constants.DestBusiness, "operations.current_process"},
	constants.FactChannel:           {constants.DestBusiness, "operations.channels"},
	constants.FactVolumeMetric:      {constants.DestBusiness, "operations.volume_metrics"},

	constants.FactTechStack:              {constants.DestTechnical, "stack"},
	constants.FactSystemIntegration:      {constants.DestTechnical, "integrations"},
	constants.FactDataSource:             {constants.DestTechnical, "data_sources"},
	constants.FactAPIEndpoint:            {constants.DestTechnical, "api_endpoints"},
	constants.FactAuthMethod:             {constants.DestTechnical, "auth_methods"},
	constants.FactDataModel:              {constants.DestTechnical, "data_models"},
	constants.FactErrorHandling:          {constants.DestTechnical, "error_handling"},
	constants.FactEscalationRule:         {constants.DestTechnical, "escalations"},
	constants.FactFallbackBehavior:       {constants.DestTechnical, "fallbacks"},
	constants.FactPerformanceRequirement: {constants.DestTechnical, "requirements.performance"},
	constants.FactSecurityRequirement:    {constants.DestTechnical, "requirements.security"},
	constants.FactDeploymentTarget:       {constants.DestTechnical, "deployment_targets"},

	constants.FactHappyPathStep:       {constants.DestTestPlan, "cases.happy_path"},
	constants.FactEdgeCase:            {constants.DestTestPlan, "cases.edge_case"},
	constants.FactGuardrailNever:      {constants.DestTestPlan, "cases.guardrail"},
	constants.FactGuardrailAlways:     {constants.DestTestPlan, "cases.guardrail"},
	constants.FactScopeIn:             {constants.DestTestPlan, "cases.scope"},
	constants.FactScopeOut:            {constants.DestTestPlan, "cases.boundary"},
	constants.FactAcceptanceCriterion: {constants.DestTestPlan, "cases.acceptance"},

	constants.FactDecision:     {constants.DestDecision, "decisions"},
	constants.FactOpenQuestion: {constants.DestDecision, "open_questions"},
	constants.FactAssumption:   {constants.DestDecision, "assumptions"},
	constants.FactRisk:         {constants.DestDecision, "risks"},
}

// RouteOf looks up the routing table.
func RouteOf(t constants.FactType) (Route, bool) {
	r, ok := routes[t]
	return r, ok
}

// Diagnostics surfaces facts that would otherwise be lost silently. A fact
// type with no route is a modeling defect to report, never a normal case.
type Diagnostics struct {
	UnmappedTypes []string
}

// SplitByDestination groups facts for the projections and reports any fact
// whose type has no routing entry. REJECTED facts are excluded from every
// projection.
func SplitByDestination(facts []*entity.AtomicFact) (map[constants.Destination][]*entity.AtomicFact, Diagnostics) {
	byDest := make(map[constants.Destination][]*entity.AtomicFact)
	var diag Diagnostics
	seen := make(map[constants.FactType]bool)

	for _, f := range facts {
		if f.Status == constants.FactRejected {
			continue
		}
		route, ok := routes[f.Type]
		if !ok {
			if !seen[f.Type] {
				seen[f.Type] = true
				diag.UnmappedTypes = append(diag.UnmappedTypes, string(f.Type))
			}
			continue
		}
		byDest[route.Destination] = append(byDest[route.Destination], f)
	}
	return byDest, diag
}

// Err returns a describable error when the diagnostics are non-empty.
func (d Diagnostics) Err() error {
	if len(d.UnmappedTypes) == 0 {
		return nil
	}
	return fmt.Errorf("fact types with no profile route: %v", d.UnmappedTypes)
}
