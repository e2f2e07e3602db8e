package profiles

import (
	"math"
	"strings"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

// caseDefaults fixes category and priority per source fact type. Guardrails
// are always critical; scope-out lands as a boundary case because it asserts
// what the system must refuse to do.
var caseDefaults = map[constants.FactType]struct {
	category string
	priority string
}{
	constants.FactHappyPathStep:       {entity.CaseHappyPath, entity.PriorityHigh},
	constants.FactEdgeCase:            {entity.CaseEdge, entity.PriorityMedium},
	constants.FactGuardrailNever:      {entity.CaseGuardrail, entity.PriorityCritical},
	constants.FactGuardrailAlways:     {entity.CaseGuardrail, entity.PriorityCritical},
	constants.FactScopeIn:             {entity.CaseScope, entity.PriorityMedium},
	constants.FactScopeOut:            {entity.CaseBoundary, entity.PriorityMedium},
	constants.FactAcceptanceCriterion: {entity.CaseAcceptance, entity.PriorityHigh},
}

// BuildTestPlan turns test-plan-routed facts into test cases. Every fresh
// case starts not_run; execution status lives only on the saved document.
func BuildTestPlan(facts []*entity.AtomicFact) *entity.TestPlan {
	plan := &entity.TestPlan{}
	for _, f := range facts {
		content := strings.TrimSpace(f.Content)
		if content == "" {
			continue
		}
		defaults, ok := caseDefaults[f.Type]
		if !ok {
			continue
		}
		plan.Cases = append(plan.Cases, entity.TestCase{
			SourceFactID: f.ID,
			Name:         content,
			Category:     defaults.category,
			Priority:     defaults.priority,
			Status:       entity.TestNotRun,
		})
	}
	return plan
}

// CoveragePercent is round(100 * passed / total), 0 for an empty plan.
func CoveragePercent(plan *entity.TestPlan) int {
	if plan == nil || len(plan.Cases) == 0 {
		return 0
	}
	passed := 0
	for _, c := range plan.Cases {
		if c.Status == entity.TestPassed {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(plan.Cases))))
}
