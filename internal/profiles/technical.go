package profiles

import (
	"strings"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

// BuildTechnicalProfile projects technical-routed facts. Every section is a
// deduplicated list keyed on exact content.
func BuildTechnicalProfile(facts []*entity.AtomicFact) *entity.TechnicalProfile {
	p := &entity.TechnicalProfile{}

	for _, f := range facts {
		content := strings.TrimSpace(f.Content)
		if content == "" {
			continue
		}
		switch f.Type {
		case constants.FactTechStack:
			p.Stack = appendUnique(p.Stack, content)
		case constants.FactSystemIntegration:
			p.Integrations = appendUnique(p.Integrations, content)
		case constants.FactDataSource:
			p.DataSources = appendUnique(p.DataSources, content)
		case constants.FactAPIEndpoint:
			p.APIEndpoints = appendUnique(p.APIEndpoints, content)
		case constants.FactAuthMethod:
			p.AuthMethods = appendUnique(p.AuthMethods, content)
		case constants.FactDataModel:
			p.DataModels = appendUnique(p.DataModels, content)
		case constants.FactErrorHandling:
			p.ErrorHandling = appendUnique(p.ErrorHandling, content)
		case constants.FactEscalationRule:
			p.Escalations = appendUnique(p.Escalations, content)
		case constants.FactFallbackBehavior:
			p.Fallbacks = appendUnique(p.Fallbacks, content)
		case constants.FactPerformanceRequirement:
			p.Requirements.Performance = appendUnique(p.Requirements.Performance, content)
		case constants.FactSecurityRequirement:
			p.Requirements.Security = appendUnique(p.Requirements.Security, content)
		case constants.FactDeploymentTarget:
			p.DeploymentTargets = appendUnique(p.DeploymentTargets, content)
		}
	}
	return p
}
