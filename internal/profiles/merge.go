package profiles

import (
	"github.com/google/uuid"

	"github.com/amara-obi/designweek/internal/entity"
)

// Merge semantics: the saved, human-edited document wins wherever it has
// content; fresh projections only backfill empty fields and contribute new
// list entries. Merging the same fresh document twice is a no-op.

func MergeBusinessProfiles(saved, fresh *entity.BusinessProfile) *entity.BusinessProfile {
	out := *saved
	out.Identity.CompanyBackground = mergeText(saved.Identity.CompanyBackground, fresh.Identity.CompanyBackground)
	out.Identity.Stakeholders = mergeList(saved.Identity.Stakeholders, fresh.Identity.Stakeholders)
	out.Identity.TeamStructure = mergeText(saved.Identity.TeamStructure, fresh.Identity.TeamStructure)
	out.Objectives.Goals = mergeList(saved.Objectives.Goals, fresh.Objectives.Goals)
	out.Objectives.PainPoints = mergeList(saved.Objectives.PainPoints, fresh.Objectives.PainPoints)
	out.Objectives.SuccessMetrics = mergeList(saved.Objectives.SuccessMetrics, fresh.Objectives.SuccessMetrics)
	out.Market.TargetAudience = mergeText(saved.Market.TargetAudience, fresh.Market.TargetAudience)
	out.Market.BrandVoice = mergeText(saved.Market.BrandVoice, fresh.Market.BrandVoice)
	out.Market.Competitors = mergeList(saved.Market.Competitors, fresh.Market.Competitors)
	out.Operations.CurrentProcess = mergeText(saved.Operations.CurrentProcess, fresh.Operations.CurrentProcess)
	out.Operations.Channels = mergeList(saved.Operations.Channels, fresh.Operations.Channels)
	out.Operations.VolumeMetrics = mergeList(saved.Operations.VolumeMetrics, fresh.Operations.VolumeMetrics)
	return &out
}

func MergeTechnicalProfiles(saved, fresh *entity.TechnicalProfile) *entity.TechnicalProfile {
	out := *saved
	out.Stack = mergeList(saved.Stack, fresh.Stack)
	out.Integrations = mergeList(saved.Integrations, fresh.Integrations)
	out.DataSources = mergeList(saved.DataSources, fresh.DataSources)
	out.APIEndpoints = mergeList(saved.APIEndpoints, fresh.APIEndpoints)
	out.AuthMethods = mergeList(saved.AuthMethods, fresh.AuthMethods)
	out.DataModels = mergeList(saved.DataModels, fresh.DataModels)
	out.ErrorHandling = mergeList(saved.ErrorHandling, fresh.ErrorHandling)
	out.Escalations = mergeList(saved.Escalations, fresh.Escalations)
	out.Fallbacks = mergeList(saved.Fallbacks, fresh.Fallbacks)
	out.Requirements.Performance = mergeList(saved.Requirements.Performance, fresh.Requirements.Performance)
	out.Requirements.Security = mergeList(saved.Requirements.Security, fresh.Requirements.Security)
	out.DeploymentTargets = mergeList(saved.DeploymentTargets, fresh.DeploymentTargets)
	return &out
}

// MergeTestPlans keys on the source fact id. A saved case keeps its recorded
// status, name edits, and priority overrides; fresh cases with no saved
// counterpart are appended in projection order.
func MergeTestPlans(saved, fresh *entity.TestPlan) *entity.TestPlan {
	out := &entity.TestPlan{Cases: append([]entity.TestCase(nil), saved.Cases...)}
	known := make(map[uuid.UUID]bool, len(saved.Cases))
	for _, c := range saved.Cases {
		known[c.SourceFactID] = true
	}
	for _, c := range fresh.Cases {
		if !known[c.SourceFactID] {
			out.Cases = append(out.Cases, c)
		}
	}
	return out
}

func mergeText(saved, fresh string) string {
	if saved != "" {
		return saved
	}
	return fresh
}

func mergeList(saved, fresh []string) []string {
	out := append([]string(nil), saved...)
	for _, item := range fresh {
		out = appendUnique(out, item)
	}
	return out
}
