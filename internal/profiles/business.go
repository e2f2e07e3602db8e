package profiles

import (
	"strings"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

// BuildBusinessProfile projects business-routed facts into the profile
// shape. Narrative fields accumulate as paragraphs; list fields deduplicate
// on exact content.
func BuildBusinessProfile(facts []*entity.AtomicFact) *entity.BusinessProfile {
	p := &entity.BusinessProfile{}
	var background, team, audience, voice, process []string

	for _, f := range facts {
		content := strings.TrimSpace(f.Content)
		if content == "" {
			continue
		}
		switch f.Type {
		case constants.FactCompanyBackground:
			background = append(background, content)
		case constants.FactStakeholder:
			p.Identity.Stakeholders = appendUnique(p.Identity.Stakeholders, content)
		case constants.FactTeamStructure:
			team = append(team, content)
		case constants.FactGoal:
			p.Objectives.Goals = appendUnique(p.Objectives.Goals, content)
		case constants.FactPainPoint:
			p.Objectives.PainPoints = appendUnique(p.Objectives.PainPoints, content)
		case constants.FactSuccessMetric:
			p.Objectives.SuccessMetrics = appendUnique(p.Objectives.SuccessMetrics, content)
		case constants.FactTargetAudience:
			audience = append(audience, content)
		case constants.FactBrandVoice:
			voice = append(voice, content)
		case constants.FactCompetitor:
			p.Market.Competitors = appendUnique(p.Market.Competitors, content)
		case constants.FactCurrentProcess:
			process = append(process, content)
		case constants.FactChannel:
			p.Operations.Channels = appendUnique(p.Operations.Channels, content)
		case constants.FactVolumeMetric:
			p.Operations.VolumeMetrics = appendUnique(p.Operations.VolumeMetrics, content)
		}
	}

	p.Identity.CompanyBackground = joinParagraphs(background)
	p.Identity.TeamStructure = joinParagraphs(team)
	p.Market.TargetAudience = joinParagraphs(audience)
	p.Market.BrandVoice = joinParagraphs(voice)
	p.Operations.CurrentProcess = joinParagraphs(process)
	return p
}

func joinParagraphs(parts []string) string {
	return strings.Join(parts, "\n\n")
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
