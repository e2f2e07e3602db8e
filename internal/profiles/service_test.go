package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/repository"
)

func seedEngagement(t *testing.T, store *repository.Store) uuid.UUID {
	t.Helper()
	eng := &entity.Engagement{
		ID:          uuid.New(),
		CompanyName: "Acme Logistics",
		Status:      constants.EngagementInProgress,
		Phase:       2,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Engagements.Create(context.Background(), eng))
	return eng.ID
}

func seedFact(t *testing.T, store *repository.Store, engID uuid.UUID, ft constants.FactType, content string) uuid.UUID {
	t.Helper()
	f := &entity.AtomicFact{
		ID:              uuid.New(),
		EngagementID:    engID,
		SourceSessionID: uuid.New(),
		Type:            ft,
		Content:         content,
		Confidence:      0.9,
		Status:          constants.FactExtracted,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.Facts.CreateBatch(context.Background(), []*entity.AtomicFact{f}))
	return f.ID
}

func TestBusinessFreshProjection(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactGoal, "cut dispatch time in half")
	seedFact(t, store, engID, constants.FactGoal, "cut dispatch time in half") // duplicate content
	seedFact(t, store, engID, constants.FactCompanyBackground, "regional 3PL")
	seedFact(t, store, engID, constants.FactTechStack, "Postgres") // other destination

	svc := NewService(store, nil)
	p, stats, err := svc.Business(context.Background(), engID)
	require.NoError(t, err)

	assert.Equal(t, []string{"cut dispatch time in half"}, p.Objectives.Goals, "list fields deduplicate")
	assert.Equal(t, "regional 3PL", p.Identity.CompanyBackground)
	assert.False(t, stats.HasSavedProfile)
	assert.False(t, stats.Merged)
	assert.Equal(t, 3, stats.ExtractedItemsCount, "counts only business-routed facts")
}

func TestSavedProfileWinsOnRead(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactGoal, "from facts")

	saved := &entity.BusinessProfile{}
	saved.Objectives.Goals = []string{"hand edited"}
	svc := NewService(store, nil)
	require.NoError(t, svc.save(context.Background(), engID, entity.ProfileBusiness, saved))

	p, stats, err := svc.Business(context.Background(), engID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hand edited"}, p.Objectives.Goals)
	assert.True(t, stats.HasSavedProfile)
}

func TestRegenerateMergeKeepsEditsAndIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactGoal, "from facts")
	seedFact(t, store, engID, constants.FactBrandVoice, "friendly")

	saved := &entity.BusinessProfile{}
	saved.Objectives.Goals = []string{"hand edited"}
	saved.Identity.CompanyBackground = "edited background"
	svc := NewService(store, nil)
	require.NoError(t, svc.save(context.Background(), engID, entity.ProfileBusiness, saved))

	first, stats, err := svc.RegenerateBusiness(context.Background(), engID, false)
	require.NoError(t, err)
	assert.True(t, stats.Merged)
	assert.Equal(t, "edited background", first.Identity.CompanyBackground, "saved narrative wins")
	assert.Equal(t, "friendly", first.Market.BrandVoice, "fresh backfills empty fields")
	assert.Equal(t, []string{"hand edited", "from facts"}, first.Objectives.Goals, "lists union, saved first")

	second, _, err := svc.RegenerateBusiness(context.Background(), engID, false)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("regenerate is not idempotent (-first +second):\n%s", diff)
	}
}

func TestRegenerateReplaceDiscardsEdits(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactGoal, "from facts")

	saved := &entity.BusinessProfile{}
	saved.Objectives.Goals = []string{"hand edited"}
	svc := NewService(store, nil)
	require.NoError(t, svc.save(context.Background(), engID, entity.ProfileBusiness, saved))

	p, stats, err := svc.RegenerateBusiness(context.Background(), engID, true)
	require.NoError(t, err)
	assert.False(t, stats.Merged)
	assert.Equal(t, []string{"from facts"}, p.Objectives.Goals)
}

func TestTestPlanCaseDefaults(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactHappyPathStep, "driver accepts route")
	seedFact(t, store, engID, constants.FactGuardrailNever, "never expose customer phone numbers")
	seedFact(t, store, engID, constants.FactScopeIn, "domestic shipments")
	seedFact(t, store, engID, constants.FactScopeOut, "international customs")

	svc := NewService(store, nil)
	plan, _, err := svc.TestPlan(context.Background(), engID)
	require.NoError(t, err)
	require.Len(t, plan.Cases, 4)

	byName := map[string]entity.TestCase{}
	for _, c := range plan.Cases {
		byName[c.Name] = c
		assert.Equal(t, entity.TestNotRun, c.Status)
	}
	assert.Equal(t, entity.CaseHappyPath, byName["driver accepts route"].Category)
	assert.Equal(t, entity.PriorityHigh, byName["driver accepts route"].Priority)
	assert.Equal(t, entity.CaseGuardrail, byName["never expose customer phone numbers"].Category)
	assert.Equal(t, entity.PriorityCritical, byName["never expose customer phone numbers"].Priority)
	assert.Equal(t, entity.CaseScope, byName["domestic shipments"].Category)
	assert.Equal(t, entity.CaseBoundary, byName["international customs"].Category)
}

func TestCoveragePercent(t *testing.T) {
	assert.Equal(t, 0, CoveragePercent(nil))
	assert.Equal(t, 0, CoveragePercent(&entity.TestPlan{}))

	plan := &entity.TestPlan{Cases: []entity.TestCase{
		{Status: entity.TestPassed},
		{Status: entity.TestNotRun},
		{Status: entity.TestFailed},
		{Status: entity.TestBlocked},
	}}
	assert.Equal(t, 25, CoveragePercent(plan))

	plan.Cases[1].Status = entity.TestPassed
	plan.Cases[2].Status = entity.TestPassed
	assert.Equal(t, 75, CoveragePercent(plan))
}

func TestRegenerateTestPlanKeepsExecutionStatus(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	factID := seedFact(t, store, engID, constants.FactHappyPathStep, "driver accepts route")

	svc := NewService(store, nil)
	plan, _, err := svc.RegenerateTestPlan(context.Background(), engID, false)
	require.NoError(t, err)
	require.Len(t, plan.Cases, 1)

	// QA marks the case passed on the saved document.
	plan.Cases[0].Status = entity.TestPassed
	require.NoError(t, svc.save(context.Background(), engID, entity.ProfileTestPlan, plan))

	// A new extraction adds a second case; the first keeps its status.
	seedFact(t, store, engID, constants.FactEdgeCase, "route with zero stops")
	merged, stats, err := svc.RegenerateTestPlan(context.Background(), engID, false)
	require.NoError(t, err)
	assert.True(t, stats.Merged)
	require.Len(t, merged.Cases, 2)

	for _, c := range merged.Cases {
		if c.SourceFactID == factID {
			assert.Equal(t, entity.TestPassed, c.Status)
		} else {
			assert.Equal(t, entity.TestNotRun, c.Status)
		}
	}
	assert.Equal(t, 50, CoveragePercent(merged))
}

func TestTechnicalProjection(t *testing.T) {
	store := repository.NewMemoryStore()
	engID := seedEngagement(t, store)
	seedFact(t, store, engID, constants.FactTechStack, "Postgres")
	seedFact(t, store, engID, constants.FactSecurityRequirement, "PII encrypted at rest")

	svc := NewService(store, nil)
	p, stats, err := svc.Technical(context.Background(), engID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Postgres"}, p.Stack)
	assert.Equal(t, []string{"PII encrypted at rest"}, p.Requirements.Security)
	assert.Equal(t, 2, stats.ExtractedItemsCount)
}

func TestProfileForUnknownEngagement(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewService(store, nil)
	_, _, err := svc.Business(context.Background(), uuid.New())
	require.Error(t, err)
}
