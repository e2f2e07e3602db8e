package profiles

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/repository"
)

// Service serves profile reads and regeneration. Reads prefer the saved
// document; a fresh projection is computed only when nothing is saved or the
// caller explicitly regenerates.
type Service struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Business returns the business profile view: the saved document when one
// exists, otherwise a fresh projection of the engagement's facts.
func (s *Service) Business(ctx context.Context, engagementID uuid.UUID) (*entity.BusinessProfile, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestBusiness)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.savedBusiness(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		return saved, stats, nil
	}
	return BuildBusinessProfile(facts), stats, nil
}

// RegenerateBusiness recomputes the projection and persists it. With replace
// false the saved document's edits survive the merge; with replace true the
// fresh projection overwrites everything.
func (s *Service) RegenerateBusiness(ctx context.Context, engagementID uuid.UUID, replace bool) (*entity.BusinessProfile, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestBusiness)
	if err != nil {
		return nil, nil, err
	}
	result := BuildBusinessProfile(facts)

	saved, err := s.savedBusiness(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		if !replace {
			result = MergeBusinessProfiles(saved, result)
			stats.Merged = true
		}
	}
	if err := s.save(ctx, engagementID, entity.ProfileBusiness, result); err != nil {
		return nil, nil, err
	}
	return result, stats, nil
}

// Technical returns the technical profile view.
func (s *Service) Technical(ctx context.Context, engagementID uuid.UUID) (*entity.TechnicalProfile, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestTechnical)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.savedTechnical(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		return saved, stats, nil
	}
	return BuildTechnicalProfile(facts), stats, nil
}

// RegenerateTechnical recomputes and persists the technical profile.
func (s *Service) RegenerateTechnical(ctx context.Context, engagementID uuid.UUID, replace bool) (*entity.TechnicalProfile, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestTechnical)
	if err != nil {
		return nil, nil, err
	}
	result := BuildTechnicalProfile(facts)

	saved, err := s.savedTechnical(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		if !replace {
			result = MergeTechnicalProfiles(saved, result)
			stats.Merged = true
		}
	}
	if err := s.save(ctx, engagementID, entity.ProfileTechnical, result); err != nil {
		return nil, nil, err
	}
	return result, stats, nil
}

// TestPlan returns the test-plan view.
func (s *Service) TestPlan(ctx context.Context, engagementID uuid.UUID) (*entity.TestPlan, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestTestPlan)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.savedTestPlan(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		return saved, stats, nil
	}
	return BuildTestPlan(facts), stats, nil
}

// RegenerateTestPlan recomputes and persists the test plan. Saved cases keep
// their execution status; merging keys on the source fact id.
func (s *Service) RegenerateTestPlan(ctx context.Context, engagementID uuid.UUID, replace bool) (*entity.TestPlan, *entity.ProfileStats, error) {
	facts, stats, err := s.load(ctx, engagementID, constants.DestTestPlan)
	if err != nil {
		return nil, nil, err
	}
	result := BuildTestPlan(facts)

	saved, err := s.savedTestPlan(ctx, engagementID)
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		stats.HasSavedProfile = true
		if !replace {
			result = MergeTestPlans(saved, result)
			stats.Merged = true
		}
	}
	if err := s.save(ctx, engagementID, entity.ProfileTestPlan, result); err != nil {
		return nil, nil, err
	}
	return result, stats, nil
}

// load fetches the engagement's facts and narrows them to one destination.
func (s *Service) load(ctx context.Context, engagementID uuid.UUID, dest constants.Destination) ([]*entity.AtomicFact, *entity.ProfileStats, error) {
	if _, err := s.store.Engagements.Get(ctx, engagementID); err != nil {
		return nil, nil, err
	}
	facts, err := s.store.Facts.ListByEngagement(ctx, engagementID)
	if err != nil {
		return nil, nil, common.WrapError(err, "listing facts")
	}
	byDest, diag := SplitByDestination(facts)
	if err := diag.Err(); err != nil {
		s.logger.Warn("profiles.unmapped_types", "engagement_id", engagementID, "error", err)
	}
	selected := byDest[dest]
	stats := &entity.ProfileStats{ExtractedItemsCount: len(selected)}
	return selected, stats, nil
}

func (s *Service) savedBusiness(ctx context.Context, engagementID uuid.UUID) (*entity.BusinessProfile, error) {
	var p entity.BusinessProfile
	ok, err := s.loadSaved(ctx, engagementID, entity.ProfileBusiness, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Service) savedTechnical(ctx context.Context, engagementID uuid.UUID) (*entity.TechnicalProfile, error) {
	var p entity.TechnicalProfile
	ok, err := s.loadSaved(ctx, engagementID, entity.ProfileTechnical, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Service) savedTestPlan(ctx context.Context, engagementID uuid.UUID) (*entity.TestPlan, error) {
	var p entity.TestPlan
	ok, err := s.loadSaved(ctx, engagementID, entity.ProfileTestPlan, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Service) loadSaved(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind, into any) (bool, error) {
	doc, err := s.store.Profiles.Get(ctx, engagementID, kind)
	if err != nil {
		return false, common.WrapError(err, "loading saved profile")
	}
	if doc == nil {
		return false, nil
	}
	if err := json.Unmarshal(doc, into); err != nil {
		// A corrupt saved document should not brick the view. Fall back to
		// the fresh projection and leave the stored bytes for inspection.
		s.logger.Error("profiles.saved.corrupt", "engagement_id", engagementID, "kind", kind, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Service) save(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return common.WrapError(err, "encoding profile")
	}
	if err := s.store.Profiles.Save(ctx, engagementID, kind, raw); err != nil {
		return common.WrapError(err, "saving profile")
	}
	return nil
}
