package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

// JobRepository persists extraction jobs. Only the orchestrator writes here.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.Job, error)
}

// ExtractionRepository is append-only: one record per successful stage run.
type ExtractionRepository interface {
	Append(ctx context.Context, rec *entity.RawExtraction) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.RawExtraction, error)
	ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.RawExtraction, error)
}

// FactRepository stores atomic facts. DeleteBySource then CreateBatch is the
// re-extraction contract; facts are otherwise immutable except Status.
type FactRepository interface {
	CreateBatch(ctx context.Context, facts []*entity.AtomicFact) error
	ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.AtomicFact, error)
	DeleteBySource(ctx context.Context, sourceSessionID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.FactStatus) error
}

// EngagementRepository persists engagements. The forward-only status rule is
// enforced by the phase detector, not here.
type EngagementRepository interface {
	Create(ctx context.Context, e *entity.Engagement) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Engagement, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, status constants.EngagementStatus, phase int) error
}

// ProfileRepository stores human-edited profile documents as opaque JSON,
// one per (engagement, kind). Get returns nil with no error when nothing
// has been saved yet.
type ProfileRepository interface {
	Get(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind) (json.RawMessage, error)
	Save(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind, doc json.RawMessage) error
}

// Store bundles the five repositories behind the fact-store boundary.
type Store struct {
	Jobs        JobRepository
	Extractions ExtractionRepository
	Facts       FactRepository
	Engagements EngagementRepository
	Profiles    ProfileRepository
}
