// Package ingest accepts artifacts into the extraction pipeline: validation,
// content-hash dedupe, job creation, and the drop-directory watcher.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/pipeline"
	"github.com/amara-obi/designweek/internal/repository"
)

// AcceptRequest is one artifact offered for extraction. CategoryHint is the
// uploader's declared category and is advisory; the classifier gets the
// final say.
type AcceptRequest struct {
	EngagementID uuid.UUID `json:"engagement_id"`
	ArtifactName string    `json:"artifact_name"`
	Content      string    `json:"content"`
	CategoryHint string    `json:"category_hint,omitempty"`
}

// AcceptReceipt reports what happened to an offered artifact.
type AcceptReceipt struct {
	JobID     uuid.UUID           `json:"job_id"`
	Status    constants.JobStatus `json:"status"`
	Duplicate bool                `json:"duplicate"`
}

// Service validates artifacts and creates queued jobs.
type Service struct {
	store  *repository.Store
	queue  pipeline.Enqueuer
	logger *slog.Logger
}

func NewService(store *repository.Store, queue pipeline.Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, queue: queue, logger: logger}
}

// Accept validates the artifact, dedupes it against the engagement's live
// jobs by content hash, creates a QUEUED job, and enqueues it. A duplicate
// returns the existing job's receipt and creates nothing; a prior FAILED run
// of the same content does not block re-submission.
func (s *Service) Accept(ctx context.Context, req AcceptRequest) (*AcceptReceipt, error) {
	if req.EngagementID == uuid.Nil {
		return nil, common.InvalidInputError("engagement id is required")
	}
	name := strings.TrimSpace(req.ArtifactName)
	if name == "" {
		return nil, common.InvalidInputError("artifact name is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, common.InvalidInputError("artifact content is empty")
	}
	if _, err := s.store.Engagements.Get(ctx, req.EngagementID); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(req.Content))
	hash := hex.EncodeToString(sum[:])

	existing, err := s.store.Jobs.ListByEngagement(ctx, req.EngagementID)
	if err != nil {
		return nil, common.WrapError(err, "listing jobs for dedupe")
	}
	for _, job := range existing {
		if job.ContentHashHex == hash && job.Status != constants.JobStatusFailed {
			s.logger.Info("ingest.duplicate", "engagement_id", req.EngagementID,
				"artifact", name, "job_id", job.ID)
			return &AcceptReceipt{JobID: job.ID, Status: job.Status, Duplicate: true}, nil
		}
	}

	job := &entity.Job{
		ID:             uuid.New(),
		EngagementID:   req.EngagementID,
		ArtifactName:   name,
		ArtifactText:   req.Content,
		ContentHashHex: hash,
		Status:         constants.JobStatusQueued,
		CreatedAt:      time.Now().UTC(),
	}
	if hint := strings.TrimSpace(req.CategoryHint); hint != "" {
		job.CategoryHint = &hint
	}
	if err := s.store.Jobs.Create(ctx, job); err != nil {
		return nil, common.WrapError(err, "creating job")
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, job.ID); err != nil {
			s.logger.Error("ingest.enqueue.failed", "job_id", job.ID, "error", err)
		}
	}

	s.logger.Info("ingest.accepted", "engagement_id", req.EngagementID,
		"artifact", name, "job_id", job.ID, "hint", req.CategoryHint)
	return &AcceptReceipt{JobID: job.ID, Status: constants.JobStatusQueued}, nil
}
