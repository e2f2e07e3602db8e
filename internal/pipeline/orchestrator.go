// Package pipeline owns the job state machine. It is the only component that
// mutates job state: QUEUED → PROCESSING → {COMPLETE | FAILED}, with
// caller-issued retry (capped) and idempotent cancel.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/classifier"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/llm"
	"github.com/amara-obi/designweek/internal/repository"
)

// CancelledByUser is the error string recorded on user-cancelled jobs.
const CancelledByUser = "Cancelled by user"

// Enqueuer re-queues a job for a worker. Implemented by the async queue;
// declared here so the queue can depend on the orchestrator and not the
// other way round.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
}

type Orchestrator struct {
	store      *repository.Store
	extractor  llm.Extractor
	classifier *classifier.Classifier
	detector   *ProgressDetector
	queue      Enqueuer // optional; nil means callers run Start themselves
	logger     *slog.Logger
}

func NewOrchestrator(store *repository.Store, extractor llm.Extractor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		extractor:  extractor,
		classifier: classifier.New(extractor, logger),
		detector:   NewProgressDetector(store, logger),
		logger:     logger,
	}
}

// SetQueue wires the worker queue used to resume retried jobs.
func (o *Orchestrator) SetQueue(q Enqueuer) { o.queue = q }

// Start runs a job's stage sequence to completion. Safe to call on a job
// that was cancelled in the meantime: the transition is simply discarded.
// Each stage result is applied only while the job is still PROCESSING, so an
// in-flight stage whose job got cancelled concurrently is a no-op.
func (o *Orchestrator) Start(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	switch job.Status {
	case constants.JobStatusQueued:
		job.Status = constants.JobStatusProcessing
		if err := o.store.Jobs.Update(ctx, job); err != nil {
			return err
		}
	case constants.JobStatusProcessing:
		// resuming after retry
	default:
		o.logger.Warn("pipeline.start.skipped", "job_id", jobID, "status", job.Status)
		return nil
	}

	o.logger.Info("pipeline.start", "job_id", jobID, "engagement_id", job.EngagementID,
		"artifact", job.ArtifactName, "retry_count", job.RetryCount)

	category, err := o.ensureCategory(ctx, job)
	if err != nil {
		// A store write failing during classification is a stage failure
		// like any other: the job must land in FAILED so retry can see it.
		return o.fail(ctx, job.ID, constants.StageClassification, err)
	}

	stages := constants.StageSequence(category)

	// Retry resumes at the persisted failure point; a fresh run starts at
	// stage zero and replaces any facts from a previous extraction of the
	// same source.
	startIdx := 0
	if job.CurrentStage != nil {
		for i, st := range stages {
			if st == *job.CurrentStage {
				startIdx = i
				break
			}
		}
	}
	if startIdx == 0 {
		if _, err := o.store.Facts.DeleteBySource(ctx, job.ID); err != nil {
			return o.fail(ctx, job.ID, stages[0], err)
		}
	}

	for i := startIdx; i < len(stages); i++ {
		stage := stages[i]
		ok, err := o.applyIfProcessing(ctx, job.ID, func(j *entity.Job) {
			s := stage
			j.CurrentStage = &s
			j.StageProgress = &entity.StageProgress{Step: i + 1, Total: len(stages)}
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil // job lost to cancel
		}

		if err := o.runStage(ctx, job, stage, category); err != nil {
			return o.fail(ctx, job.ID, stage, err)
		}
	}

	ok, err := o.applyIfProcessing(ctx, job.ID, func(j *entity.Job) {
		now := time.Now().UTC()
		j.Status = constants.JobStatusComplete
		j.CompletedAt = &now
		j.StageProgress = &entity.StageProgress{Step: len(stages), Total: len(stages)}
	})
	if err != nil || !ok {
		return err
	}

	o.logger.Info("pipeline.complete", "job_id", jobID, "category", category, "stages", len(stages))

	if err := o.detector.Detect(ctx, job.EngagementID); err != nil {
		// advisory only; a failed detection never fails a completed job
		o.logger.Warn("pipeline.phase_detect.failed", "engagement_id", job.EngagementID, "error", err)
	}
	return nil
}

// ensureCategory classifies the artifact once and persists the result.
// Classification never fails the job: inconclusive means UNKNOWN and the
// general-purpose stage runs.
func (o *Orchestrator) ensureCategory(ctx context.Context, job *entity.Job) (constants.ContentCategory, error) {
	if job.DetectedCategory != nil {
		return *job.DetectedCategory, nil
	}

	hint := ""
	if job.CategoryHint != nil {
		hint = *job.CategoryHint
	}
	category, res := o.classifier.Classify(ctx, job.ArtifactText, hint)

	ok, err := o.applyIfProcessing(ctx, job.ID, func(j *entity.Job) {
		c := category
		s := constants.StageClassification
		j.DetectedCategory = &c
		j.CurrentStage = &s
	})
	if err != nil {
		return category, err
	}
	if !ok {
		return category, nil
	}
	job.DetectedCategory = &category

	if res != nil {
		rec := &entity.RawExtraction{
			ID:           uuid.New(),
			JobID:        job.ID,
			EngagementID: job.EngagementID,
			Category:     category,
			Stage:        constants.StageClassification,
			RawOutput:    res.RawOutput,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
			LatencyMs:    res.LatencyMs,
			CreatedAt:    time.Now().UTC(),
		}
		if err := o.store.Extractions.Append(ctx, rec); err != nil {
			return category, err
		}
	}
	return category, nil
}

// runStage performs one extraction stage: model call, fact writes, audit
// record. Fact writes are append-only within a run, so a later stage failing
// never corrupts what earlier stages produced.
func (o *Orchestrator) runStage(ctx context.Context, job *entity.Job, stage constants.JobStage, category constants.ContentCategory) error {
	res, err := o.extractor.Extract(ctx, llm.ExtractRequest{
		Content:      job.ArtifactText,
		Stage:        stage,
		Category:     category,
		ArtifactName: job.ArtifactName,
	})
	if err != nil {
		o.logger.Error("pipeline.stage.failed", "job_id", job.ID, "stage", stage, "error", err)
		return err
	}

	// Discard results if the job was cancelled while the call was in flight.
	current, err := o.store.Jobs.Get(ctx, job.ID)
	if err != nil {
		return err
	}
	if current.Status != constants.JobStatusProcessing {
		o.logger.Warn("pipeline.stage.discarded", "job_id", job.ID, "stage", stage, "status", current.Status)
		return nil
	}

	now := time.Now().UTC()
	facts := make([]*entity.AtomicFact, 0, len(res.Facts))
	for _, c := range res.Facts {
		facts = append(facts, &entity.AtomicFact{
			ID:              uuid.New(),
			EngagementID:    job.EngagementID,
			SourceSessionID: job.ID,
			Type:            c.Type,
			Content:         c.Content,
			Confidence:      c.Confidence,
			Status:          constants.FactExtracted,
			StructuredData:  c.StructuredData,
			CreatedAt:       now,
		})
	}
	if err := o.store.Facts.CreateBatch(ctx, facts); err != nil {
		return err
	}

	raw := res.RawOutput
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	rec := &entity.RawExtraction{
		ID:           uuid.New(),
		JobID:        job.ID,
		EngagementID: job.EngagementID,
		Category:     category,
		Stage:        stage,
		RawOutput:    raw,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		LatencyMs:    res.LatencyMs,
		CreatedAt:    now,
	}
	if err := o.store.Extractions.Append(ctx, rec); err != nil {
		return err
	}

	o.logger.Info("pipeline.stage.ok", "job_id", job.ID, "stage", stage, "facts", len(facts))
	return nil
}

// fail records a stage failure: FAILED plus the message and the stage at
// which it happened, which is the resume point for retry. completedAt is set
// only once the retry budget is exhausted (the job is then terminal).
func (o *Orchestrator) fail(ctx context.Context, jobID uuid.UUID, stage constants.JobStage, cause error) error {
	ok, err := o.applyIfProcessing(ctx, jobID, func(j *entity.Job) {
		msg := cause.Error()
		s := stage
		j.Status = constants.JobStatusFailed
		j.ErrorMessage = &msg
		j.CurrentStage = &s
		if j.RetryCount >= constants.MaxRetries && j.CompletedAt == nil {
			now := time.Now().UTC()
			j.CompletedAt = &now
		}
	})
	if err != nil {
		return err
	}
	if !ok {
		// job already left PROCESSING (cancelled); nothing to record
		return nil
	}
	return cause
}

// applyIfProcessing re-reads the job and applies a mutation only while it is
// still PROCESSING. Returns false when the transition was discarded because
// the job reached another state concurrently (cancel pre-empts retry).
func (o *Orchestrator) applyIfProcessing(ctx context.Context, jobID uuid.UUID, mutate func(*entity.Job)) (bool, error) {
	job, err := o.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Status != constants.JobStatusProcessing {
		return false, nil
	}
	mutate(job)
	if err := o.store.Jobs.Update(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// RetryReceipt reports a successfully accepted retry.
type RetryReceipt struct {
	Status       constants.JobStatus `json:"status"`
	RetryingFrom constants.JobStage  `json:"retrying_from"`
	RetryCount   int                 `json:"retry_count"`
	MaxRetries   int                 `json:"max_retries"`
}

// Retry re-queues a FAILED job from its persisted failure stage, or from an
// explicit override. The 4th attempt is always rejected with a capacity
// error and the store is left untouched.
func (o *Orchestrator) Retry(ctx context.Context, jobID uuid.UUID, fromStage *constants.JobStage) (*RetryReceipt, error) {
	job, err := o.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusFailed {
		return nil, common.InvalidInputErrorf("only FAILED jobs can be retried (job %s is %s)", jobID, job.Status)
	}
	if job.RetryCount >= constants.MaxRetries {
		o.logger.Warn("pipeline.retry.exhausted", "job_id", jobID, "retry_count", job.RetryCount)
		return nil, common.RetryExhaustedError()
	}
	if fromStage != nil && !constants.ValidStage(*fromStage) {
		return nil, common.InvalidInputErrorf("unknown stage %q", *fromStage)
	}

	job.RetryCount++
	job.Status = constants.JobStatusProcessing
	job.ErrorMessage = nil
	if fromStage != nil {
		job.CurrentStage = fromStage
		if *fromStage == constants.StageClassification {
			// Retrying from CLASSIFICATION means re-classifying; clearing
			// the persisted category forces a fresh model call instead of
			// rerunning extraction under the stale one.
			job.DetectedCategory = nil
		}
	}
	if err := o.store.Jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	resumeFrom := constants.StageClassification
	if job.CurrentStage != nil {
		resumeFrom = *job.CurrentStage
	}
	o.logger.Info("pipeline.retry", "job_id", jobID, "from_stage", resumeFrom, "retry_count", job.RetryCount)

	if o.queue != nil {
		if err := o.queue.Enqueue(ctx, jobID); err != nil {
			return nil, err
		}
	}

	return &RetryReceipt{
		Status:       constants.JobStatusQueued,
		RetryingFrom: resumeFrom,
		RetryCount:   job.RetryCount,
		MaxRetries:   constants.MaxRetries,
	}, nil
}

// CancelReceipt reports the job's status after a cancel request. Cancel
// always succeeds from the caller's point of view.
type CancelReceipt struct {
	Status          constants.JobStatus `json:"status"`
	Message         string              `json:"message"`
	AlreadyFinished bool                `json:"already_finished"`
}

// Cancel forces a QUEUED or PROCESSING job to FAILED with a completion
// timestamp. Cancelling a job that already reached a terminal state is a
// no-op that reports the existing status.
func (o *Orchestrator) Cancel(ctx context.Context, jobID uuid.UUID) (*CancelReceipt, error) {
	job, err := o.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status.Terminal() {
		o.logger.Info("pipeline.cancel.noop", "job_id", jobID, "status", job.Status)
		return &CancelReceipt{
			Status:          job.Status,
			Message:         "Job already finished",
			AlreadyFinished: true,
		}, nil
	}

	now := time.Now().UTC()
	msg := CancelledByUser
	job.Status = constants.JobStatusFailed
	job.ErrorMessage = &msg
	job.CompletedAt = &now
	if err := o.store.Jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	o.logger.Info("pipeline.cancelled", "job_id", jobID)
	return &CancelReceipt{Status: constants.JobStatusFailed, Message: CancelledByUser}, nil
}
