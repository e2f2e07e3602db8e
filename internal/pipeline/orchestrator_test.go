package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
	"github.com/amara-obi/designweek/internal/llm"
	"github.com/amara-obi/designweek/internal/repository"
)

type fakeExtractor struct {
	mu    sync.Mutex
	fn    func(req llm.ExtractRequest) (*llm.ExtractResult, error)
	calls []llm.ExtractRequest
}

func (f *fakeExtractor) Extract(_ context.Context, req llm.ExtractRequest) (*llm.ExtractResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return &llm.ExtractResult{RawOutput: json.RawMessage(`{}`)}, nil
	}
	return fn(req)
}

func (f *fakeExtractor) set(fn func(req llm.ExtractRequest) (*llm.ExtractResult, error)) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

func oneFact(t constants.FactType, content string) *llm.ExtractResult {
	return &llm.ExtractResult{
		Facts:     []llm.FactCandidate{{Type: t, Content: content, Confidence: 0.9}},
		RawOutput: json.RawMessage(`{"facts":[]}`),
	}
}

func newEnv(t *testing.T) (*repository.Store, *Orchestrator, *fakeExtractor, uuid.UUID) {
	t.Helper()
	store := repository.NewMemoryStore()
	eng := &entity.Engagement{
		ID:          uuid.New(),
		CompanyName: "Acme Logistics",
		Status:      constants.EngagementNotStarted,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Engagements.Create(context.Background(), eng))

	fake := &fakeExtractor{}
	orch := NewOrchestrator(store, fake, nil)
	return store, orch, fake, eng.ID
}

func createJob(t *testing.T, store *repository.Store, engagementID uuid.UUID, hint string) *entity.Job {
	t.Helper()
	job := &entity.Job{
		ID:           uuid.New(),
		EngagementID: engagementID,
		ArtifactName: "notes.txt",
		ArtifactText: "meeting notes",
		Status:       constants.JobStatusQueued,
		CreatedAt:    time.Now().UTC(),
	}
	if hint != "" {
		job.CategoryHint = &hint
	}
	require.NoError(t, store.Jobs.Create(context.Background(), job))
	return job
}

func TestStartCompletesKickoffJob(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return oneFact(constants.FactGoal, "automate dispatch"), nil
	})

	require.NoError(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusComplete, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.DetectedCategory)
	assert.Equal(t, constants.KickoffSession, *got.DetectedCategory)
	require.NotNil(t, got.StageProgress)
	assert.Equal(t, 1, got.StageProgress.Step)
	assert.Equal(t, 1, got.StageProgress.Total)

	facts, err := store.Facts.ListByEngagement(ctx, engID)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, constants.FactGoal, facts[0].Type)
	assert.Equal(t, job.ID, facts[0].SourceSessionID)
	assert.Equal(t, constants.FactExtracted, facts[0].Status)

	recs, err := store.Extractions.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1) // hint skipped classification, one extraction stage

	eng, err := store.Engagements.Get(ctx, engID)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Phase)
	assert.Equal(t, constants.EngagementInProgress, eng.Status)
}

func TestClassificationFailureRunsGeneralExtraction(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		if req.Stage == constants.StageClassification {
			return nil, errors.New("model down")
		}
		if req.Stage != constants.StageGeneralExtraction {
			return nil, errors.New("unexpected stage " + string(req.Stage))
		}
		return oneFact(constants.FactRisk, "no backups"), nil
	})

	require.NoError(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusComplete, got.Status)
	require.NotNil(t, got.DetectedCategory)
	assert.Equal(t, constants.UnknownCategory, *got.DetectedCategory)
}

func TestStageFailureRecordsStageAndError(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return nil, errors.New("rate limited")
	})

	require.Error(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "rate limited")
	require.NotNil(t, got.CurrentStage)
	assert.Equal(t, constants.StageExtraction, *got.CurrentStage)
	assert.Nil(t, got.CompletedAt, "retry budget not exhausted yet")
}

func TestRetryResumesFromFailedStage(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "process_design")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		switch req.Stage {
		case constants.StageExtraction:
			return oneFact(constants.FactPainPoint, "manual rekeying"), nil
		case constants.StagePopulation:
			return nil, errors.New("timeout")
		}
		return nil, errors.New("unexpected stage")
	})
	require.Error(t, orch.Start(ctx, job.ID))

	failed, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, failed.CurrentStage)
	require.Equal(t, constants.StagePopulation, *failed.CurrentStage)

	// Second attempt succeeds at the resume point.
	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		if req.Stage != constants.StagePopulation {
			return nil, errors.New("should resume at POPULATION, got " + string(req.Stage))
		}
		return oneFact(constants.FactDataModel, "order record"), nil
	})

	receipt, err := orch.Retry(ctx, job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusQueued, receipt.Status)
	assert.Equal(t, constants.StagePopulation, receipt.RetryingFrom)
	assert.Equal(t, 1, receipt.RetryCount)
	assert.Equal(t, constants.MaxRetries, receipt.MaxRetries)

	// No queue wired, so the caller runs the resumed job.
	require.NoError(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusComplete, got.Status)

	// Facts from the stage that succeeded before the failure survive.
	facts, err := store.Facts.ListByEngagement(ctx, engID)
	require.NoError(t, err)
	types := map[constants.FactType]int{}
	for _, f := range facts {
		types[f.Type]++
	}
	assert.Equal(t, 1, types[constants.FactPainPoint])
	assert.Equal(t, 1, types[constants.FactDataModel])
}

func TestRetryFromStageOverride(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "process_design")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		if req.Stage == constants.StagePopulation {
			return nil, errors.New("timeout")
		}
		return oneFact(constants.FactPainPoint, "manual rekeying"), nil
	})
	require.Error(t, orch.Start(ctx, job.ID))

	from := constants.StageExtraction
	receipt, err := orch.Retry(ctx, job.ID, &from)
	require.NoError(t, err)
	assert.Equal(t, constants.StageExtraction, receipt.RetryingFrom)
}

func TestRetryRejectsUnknownStage(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, orch.Start(ctx, job.ID))

	bad := constants.JobStage("SHIPPING")
	_, err := orch.Retry(ctx, job.ID, &bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRetryRejectsNonFailedJob(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return oneFact(constants.FactGoal, "g"), nil
	})
	require.NoError(t, orch.Start(ctx, job.ID))

	_, err := orch.Retry(ctx, job.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRetryCapReturnsCapacityError(t *testing.T) {
	store, orch, _, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	job.Status = constants.JobStatusFailed
	job.RetryCount = constants.MaxRetries
	msg := "boom"
	job.ErrorMessage = &msg
	require.NoError(t, store.Jobs.Update(ctx, job))

	_, err := orch.Retry(ctx, job.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRetryExhausted)
	assert.Contains(t, err.Error(),
		"Maximum retry attempts (3) reached. Please re-upload the artifact.")

	// The refused retry leaves the record untouched.
	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, constants.MaxRetries, got.RetryCount)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "boom", *got.ErrorMessage)
}

func TestCancelQueuedJob(t *testing.T) {
	store, orch, _, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "")

	receipt, err := orch.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, receipt.Status)
	assert.Equal(t, CancelledByUser, receipt.Message)
	assert.False(t, receipt.AlreadyFinished)

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, CancelledByUser, *got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt, "cancel always stamps completion")
}

func TestCancelIsIdempotent(t *testing.T) {
	store, orch, _, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "")

	_, err := orch.Cancel(ctx, job.ID)
	require.NoError(t, err)
	first, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)

	receipt, err := orch.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, receipt.AlreadyFinished)
	assert.Equal(t, constants.JobStatusFailed, receipt.Status)
	assert.Equal(t, "Job already finished", receipt.Message)

	second, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt, second.CompletedAt, "second cancel must not mutate")
}

func TestCancelDuringStageDiscardsResults(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	// Cancel lands while the model call is in flight.
	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		if _, err := orch.Cancel(ctx, job.ID); err != nil {
			return nil, err
		}
		return oneFact(constants.FactGoal, "late result"), nil
	})

	require.NoError(t, orch.Start(ctx, job.ID), "discarded transition is not an error")

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, CancelledByUser, *got.ErrorMessage)

	facts, err := store.Facts.ListByEngagement(ctx, engID)
	require.NoError(t, err)
	assert.Empty(t, facts, "results of the in-flight stage are discarded")
}

type failingExtractions struct {
	repository.ExtractionRepository
	err error
}

func (f *failingExtractions) Append(context.Context, *entity.RawExtraction) error { return f.err }

func TestClassificationAuditWriteFailureFailsJob(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	store.Extractions = &failingExtractions{ExtractionRepository: store.Extractions, err: errors.New("disk full")}
	ctx := context.Background()
	job := createJob(t, store, engID, "")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return &llm.ExtractResult{Category: constants.KickoffSession, RawOutput: json.RawMessage(`{}`)}, nil
	})

	require.Error(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status, "a store failure must not leave the job PROCESSING")
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "disk full")
	require.NotNil(t, got.CurrentStage)
	assert.Equal(t, constants.StageClassification, *got.CurrentStage)

	// The job is retryable, not stuck.
	receipt, err := orch.Retry(ctx, job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.RetryCount)
}

func TestRetryFromClassificationReclassifies(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		switch req.Stage {
		case constants.StageClassification:
			return &llm.ExtractResult{Category: constants.TechnicalSession, RawOutput: json.RawMessage(`{}`)}, nil
		case constants.StageExtraction:
			return oneFact(constants.FactTechStack, "Postgres"), nil
		}
		return nil, errors.New("flaky population")
	})
	require.Error(t, orch.Start(ctx, job.ID))

	from := constants.StageClassification
	receipt, err := orch.Retry(ctx, job.ID, &from)
	require.NoError(t, err)
	assert.Equal(t, constants.StageClassification, receipt.RetryingFrom)

	// The resumed run must classify again, not reuse the stale category.
	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		switch req.Stage {
		case constants.StageClassification:
			return &llm.ExtractResult{Category: constants.KickoffSession, RawOutput: json.RawMessage(`{}`)}, nil
		case constants.StageExtraction:
			return oneFact(constants.FactGoal, "reclassified run"), nil
		}
		return nil, errors.New("unexpected stage " + string(req.Stage))
	})
	require.NoError(t, orch.Start(ctx, job.ID))

	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusComplete, got.Status)
	require.NotNil(t, got.DetectedCategory)
	assert.Equal(t, constants.KickoffSession, *got.DetectedCategory)

	facts, err := store.Facts.ListByEngagement(ctx, engID)
	require.NoError(t, err)
	require.Len(t, facts, 1, "re-classified run replaces the earlier run's facts")
	assert.Equal(t, "reclassified run", facts[0].Content)
}

func TestFreshRunReplacesOwnFacts(t *testing.T) {
	store, orch, fake, engID := newEnv(t)
	ctx := context.Background()
	job := createJob(t, store, engID, "kickoff")

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return oneFact(constants.FactGoal, "v1"), nil
	})
	require.NoError(t, orch.Start(ctx, job.ID))

	// Simulate an operator resetting the job for a fresh run.
	got, err := store.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	got.Status = constants.JobStatusQueued
	got.CurrentStage = nil
	got.CompletedAt = nil
	require.NoError(t, store.Jobs.Update(ctx, got))

	fake.set(func(req llm.ExtractRequest) (*llm.ExtractResult, error) {
		return oneFact(constants.FactGoal, "v2"), nil
	})
	require.NoError(t, orch.Start(ctx, job.ID))

	facts, err := store.Facts.ListByEngagement(ctx, engID)
	require.NoError(t, err)
	require.Len(t, facts, 1, "fresh run replaces the previous run's facts")
	assert.Equal(t, "v2", facts[0].Content)
}
