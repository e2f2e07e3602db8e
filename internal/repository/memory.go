package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
)

// NewMemoryStore returns a fully in-memory Store. It backs the package tests
// and honors the same contracts as the SQL store, including safe concurrent
// append.
func NewMemoryStore() *Store {
	d := &memData{
		jobs:        make(map[uuid.UUID]entity.Job),
		facts:       make(map[uuid.UUID]entity.AtomicFact),
		engagements: make(map[uuid.UUID]entity.Engagement),
		profiles:    make(map[profileKey]json.RawMessage),
	}
	return &Store{
		Jobs:        &memJobs{d},
		Extractions: &memExtractions{d},
		Facts:       &memFacts{d},
		Engagements: &memEngagements{d},
		Profiles:    &memProfiles{d},
	}
}

type profileKey struct {
	engagement uuid.UUID
	kind       entity.ProfileKind
}

type memData struct {
	mu          sync.RWMutex
	jobs        map[uuid.UUID]entity.Job
	extractions []entity.RawExtraction
	facts       map[uuid.UUID]entity.AtomicFact
	engagements map[uuid.UUID]entity.Engagement
	profiles    map[profileKey]json.RawMessage
}

type memJobs struct{ d *memData }

func (r *memJobs) Create(_ context.Context, job *entity.Job) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *memJobs) Get(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	job, ok := r.d.jobs[id]
	if !ok {
		return nil, common.NotFoundErrorf("job %s not found", id)
	}
	out := cloneJob(&job)
	return &out, nil
}

func (r *memJobs) Update(_ context.Context, job *entity.Job) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.jobs[job.ID]; !ok {
		return common.NotFoundErrorf("job %s not found", job.ID)
	}
	r.d.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *memJobs) ListByEngagement(_ context.Context, engagementID uuid.UUID) ([]*entity.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*entity.Job
	for _, job := range r.d.jobs {
		if job.EngagementID == engagementID {
			j := cloneJob(&job)
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memExtractions struct{ d *memData }

func (r *memExtractions) Append(_ context.Context, rec *entity.RawExtraction) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.extractions = append(r.d.extractions, *rec)
	return nil
}

func (r *memExtractions) ListByJob(_ context.Context, jobID uuid.UUID) ([]*entity.RawExtraction, error) {
	return r.filter(func(rec *entity.RawExtraction) bool { return rec.JobID == jobID })
}

func (r *memExtractions) ListByEngagement(_ context.Context, engagementID uuid.UUID) ([]*entity.RawExtraction, error) {
	return r.filter(func(rec *entity.RawExtraction) bool { return rec.EngagementID == engagementID })
}

func (r *memExtractions) filter(keep func(*entity.RawExtraction) bool) ([]*entity.RawExtraction, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*entity.RawExtraction
	for i := range r.d.extractions {
		if keep(&r.d.extractions[i]) {
			rec := r.d.extractions[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}

type memFacts struct{ d *memData }

func (r *memFacts) CreateBatch(_ context.Context, facts []*entity.AtomicFact) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, f := range facts {
		r.d.facts[f.ID] = *f
	}
	return nil
}

func (r *memFacts) ListByEngagement(_ context.Context, engagementID uuid.UUID) ([]*entity.AtomicFact, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*entity.AtomicFact
	for _, f := range r.d.facts {
		if f.EngagementID == engagementID {
			fact := f
			out = append(out, &fact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memFacts) DeleteBySource(_ context.Context, sourceSessionID uuid.UUID) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var n int64
	for id, f := range r.d.facts {
		if f.SourceSessionID == sourceSessionID {
			delete(r.d.facts, id)
			n++
		}
	}
	return n, nil
}

func (r *memFacts) UpdateStatus(_ context.Context, id uuid.UUID, status constants.FactStatus) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.facts[id]
	if !ok {
		return common.NotFoundErrorf("fact %s not found", id)
	}
	f.Status = status
	r.d.facts[id] = f
	return nil
}

type memEngagements struct{ d *memData }

func (r *memEngagements) Create(_ context.Context, e *entity.Engagement) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.engagements[e.ID] = *e
	return nil
}

func (r *memEngagements) Get(_ context.Context, id uuid.UUID) (*entity.Engagement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	e, ok := r.d.engagements[id]
	if !ok {
		return nil, common.NotFoundErrorf("engagement %s not found", id)
	}
	out := e
	return &out, nil
}

func (r *memEngagements) UpdateProgress(_ context.Context, id uuid.UUID, status constants.EngagementStatus, phase int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	e, ok := r.d.engagements[id]
	if !ok {
		return common.NotFoundErrorf("engagement %s not found", id)
	}
	e.Status = status
	e.Phase = phase
	r.d.engagements[id] = e
	return nil
}

type memProfiles struct{ d *memData }

func (r *memProfiles) Get(_ context.Context, engagementID uuid.UUID, kind entity.ProfileKind) (json.RawMessage, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	doc, ok := r.d.profiles[profileKey{engagementID, kind}]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), doc...), nil
}

func (r *memProfiles) Save(_ context.Context, engagementID uuid.UUID, kind entity.ProfileKind, doc json.RawMessage) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.profiles[profileKey{engagementID, kind}] = append(json.RawMessage(nil), doc...)
	return nil
}

func cloneJob(job *entity.Job) entity.Job {
	out := *job
	if job.CategoryHint != nil {
		h := *job.CategoryHint
		out.CategoryHint = &h
	}
	if job.CurrentStage != nil {
		s := *job.CurrentStage
		out.CurrentStage = &s
	}
	if job.StageProgress != nil {
		p := *job.StageProgress
		out.StageProgress = &p
	}
	if job.DetectedCategory != nil {
		c := *job.DetectedCategory
		out.DetectedCategory = &c
	}
	if job.ErrorMessage != nil {
		e := *job.ErrorMessage
		out.ErrorMessage = &e
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
