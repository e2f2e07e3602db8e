package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/entity"
)

// NewSQLStore wires all repositories over one database handle.
func NewSQLStore(db *sql.DB, log *slog.Logger) *Store {
	return &Store{
		Jobs:        &jobRepo{db: db, log: log},
		Extractions: &extractionRepo{db: db, log: log},
		Facts:       &factRepo{db: db, log: log},
		Engagements: &engagementRepo{db: db, log: log},
		Profiles:    &profileRepo{db: db, log: log},
	}
}

type jobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *jobRepo) Create(ctx context.Context, job *entity.Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extraction_job
			(id, engagement_id, artifact_name, artifact_text, content_hash_hex,
			 category_hint, status, current_stage, progress_step, progress_total,
			 detected_category, retry_count, error_message, created_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		job.ID.String(), job.EngagementID.String(), job.ArtifactName, job.ArtifactText,
		job.ContentHashHex, nullStr(job.CategoryHint), string(job.Status),
		nullStage(job.CurrentStage), nullProgressStep(job.StageProgress),
		nullProgressTotal(job.StageProgress), nullCategory(job.DetectedCategory),
		job.RetryCount, nullStr(job.ErrorMessage), job.CreatedAt, nullTime(job.CompletedAt),
	)
	if err != nil {
		r.log.Error("job create failed", "job_id", job.ID, "err", err)
		return common.WrapError(err, "create job")
	}
	r.log.Info("job created", "job_id", job.ID, "engagement_id", job.EngagementID, "artifact", job.ArtifactName)
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, engagement_id, artifact_name, artifact_text, content_hash_hex,
		       category_hint, status, current_stage, progress_step, progress_total,
		       detected_category, retry_count, error_message, created_at, completed_at
		FROM extraction_job WHERE id = $1`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("job %s not found", id)
	}
	return job, err
}

func (r *jobRepo) Update(ctx context.Context, job *entity.Job) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE extraction_job SET
			status = $2, current_stage = $3, progress_step = $4, progress_total = $5,
			detected_category = $6, retry_count = $7, error_message = $8, completed_at = $9
		WHERE id = $1`,
		job.ID.String(), string(job.Status), nullStage(job.CurrentStage),
		nullProgressStep(job.StageProgress), nullProgressTotal(job.StageProgress),
		nullCategory(job.DetectedCategory), job.RetryCount, nullStr(job.ErrorMessage),
		nullTime(job.CompletedAt),
	)
	if err != nil {
		r.log.Error("job update failed", "job_id", job.ID, "err", err)
		return common.WrapError(err, "update job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("job %s not found", job.ID)
	}
	return nil
}

func (r *jobRepo) ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, engagement_id, artifact_name, artifact_text, content_hash_hex,
		       category_hint, status, current_stage, progress_step, progress_total,
		       detected_category, retry_count, error_message, created_at, completed_at
		FROM extraction_job WHERE engagement_id = $1 ORDER BY created_at`, engagementID.String())
	if err != nil {
		return nil, common.WrapError(err, "list jobs")
	}
	defer rows.Close()

	var out []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		job                         entity.Job
		idStr, engStr, status       string
		hint, stage, category, emsg sql.NullString
		step, total                 sql.NullInt64
		completedAt                 sql.NullTime
	)
	err := row.Scan(&idStr, &engStr, &job.ArtifactName, &job.ArtifactText, &job.ContentHashHex,
		&hint, &status, &stage, &step, &total, &category, &job.RetryCount, &emsg,
		&job.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if hint.Valid {
		job.CategoryHint = &hint.String
	}
	job.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	job.EngagementID, err = uuid.Parse(engStr)
	if err != nil {
		return nil, err
	}
	job.Status = constants.JobStatus(status)
	if stage.Valid {
		s := constants.JobStage(stage.String)
		job.CurrentStage = &s
	}
	if step.Valid && total.Valid {
		job.StageProgress = &entity.StageProgress{Step: int(step.Int64), Total: int(total.Int64)}
	}
	if category.Valid {
		c := constants.ContentCategory(category.String)
		job.DetectedCategory = &c
	}
	if emsg.Valid {
		job.ErrorMessage = &emsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

type extractionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *extractionRepo) Append(ctx context.Context, rec *entity.RawExtraction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO raw_extraction
			(id, job_id, engagement_id, category, stage, raw_output,
			 input_tokens, output_tokens, latency_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID.String(), rec.JobID.String(), rec.EngagementID.String(),
		string(rec.Category), string(rec.Stage), string(rec.RawOutput),
		rec.InputTokens, rec.OutputTokens, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		r.log.Error("raw extraction append failed", "job_id", rec.JobID, "stage", rec.Stage, "err", err)
		return common.WrapError(err, "append raw extraction")
	}
	return nil
}

func (r *extractionRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.RawExtraction, error) {
	return r.list(ctx, "job_id", jobID)
}

func (r *extractionRepo) ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.RawExtraction, error) {
	return r.list(ctx, "engagement_id", engagementID)
}

func (r *extractionRepo) list(ctx context.Context, column string, id uuid.UUID) ([]*entity.RawExtraction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, engagement_id, category, stage, raw_output,
		       input_tokens, output_tokens, latency_ms, created_at
		FROM raw_extraction WHERE `+column+` = $1 ORDER BY created_at`, id.String())
	if err != nil {
		return nil, common.WrapError(err, "list raw extractions")
	}
	defer rows.Close()

	var out []*entity.RawExtraction
	for rows.Next() {
		var (
			rec                entity.RawExtraction
			idStr, jobStr, eng string
			category, stage    string
			raw                string
		)
		if err := rows.Scan(&idStr, &jobStr, &eng, &category, &stage, &raw,
			&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ID, _ = uuid.Parse(idStr)
		rec.JobID, _ = uuid.Parse(jobStr)
		rec.EngagementID, _ = uuid.Parse(eng)
		rec.Category = constants.ContentCategory(category)
		rec.Stage = constants.JobStage(stage)
		rec.RawOutput = json.RawMessage(raw)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

type factRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *factRepo) CreateBatch(ctx context.Context, facts []*entity.AtomicFact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin fact batch")
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range facts {
		var structured any
		if len(f.StructuredData) > 0 {
			structured = string(f.StructuredData)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO atomic_fact
				(id, engagement_id, source_session_id, fact_type, content,
				 confidence, status, structured_data, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			f.ID.String(), f.EngagementID.String(), f.SourceSessionID.String(),
			string(f.Type), f.Content, f.Confidence, string(f.Status),
			structured, f.CreatedAt,
		); err != nil {
			r.log.Error("fact batch insert failed", "fact_id", f.ID, "err", err)
			return common.WrapError(err, "insert fact")
		}
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit fact batch")
	}
	r.log.Info("fact batch created", "count", len(facts))
	return nil
}

func (r *factRepo) ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.AtomicFact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, engagement_id, source_session_id, fact_type, content,
		       confidence, status, structured_data, created_at
		FROM atomic_fact WHERE engagement_id = $1 ORDER BY created_at`, engagementID.String())
	if err != nil {
		return nil, common.WrapError(err, "list facts")
	}
	defer rows.Close()

	var out []*entity.AtomicFact
	for rows.Next() {
		var (
			f                  entity.AtomicFact
			idStr, engStr, src string
			ftype, status      string
			structured         sql.NullString
		)
		if err := rows.Scan(&idStr, &engStr, &src, &ftype, &f.Content,
			&f.Confidence, &status, &structured, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ID, _ = uuid.Parse(idStr)
		f.EngagementID, _ = uuid.Parse(engStr)
		f.SourceSessionID, _ = uuid.Parse(src)
		f.Type = constants.FactType(ftype)
		f.Status = constants.FactStatus(status)
		if structured.Valid {
			f.StructuredData = json.RawMessage(structured.String)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *factRepo) DeleteBySource(ctx context.Context, sourceSessionID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM atomic_fact WHERE source_session_id = $1`, sourceSessionID.String())
	if err != nil {
		r.log.Error("fact delete-by-source failed", "source_session_id", sourceSessionID, "err", err)
		return 0, common.WrapError(err, "delete facts by source")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Info("facts deleted for re-extraction", "source_session_id", sourceSessionID, "count", n)
	}
	return n, nil
}

func (r *factRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.FactStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE atomic_fact SET status = $2 WHERE id = $1`, id.String(), string(status))
	if err != nil {
		return common.WrapError(err, "update fact status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("fact %s not found", id)
	}
	return nil
}

type engagementRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *engagementRepo) Create(ctx context.Context, e *entity.Engagement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO engagement (id, company_name, status, phase, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID.String(), e.CompanyName, string(e.Status), e.Phase, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		r.log.Error("engagement create failed", "engagement_id", e.ID, "err", err)
		return common.WrapError(err, "create engagement")
	}
	return nil
}

func (r *engagementRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Engagement, error) {
	var (
		e      entity.Engagement
		idStr  string
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_name, status, phase, created_at, updated_at
		FROM engagement WHERE id = $1`, id.String()).
		Scan(&idStr, &e.CompanyName, &status, &e.Phase, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("engagement %s not found", id)
	}
	if err != nil {
		return nil, common.WrapError(err, "get engagement")
	}
	e.ID, _ = uuid.Parse(idStr)
	e.Status = constants.EngagementStatus(status)
	return &e, nil
}

func (r *engagementRepo) UpdateProgress(ctx context.Context, id uuid.UUID, status constants.EngagementStatus, phase int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE engagement SET status = $2, phase = $3, updated_at = $4 WHERE id = $1`,
		id.String(), string(status), phase, time.Now().UTC())
	if err != nil {
		return common.WrapError(err, "update engagement progress")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("engagement %s not found", id)
	}
	r.log.Info("engagement progress updated", "engagement_id", id, "status", status, "phase", phase)
	return nil
}

type profileRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func (r *profileRepo) Get(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind) (json.RawMessage, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `
		SELECT doc FROM saved_profile WHERE engagement_id = $1 AND kind = $2`,
		engagementID.String(), string(kind)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapError(err, "get saved profile")
	}
	return json.RawMessage(doc), nil
}

func (r *profileRepo) Save(ctx context.Context, engagementID uuid.UUID, kind entity.ProfileKind, doc json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_profile (engagement_id, kind, doc, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (engagement_id, kind) DO UPDATE SET doc = $3, updated_at = $4`,
		engagementID.String(), string(kind), string(doc), time.Now().UTC())
	if err != nil {
		r.log.Error("saved profile write failed", "engagement_id", engagementID, "kind", kind, "err", err)
		return common.WrapError(err, "save profile")
	}
	r.log.Info("profile saved", "engagement_id", engagementID, "kind", kind)
	return nil
}

// nullable column helpers

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStage(s *constants.JobStage) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullCategory(c *constants.ContentCategory) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func nullProgressStep(p *entity.StageProgress) any {
	if p == nil {
		return nil
	}
	return p.Step
}

func nullProgressTotal(p *entity.StageProgress) any {
	if p == nil {
		return nil
	}
	return p.Total
}
