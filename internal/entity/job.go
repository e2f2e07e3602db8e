package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
)

// StageProgress is a free-form UI progress marker. Not authoritative for
// correctness; the resume point for retry is Job.CurrentStage.
type StageProgress struct {
	Step  int `json:"step"`
	Total int `json:"total"`
}

// Job represents one artifact's run through the extraction pipeline,
// for data transfer between layers.
type Job struct {
	ID               uuid.UUID                 `json:"id"`
	EngagementID     uuid.UUID                 `json:"engagement_id"`
	ArtifactName     string                    `json:"artifact_name"`
	ArtifactText     string                    `json:"artifact_text,omitempty"`
	ContentHashHex   string                    `json:"content_hash_hex"`
	CategoryHint     *string                   `json:"category_hint,omitempty"`
	Status           constants.JobStatus       `json:"status"`
	CurrentStage     *constants.JobStage       `json:"current_stage,omitempty"`
	StageProgress    *StageProgress            `json:"stage_progress,omitempty"`
	DetectedCategory *constants.ContentCategory `json:"detected_category,omitempty"`
	RetryCount       int                       `json:"retry_count"`
	ErrorMessage     *string                   `json:"error_message,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	CompletedAt      *time.Time                `json:"completed_at,omitempty"`
}
