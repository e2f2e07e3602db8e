package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
)

// RawExtraction is the append-only audit record of one successful stage
// execution: the unprocessed LLM output plus call telemetry. Also consulted
// by phase auto-detection for its detected category.
type RawExtraction struct {
	ID           uuid.UUID                 `json:"id"`
	JobID        uuid.UUID                 `json:"job_id"`
	EngagementID uuid.UUID                 `json:"engagement_id"`
	Category     constants.ContentCategory `json:"category"`
	Stage        constants.JobStage        `json:"stage"`
	RawOutput    json.RawMessage           `json:"raw_output"`
	InputTokens  int                       `json:"input_tokens"`
	OutputTokens int                       `json:"output_tokens"`
	LatencyMs    int64                     `json:"latency_ms"`
	CreatedAt    time.Time                 `json:"created_at"`
}
