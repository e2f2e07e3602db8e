package llm

import (
	"context"
	"encoding/json"

	"github.com/amara-obi/designweek/constants"
)

// FactCandidate is the normalized shape of one extracted fact as the model
// returns it, before it becomes a persisted AtomicFact.
type FactCandidate struct {
	Type           constants.FactType `json:"type"`
	Content        string             `json:"content"`
	Confidence     float32            `json:"confidence,omitempty"` // 0..1
	StructuredData json.RawMessage    `json:"structured_data,omitempty"`
}

// ExtractRequest carries one stage's worth of context to the model.
type ExtractRequest struct {
	Content      string
	Stage        constants.JobStage
	Category     constants.ContentCategory // UNKNOWN before classification
	CompanyName  string
	ArtifactName string
}

// ExtractResult is the typed outcome of one model call plus telemetry.
// Category is populated only by the classification stage.
type ExtractResult struct {
	Facts        []FactCandidate
	Category     constants.ContentCategory
	RawOutput    json.RawMessage
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
}

// Extractor is the interface the pipeline depends on. A failed call is a
// stage failure for the orchestrator, never a crash.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error)
}
