package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
)

// AtomicFact is one immutable typed piece of extracted knowledge. Only Status
// is human-settable after creation; re-extraction of the same source replaces
// facts wholesale (delete-by-source then recreate).
type AtomicFact struct {
	ID              uuid.UUID           `json:"id"`
	EngagementID    uuid.UUID           `json:"engagement_id"`
	SourceSessionID uuid.UUID           `json:"source_session_id"`
	Type            constants.FactType  `json:"type"`
	Content         string              `json:"content"`
	Confidence      float32             `json:"confidence"`
	Status          constants.FactStatus `json:"status"`
	StructuredData  json.RawMessage     `json:"structured_data,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
