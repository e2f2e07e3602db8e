package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
)

// Engagement represents a design-week engagement for data transfer between
// layers. Status and Phase move forward only (see pipeline phase detection).
type Engagement struct {
	ID          uuid.UUID                  `json:"id"`
	CompanyName string                     `json:"company_name"`
	Status      constants.EngagementStatus `json:"status"`
	Phase       int                        `json:"phase"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}
