package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/record"
)

// Donor is one donor case: the accumulated master record plus the screening
// outcome derived from it. Status is PENDING until the first document has
// been merged and evaluated.
type Donor struct {
	ID         uuid.UUID
	ExternalID string
	Status     constants.EligibilityStatus
	Flags      []string
	Record     record.Record
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
