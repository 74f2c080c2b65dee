package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tissuetrace/donor-audit/constants"
)

// Document is one uploaded chart (page-tagged text) belonging to a donor.
// Status advances UPLOADED -> PROCESSING -> EXTRACTED or FAILED; a failed
// document never touches the donor's last-known-good record.
type Document struct {
	ID           uuid.UUID
	DonorID      uuid.UUID
	Filename     string
	Status       constants.DocumentStatus
	ChunkCount   int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
