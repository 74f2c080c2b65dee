package constants

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusUploaded   DocumentStatus = "UPLOADED"   // queued for processing
	DocumentStatusProcessing DocumentStatus = "PROCESSING" // extraction in progress
	DocumentStatusExtracted  DocumentStatus = "EXTRACTED"  // merged into donor record
	DocumentStatusFailed     DocumentStatus = "FAILED"     // terminal failure
)

// EligibilityStatus is the screening outcome stored on a donor.
type EligibilityStatus string

const (
	StatusEligible EligibilityStatus = "ELIGIBLE" // no flags raised
	StatusReview   EligibilityStatus = "REVIEW"   // at least one flag, needs human review
	StatusPending  EligibilityStatus = "PENDING"  // evaluation has not run (no merged record yet)
)
