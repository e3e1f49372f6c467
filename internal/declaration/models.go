package declaration

import "time"

// Declaration is a user's stated intent plus the plan derived from it.
// It moves from submitted to committed exactly once.
type Declaration struct {
	ID   string `json:"id" db:"id"`
	Text string `json:"text" db:"text"`
	Plan string `json:"plan" db:"plan"`

	Status Status `json:"status" db:"status"`

	SubmittedBy   string    `json:"submitted_by" db:"submitted_by"`
	SubmittedRole string    `json:"submitted_role" db:"submitted_role"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	CommittedBy string     `json:"committed_by,omitempty" db:"committed_by"`
	CommittedAt *time.Time `json:"committed_at,omitempty" db:"committed_at"`
}

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusCommitted Status = "committed"
)
