package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUsername is the authenticated user causing the event.
	ActorUsername string `json:"actor_username,omitempty" db:"actor_username"`
	ActorRole     string `json:"actor_role,omitempty" db:"actor_role"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	DeclarationID string `json:"declaration_id,omitempty" db:"declaration_id"`

	// Message is the short human-readable line shown in the audit trail.
	Message string `json:"message" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLogin                EventType = "login"
	EventTypeLogout               EventType = "logout"
	EventTypeDeclarationSubmitted EventType = "declaration_submitted"
	EventTypeDeclarationCommitted EventType = "declaration_committed"
)
