package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: no Update/Delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Actor identifies who caused an event.
type Actor struct {
	Username string
	Role     string
	IP       string
}

// Service records and lists audit events.
// Callers should treat writes as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

var (
	ErrInvalidEvent = errors.New("audit: invalid event")
	errNoRepository = errors.New("audit: repository not configured")
)

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errNoRepository
	}
	if e.Type == "" || e.Message == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// List returns the most recent events first. limit <= 0 selects the default.
func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errNoRepository
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

func (s *Service) LogLogin(ctx context.Context, a Actor) error {
	return s.Append(ctx, Event{
		Type:          EventTypeLogin,
		ActorUsername: a.Username,
		ActorRole:     a.Role,
		IPAddress:     a.IP,
		Message:       a.Username + " logged in",
	})
}

func (s *Service) LogLogout(ctx context.Context, a Actor) error {
	return s.Append(ctx, Event{
		Type:          EventTypeLogout,
		ActorUsername: a.Username,
		ActorRole:     a.Role,
		IPAddress:     a.IP,
		Message:       a.Username + " logged out",
	})
}

func (s *Service) LogDeclarationSubmitted(ctx context.Context, a Actor, declarationID, summary string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeDeclarationSubmitted,
		ActorUsername: a.Username,
		ActorRole:     a.Role,
		IPAddress:     a.IP,
		DeclarationID: declarationID,
		Message:       a.Username + " submitted: " + summary,
	})
}

func (s *Service) LogDeclarationCommitted(ctx context.Context, a Actor, declarationID, summary string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeDeclarationCommitted,
		ActorUsername: a.Username,
		ActorRole:     a.Role,
		IPAddress:     a.IP,
		DeclarationID: declarationID,
		Message:       a.Username + " committed: " + summary,
	})
}
