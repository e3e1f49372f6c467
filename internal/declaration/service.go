package declaration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"declaration-platform/internal/audit"
	"declaration-platform/internal/auth"
	"declaration-platform/internal/intent"
	"declaration-platform/internal/rbac"
	"declaration-platform/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("declaration: not found")
	ErrDuplicate        = errors.New("declaration: duplicate id")
	ErrAlreadyCommitted = errors.New("declaration: already committed")
	ErrInvalidArgument  = errors.New("declaration: invalid argument")
	ErrForbidden        = errors.New("declaration: role may not commit")
)

// Repository is the persistence contract for declarations.
type Repository interface {
	Insert(ctx context.Context, d Declaration) error
	Get(ctx context.Context, id string) (Declaration, error)
	List(ctx context.Context, limit int) ([]Declaration, error)
	// Commit runs apply against the still-submitted declaration and marks it
	// committed only if apply succeeds.
	Commit(ctx context.Context, id, by string, at time.Time, apply func(Declaration) error) (Declaration, error)
}

// Actor is the verified identity acting on a declaration.
type Actor struct {
	Username string
	Role     auth.Role
	IP       string
}

func (a Actor) auditActor() audit.Actor {
	return audit.Actor{Username: a.Username, Role: string(a.Role), IP: a.IP}
}

// Service runs the declaration flow: submit text, derive a plan, commit it.
//
// Audit writes are best-effort and never fail the operation.
type Service struct {
	repo       Repository
	planner    intent.Planner
	reconciler intent.Reconciler
	audit      *audit.Service

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, planner intent.Planner, reconciler intent.Reconciler, auditSvc *audit.Service) *Service {
	return &Service{
		repo:       repo,
		planner:    planner,
		reconciler: reconciler,
		audit:      auditSvc,
		clock:      time.Now,
	}
}

const DefaultListLimit = 100

func (s *Service) Submit(ctx context.Context, actor Actor, text string) (Declaration, error) {
	if actor.Username == "" {
		return Declaration{}, ErrInvalidArgument
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Declaration{}, ErrInvalidArgument
	}

	plan, err := s.planner.Plan(ctx, text)
	if err != nil {
		if errors.Is(err, intent.ErrEmptyDeclaration) {
			return Declaration{}, ErrInvalidArgument
		}
		return Declaration{}, fmt.Errorf("plan declaration: %w", err)
	}

	d := Declaration{
		ID:            uuid.NewString(),
		Text:          text,
		Plan:          plan.Summary,
		Status:        StatusSubmitted,
		SubmittedBy:   actor.Username,
		SubmittedRole: string(actor.Role),
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return Declaration{}, err
	}

	if s.audit != nil {
		if err := s.audit.LogDeclarationSubmitted(ctx, actor.auditActor(), d.ID, d.Plan); err != nil {
			logger.From(ctx).Warn("audit write failed", "err", err, "declaration_id", d.ID)
		}
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]Declaration, error) {
	out, err := s.repo.List(ctx, DefaultListLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Declaration{}
	}
	return out, nil
}

// Commit hands the declaration's plan to the reconciler and marks it committed.
// Only Admin may commit; the HTTP layer also enforces this via rbac.
func (s *Service) Commit(ctx context.Context, actor Actor, id string) (Declaration, error) {
	if id == "" || actor.Username == "" {
		return Declaration{}, ErrInvalidArgument
	}
	if !rbac.CanCommit(actor.Role) {
		return Declaration{}, ErrForbidden
	}

	now := s.clock().UTC()
	d, err := s.repo.Commit(ctx, id, actor.Username, now, func(d Declaration) error {
		return s.reconciler.Reconcile(ctx, intent.Plan{Declaration: d.Text, Summary: d.Plan})
	})
	if err != nil {
		return Declaration{}, err
	}

	if s.audit != nil {
		if err := s.audit.LogDeclarationCommitted(ctx, actor.auditActor(), d.ID, d.Plan); err != nil {
			logger.From(ctx).Warn("audit write failed", "err", err, "declaration_id", d.ID)
		}
	}
	return d, nil
}
