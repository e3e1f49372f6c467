package intent

import (
	"context"
	"log/slog"

	"declaration-platform/pkg/logger"
)

// Reconciler applies a committed plan to the world.
type Reconciler interface {
	Reconcile(ctx context.Context, p Plan) error
}

// LogReconciler records the plan and does nothing else.
type LogReconciler struct {
	Logger *slog.Logger
}

func (r LogReconciler) Reconcile(ctx context.Context, p Plan) error {
	l := r.Logger
	if l == nil {
		l = logger.From(ctx)
	}
	l.Info("reconcile requested", "summary", p.Summary)
	return nil
}
