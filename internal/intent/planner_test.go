package intent

import (
	"context"
	"errors"
	"testing"
)

func TestStaticPlanner(t *testing.T) {
	p, err := StaticPlanner{}.Plan(context.Background(), "  open the east gate ")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if p.Summary != "Plan for: open the east gate" || p.Declaration != "open the east gate" {
		t.Fatalf("unexpected plan: %+v", p)
	}

	if _, err := (StaticPlanner{}).Plan(context.Background(), " "); !errors.Is(err, ErrEmptyDeclaration) {
		t.Fatalf("expected ErrEmptyDeclaration, got %v", err)
	}
}

func TestLogReconciler(t *testing.T) {
	if err := (LogReconciler{}).Reconcile(context.Background(), Plan{Summary: "Plan for: x"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}
