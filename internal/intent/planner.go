package intent

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyDeclaration = errors.New("intent: declaration text required")

// Plan is the parsed form of a declaration that a reconciler acts upon.
type Plan struct {
	Declaration string `json:"declaration"`
	Summary     string `json:"summary"`
}

// Planner turns free-text declarations into plans.
type Planner interface {
	Plan(ctx context.Context, text string) (Plan, error)
}

// StaticPlanner echoes the declaration back as its own plan.
// It stands in until a real intent parser is wired in.
type StaticPlanner struct{}

func (StaticPlanner) Plan(_ context.Context, text string) (Plan, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Plan{}, ErrEmptyDeclaration
	}
	return Plan{Declaration: text, Summary: "Plan for: " + text}, nil
}
