package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// Decision is the generation policy for one route.
type Decision struct {
	// WindowSize is how many prior messages are sent to the backend.
	WindowSize int
	// PersistOnFailure keeps the user turn when the backend call fails.
	PersistOnFailure bool
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.generation_policy"),
		rego.Module("generation_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the decision for route. Missing rules fall back to zero values.
func (e *Engine) Evaluate(ctx context.Context, route domain.Route) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"route": string(route),
	}))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	var d Decision
	if v, ok := doc["window_size"]; ok {
		n, err := toInt(v)
		if err != nil {
			return Decision{}, fmt.Errorf("window_size: %w", err)
		}
		if n > 0 {
			d.WindowSize = n
		}
	}
	if v, ok := doc["persist_on_failure"].(bool); ok {
		d.PersistOnFailure = v
	}
	return d, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package generation_policy

default window_size = 0

window_size = 6 {
	input.route == "TEXT_ONLY"
}

window_size = 8 {
	input.route == "TEXT_AND_IMAGE"
}

# Failed generations leave the session untouched.
default persist_on_failure = false
`
