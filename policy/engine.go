// Package policy gates model-requested tool invocations with OPA.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by Evaluate.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must define data.tool_policy.result as {"decision", "reasons"}.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.result"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input is the document a tool invocation is evaluated against.
type Input struct {
	ToolName string                 `json:"tool_name"`
	Args     map[string]interface{} `json:"args"`
	Caller   Caller                 `json:"caller"`
	NowUnix  int64                  `json:"now_unix"`
}

// Caller identifies the authenticated user driving the conversation.
type Caller struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// Evaluate checks the tool policy.
// Returns: decision (allow, block), reason (joined deny messages), error
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	decision, _ := obj["decision"].(string)
	if decision == "" {
		decision = DecisionAllow
	}

	var reasons []string
	if list, ok := obj["reasons"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				reasons = append(reasons, s)
			}
		}
	}
	return decision, strings.Join(reasons, "; "), nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package tool_policy

default decision = "allow"

patient_scoped = {"book_appointment", "check_patient_availability"}

decision = "block" {
	count(deny) > 0
}

reasons = sort([msg | deny[msg]])

result = {"decision": decision, "reasons": reasons}

deny[msg] {
	patient_scoped[input.tool_name]
	input.caller.role != "patient"
	msg := "only patients can book or check their own schedule"
}

deny[msg] {
	patient_scoped[input.tool_name]
	input.args.patient_id != input.caller.id
	msg := "patient_id must belong to the caller"
}

deny[msg] {
	input.tool_name == "book_appointment"
	input.args.start_unix < input.now_unix
	msg := "appointments cannot be booked in the past"
}
`
