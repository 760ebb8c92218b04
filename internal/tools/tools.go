// Package tools holds the function-call registry the voice agent exposes to
// the remote endpoint: tool definitions (name, description, JSON schema) and
// their implementations. Outcomes are always values; a failed invocation is
// a Result carrying an error payload, never a dropped call.
package tools

import (
    "context"
    "fmt"

    "github.com/google/jsonschema-go/jsonschema"
)

// Conn is the slice of the agent connection a tool may use to push extra
// messages alongside its response. Nil for tools that only return data.
type Conn interface {
    SendJSON(ctx context.Context, v any) error
}

// Invocation is the uniform call context every tool receives.
type Invocation struct {
    Name string
    Args map[string]any
    Conn Conn
}

// Result is a tool outcome. Content becomes the JSON-encoded content of the
// FunctionCallResponse. Inject, when non-empty, is spoken by the agent via an
// InjectAgentMessage sent after the response. EndCall schedules teardown.
type Result struct {
    Content any
    Inject  string
    EndCall bool
}

// ErrorResult wraps a failure message in the wire shape the remote expects.
func ErrorResult(msg string) Result {
    return Result{Content: map[string]any{"error": msg}}
}

type Tool struct {
    Name        string
    Description string
    Parameters  *jsonschema.Schema
    Run         func(ctx context.Context, inv Invocation) (Result, error)
}

// Definition is the schema entry advertised in the Settings handshake.
type Definition struct {
    Name        string             `json:"name"`
    Description string             `json:"description"`
    Parameters  *jsonschema.Schema `json:"parameters"`
}

type Registry struct {
    tools map[string]*Tool
    order []string
}

func NewRegistry(ts ...*Tool) *Registry {
    r := &Registry{tools: make(map[string]*Tool, len(ts))}
    for _, t := range ts {
        if _, dup := r.tools[t.Name]; dup {
            continue
        }
        r.tools[t.Name] = t
        r.order = append(r.order, t.Name)
    }
    return r
}

func (r *Registry) Get(name string) (*Tool, bool) {
    t, ok := r.tools[name]
    return t, ok
}

// Definitions returns tool schemas in registration order.
func (r *Registry) Definitions() []Definition {
    defs := make([]Definition, 0, len(r.order))
    for _, name := range r.order {
        t := r.tools[name]
        defs = append(defs, Definition{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
    }
    return defs
}

// Invoke runs the named tool. Unknown names and tool errors both come back as
// error Results so the dispatcher can answer the pending call either way.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) Result {
    t, ok := r.tools[inv.Name]
    if !ok {
        return ErrorResult(fmt.Sprintf("unknown function: %s", inv.Name))
    }
    res, err := t.Run(ctx, inv)
    if err != nil {
        return ErrorResult(err.Error())
    }
    return res
}

func stringArg(args map[string]any, key, def string) string {
    if v, ok := args[key].(string); ok && v != "" {
        return v
    }
    return def
}

func intArg(args map[string]any, key string, def int) int {
    switch v := args[key].(type) {
    case float64:
        return int(v)
    case int:
        return v
    default:
        return def
    }
}
