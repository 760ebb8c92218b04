package tools

import (
    "context"
    "math"
    "strings"

    "github.com/google/jsonschema-go/jsonschema"

    "voicebridge/agent/internal/retrieval"
)

// Retriever is the ranked-passage lookup used by retrieve_context.
type Retriever interface {
    Retrieve(ctx context.Context, query string, k int) []retrieval.Hit
}

// Builtin returns the standard tool set backed by the given retriever.
func Builtin(r Retriever) []*Tool {
    return []*Tool{RetrieveContext(r), AgentFiller(), EndCall()}
}

func RetrieveContext(r Retriever) *Tool {
    return &Tool{
        Name:        "retrieve_context",
        Description: "Fetch the most relevant passages from the document collection. MUST be called before answering any user question.",
        Parameters: &jsonschema.Schema{
            Type: "object",
            Properties: map[string]*jsonschema.Schema{
                "query": {Type: "string", Description: "User's question"},
                "k":     {Type: "number", Description: "Top-k passages (default 5)"},
            },
            Required: []string{"query"},
        },
        Run: func(ctx context.Context, inv Invocation) (Result, error) {
            query := stringArg(inv.Args, "query", "")
            if strings.TrimSpace(query) == "" {
                return Result{Content: map[string]any{"error": "query is required"}}, nil
            }
            k := intArg(inv.Args, "k", 5)
            hits := r.Retrieve(ctx, query, k)
            results := make([]map[string]any, 0, len(hits))
            for _, h := range hits {
                if h.Score <= 0 {
                    continue
                }
                results = append(results, map[string]any{
                    "chunk_id": h.Chunk.ID,
                    "score":    round4(h.Score),
                    "text":     h.Chunk.Text,
                })
            }
            return Result{Content: map[string]any{"query": query, "results": results}}, nil
        },
    }
}

func AgentFiller() *Tool {
    return &Tool{
        Name:        "agent_filler",
        Description: "Use before looking up info to provide brief filler.",
        Parameters: &jsonschema.Schema{
            Type: "object",
            Properties: map[string]*jsonschema.Schema{
                "message_type": {Type: "string", Enum: []any{"lookup", "general"}},
            },
            Required: []string{"message_type"},
        },
        Run: func(ctx context.Context, inv Invocation) (Result, error) {
            msgType := stringArg(inv.Args, "message_type", "lookup")
            inject := "One moment..."
            if msgType == "lookup" {
                inject = "Let me pull that from the document..."
            }
            return Result{
                Content: map[string]any{"status": "queued", "message_type": msgType},
                Inject:  inject,
            }, nil
        },
    }
}

func EndCall() *Tool {
    return &Tool{
        Name:        "end_call",
        Description: "End conversation and close connection.",
        Parameters: &jsonschema.Schema{
            Type: "object",
            Properties: map[string]*jsonschema.Schema{
                "farewell_type": {Type: "string", Enum: []any{"thanks", "general", "help"}},
            },
            Required: []string{"farewell_type"},
        },
        Run: func(ctx context.Context, inv Invocation) (Result, error) {
            text := "Goodbye!"
            if stringArg(inv.Args, "farewell_type", "general") == "thanks" {
                text = "Thanks! Bye."
            }
            return Result{
                Content: map[string]any{"status": "closing", "message": text},
                Inject:  text,
                EndCall: true,
            }, nil
        },
    }
}

func round4(f float64) float64 {
    return math.Round(f*10000) / 10000
}
