package gateway

import (
	"context"
	"encoding/json"

	"github.com/seoscope/searchconsole-mcp/internal/jsonrpc"
	"github.com/seoscope/searchconsole-mcp/mcp"
	"github.com/seoscope/searchconsole-mcp/searchconsole"
)

// tool pairs a descriptor with the handler that services it. Catalog and
// dispatch table are built from the same tool values so they cannot drift.
type tool struct {
	descriptor mcp.Tool
	handler    func(ctx context.Context, ops searchconsole.Operations, raw json.RawMessage) (any, error)
}

// newTool reflects the input schema from the typed argument struct A and
// wraps fn with the argument decode step. Decoding is permissive about
// unknown fields but rejects missing required arguments and type mismatches
// before fn runs.
func newTool[A any](name, description string, fn func(ctx context.Context, ops searchconsole.Operations, args A) (any, error)) tool {
	schema := reflectInputSchema[A]()
	return tool{
		descriptor: mcp.Tool{
			Name:        name,
			Description: description,
			InputSchema: schema,
		},
		handler: func(ctx context.Context, ops searchconsole.Operations, raw json.RawMessage) (any, error) {
			args, jerr := decodeArgs[A](raw, schema.Required)
			if jerr != nil {
				return nil, jerr
			}
			return fn(ctx, ops, *args)
		},
	}
}

// decodeArgs unmarshals the open-ended argument mapping into A and verifies
// the schema's required fields are present and non-null. Optional fields keep
// their zero values; handlers apply defaults after decode.
func decodeArgs[A any](raw json.RawMessage, required []string) (*A, *jsonrpc.Error) {
	var a A
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "invalid arguments: %v", err)
		}
	}
	if len(required) > 0 {
		var present map[string]json.RawMessage
		if len(raw) > 0 {
			// Already known to be valid JSON; a non-object would have failed
			// the typed unmarshal above.
			_ = json.Unmarshal(raw, &present)
		}
		for _, name := range required {
			v, ok := present[name]
			if !ok || string(v) == "null" {
				return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "missing required argument %q", name)
			}
		}
	}
	return &a, nil
}
