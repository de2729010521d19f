package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/seoscope/searchconsole-mcp/auth"
	"github.com/seoscope/searchconsole-mcp/internal/jsonrpc"
	"github.com/seoscope/searchconsole-mcp/internal/logctx"
	"github.com/seoscope/searchconsole-mcp/mcp"
)

// Gateway dispatches tools/list and tools/call for resolved sessions.
type Gateway struct {
	provider auth.Provider
	tools    map[string]tool
	catalog  []mcp.Tool
	log      *slog.Logger
}

// New builds a Gateway over the fixed catalog, consulting provider for the
// credential precondition on every call.
func New(provider auth.Provider, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	defs := catalogTools()
	g := &Gateway{
		provider: provider,
		tools:    make(map[string]tool, len(defs)),
		catalog:  make([]mcp.Tool, 0, len(defs)),
		log:      log,
	}
	for _, t := range defs {
		g.tools[t.descriptor.Name] = t
		g.catalog = append(g.catalog, t.descriptor)
	}
	return g
}

// ListTools returns the static catalog. Authentication state never affects
// the result.
func (g *Gateway) ListTools() mcp.ListToolsResult {
	tools := make([]mcp.Tool, len(g.catalog))
	copy(tools, g.catalog)
	return mcp.ListToolsResult{Tools: tools}
}

// CallTool services one tools/call request for the named session. Every
// failure comes back as a *jsonrpc.Error; nothing from the credential or
// backend layers escapes raw.
func (g *Gateway) CallTool(ctx context.Context, sessionID string, req *mcp.CallToolRequestReceived) (res *mcp.CallToolResult, jerr *jsonrpc.Error) {
	ctx = logctx.WithToolName(ctx, req.Name)

	defer func() {
		if r := recover(); r != nil {
			g.log.ErrorContext(ctx, "tool.call.panic", slog.Any("panic", r))
			res = nil
			jerr = jsonrpc.NewError(jsonrpc.ErrorCodeInternalError, "tool handler panic: %v", r)
		}
	}()

	ops, err := g.provider.Resolve(ctx, sessionID)
	if err != nil {
		var authErr *auth.AuthRequiredError
		if errors.As(err, &authErr) {
			g.log.InfoContext(ctx, "tool.call.unauthenticated")
			return nil, jsonrpc.NewError(jsonrpc.ErrorCodeAuthRequired, "%s", authErr.Error())
		}
		g.log.ErrorContext(ctx, "credential.resolve.fail", slog.String("err", err.Error()))
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInternalError, "failed to resolve credential: %v", err)
	}

	t, ok := g.tools[req.Name]
	if !ok {
		g.log.WarnContext(ctx, "tool.call.unknown")
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "unknown tool: %s", req.Name)
	}

	value, err := t.handler(ctx, ops, req.Arguments)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			g.log.WarnContext(ctx, "tool.call.reject", slog.String("err", rpcErr.Message))
			return nil, rpcErr
		}
		g.log.ErrorContext(ctx, "tool.call.fail", slog.String("err", err.Error()))
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInternalError, "tool %s failed: %v", req.Name, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		g.log.ErrorContext(ctx, "tool.result.encode.fail", slog.String("err", err.Error()))
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInternalError, "failed to encode tool result: %v", err)
	}

	g.log.InfoContext(ctx, "tool.call.ok")
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextContent(string(data))}}, nil
}
