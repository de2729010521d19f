// Package logctx enriches slog records with request-scoped attributes carried
// on the context: the session, the JSON-RPC message, and the tool being
// invoked.
package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates an slog.Handler with context-derived attribute groups.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		r.AddAttrs(slog.Group("sess", slog.String("id", id)))
	}

	if msg, ok := ctx.Value(rpcMsgKey{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
		))
	}

	if name, ok := ctx.Value(toolNameKey{}).(string); ok {
		r.AddAttrs(slog.Group("tool", slog.String("name", name)))
	}

	return h.Handler.Handle(ctx, r)
}

type sessionIDKey struct{}

// WithSessionID stamps the session identifier onto the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

type rpcMsgKey struct{}

// RPCMessage identifies the inbound JSON-RPC message being serviced.
type RPCMessage struct {
	Method string
	ID     string
}

// WithRPCMessage stamps the JSON-RPC message metadata onto the context.
func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsgKey{}, msg)
}

type toolNameKey struct{}

// WithToolName stamps the tool name onto the context.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}
