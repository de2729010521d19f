// Package streaminghttp bridges the tool gateway to the SSE flavor of the MCP
// transport: one long-lived event stream per session plus an out-of-band
// message post path correlated by session identifier. It also hosts the OAuth
// consent endpoints and the status page.
package streaminghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/seoscope/searchconsole-mcp/auth"
	"github.com/seoscope/searchconsole-mcp/gateway"
	"github.com/seoscope/searchconsole-mcp/internal/jsonrpc"
	"github.com/seoscope/searchconsole-mcp/internal/logctx"
	"github.com/seoscope/searchconsole-mcp/mcp"
	"github.com/seoscope/searchconsole-mcp/sessions"
)

var _ http.Handler = (*Handler)(nil)

var (
	jsonMediaType         = contenttype.NewMediaType("application/json")
	eventStreamMediaType  = contenttype.NewMediaType("text/event-stream")
	eventStreamMediaTypes = []contenttype.MediaType{eventStreamMediaType}
)

const maxMessageBytes = 1 << 20

// writeJSONError emits a minimal JSON body for transport-level rejections
// that happen before a JSON-RPC exchange is possible.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the slog logger. If not provided, slog.Default is used.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithServerInfo overrides the implementation info reported on initialize.
func WithServerInfo(info mcp.ImplementationInfo) Option {
	return func(h *Handler) { h.serverInfo = info }
}

// authStateReporter is implemented by providers that can report process-wide
// authentication state for the status page.
type authStateReporter interface {
	Authenticated() bool
}

// Handler serves the push channel, the message post path, and the OAuth
// endpoints.
type Handler struct {
	registry *sessions.Registry
	gateway  *gateway.Gateway
	provider auth.Provider

	serverInfo mcp.ImplementationInfo
	log        *slog.Logger
	mux        *http.ServeMux
}

// New wires the handler. All dependencies are injected; the handler holds no
// session state of its own.
func New(registry *sessions.Registry, gw *gateway.Gateway, provider auth.Provider, opts ...Option) *Handler {
	h := &Handler{
		registry:   registry,
		gateway:    gw,
		provider:   provider,
		serverInfo: mcp.ImplementationInfo{Name: "searchconsole-mcp", Version: "dev"},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", h.handleStream)
	mux.HandleFunc("POST /messages", h.handleMessage)
	mux.HandleFunc("GET /oauth2callback", h.handleOAuthCallback)
	mux.HandleFunc("GET /auth", h.handleAuthRedirect)
	mux.HandleFunc("GET /{$}", h.handleStatus)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleStream allocates a session and holds its SSE stream open. The first
// event names the post path the client must use; closing the stream is the
// sole cancellation signal and removes the session.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if _, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes); err != nil {
		writeJSONError(w, http.StatusNotAcceptable, "accept header must allow text/event-stream")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sess := h.registry.Create()
	defer h.registry.Remove(sess.ID())

	ctx := logctx.WithSessionID(r.Context(), sess.ID())
	start := time.Now()

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The endpoint event tells the client where to post messages for this
	// session.
	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.ID())
	flusher.Flush()

	h.log.InfoContext(ctx, "sse.stream.start")

	for {
		select {
		case <-ctx.Done():
			h.log.InfoContext(ctx, "sse.stream.end", slog.Duration("dur", time.Since(start)))
			return
		case <-sess.Done():
			h.log.InfoContext(ctx, "sse.stream.evicted", slog.Duration("dur", time.Since(start)))
			return
		case frame := <-sess.Frames():
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				h.log.ErrorContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

// handleMessage accepts one inbound JSON-RPC message for the session named in
// the query string. Responses are delivered over the session's stream; the
// post itself is acknowledged with 202.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing sessionId query parameter")
		return
	}
	sess, ok := h.registry.Get(sessionID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown session")
		return
	}
	sess.Touch()

	ctx := logctx.WithSessionID(r.Context(), sessionID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	req, err := jsonrpc.DecodeRequest(body)
	if err != nil {
		h.log.WarnContext(ctx, "jsonrpc.decode.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String()})

	resp := h.dispatch(ctx, sessionID, req)
	if resp == nil {
		// Notification: nothing to deliver.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	frame, err := json.Marshal(resp)
	if err != nil {
		h.log.ErrorContext(ctx, "jsonrpc.encode.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	if err := sess.Send(ctx, frame); err != nil {
		h.log.WarnContext(ctx, "session.send.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusNotFound, "session closed")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// dispatch routes one decoded request to the gateway. A nil return means no
// response is owed (notification).
func (h *Handler) dispatch(ctx context.Context, sessionID string, req *jsonrpc.Request) *jsonrpc.Response {
	if req.IsNotification() {
		if mcp.Method(req.Method) == mcp.InitializedNotificationMethod {
			h.log.InfoContext(ctx, "session.initialized")
		}
		return nil
	}

	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		return h.resultResponse(ctx, req.ID, mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged"`
				}{},
			},
			ServerInfo: h.serverInfo,
		})

	case mcp.PingMethod:
		return h.resultResponse(ctx, req.ID, struct{}{})

	case mcp.ToolsListMethod:
		return h.resultResponse(ctx, req.ID, h.gateway.ListTools())

	case mcp.ToolsCallMethod:
		var callReq mcp.CallToolRequestReceived
		if err := json.Unmarshal(req.Params, &callReq); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err), nil)
		}
		res, jerr := h.gateway.CallTool(ctx, sessionID, &callReq)
		if jerr != nil {
			return jsonrpc.NewErrorResponse(req.ID, jerr.Code, jerr.Message, jerr.Data)
		}
		return h.resultResponse(ctx, req.ID, res)

	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

func (h *Handler) resultResponse(ctx context.Context, id *jsonrpc.RequestID, result any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(id, result)
	if err != nil {
		h.log.ErrorContext(ctx, "jsonrpc.result.encode.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "failed to encode result", nil)
	}
	return resp
}

// handleOAuthCallback completes the consent flow. state carries the session
// identifier in per-session credential mode.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	ctx := r.Context()
	if state != "" {
		ctx = logctx.WithSessionID(ctx, state)
	}

	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	if err := h.provider.CompleteExchange(ctx, code, state); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.log.WarnContext(ctx, "oauth.callback.session_gone")
			http.Error(w, "Session expired. Reconnect and start the authorization flow again.", http.StatusNotFound)
			return
		}
		h.log.ErrorContext(ctx, "oauth.callback.fail", slog.String("err", err.Error()))
		http.Error(w, "Authentication failed. Please try again.", http.StatusInternalServerError)
		return
	}

	h.log.InfoContext(ctx, "oauth.callback.ok")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You can close this window and return to your client.</p></body></html>")
}

// handleAuthRedirect bounces the human to the consent URL. Per-session mode
// requires a sessionId parameter to correlate the callback.
func (h *Handler) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	url, err := h.provider.AuthorizationURL(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleStatus renders a small HTML status fragment. Shared-credential
// deployments also report authentication state.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><h1>%s</h1><p>Server is running. Connect via <code>/sse</code>.</p>", h.serverInfo.Name)
	if reporter, ok := h.provider.(authStateReporter); ok {
		if reporter.Authenticated() {
			fmt.Fprint(w, "<p>Status: authenticated.</p>")
		} else {
			fmt.Fprint(w, `<p>Status: not authenticated. <a href="/auth">Authorize access</a>.</p>`)
		}
	}
	fmt.Fprintf(w, "<p>Active sessions: %d</p></body></html>", h.registry.Len())
}
