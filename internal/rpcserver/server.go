// Package rpcserver is the thin SSE transport in front of internal/rpctools
// (§6.2). Session framing and JSON-RPC envelope details are kept minimal
// here deliberately — nothing under pkg/ imports this package, so the
// reconciliation engine stays transport-agnostic.
package rpcserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"reconciled/internal/rpctools"
)

const serviceVersion = "1.0.0"

// Server wires the gin engine to a tool registry.
type Server struct {
	engine   *gin.Engine
	registry map[string]rpctools.Handler
	log      *slog.Logger

	mu   sync.Mutex
	subs map[chan sseEvent]struct{}
}

type sseEvent struct {
	event string
	data  any
}

// New builds a Server from the tool registry and logger; the caller
// owns starting the HTTP listener via Run.
func New(registry map[string]rpctools.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:   gin.New(),
		registry: registry,
		log:      log,
		subs:     make(map[chan sseEvent]struct{}),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/events", s.handleEvents)
	s.engine.POST("/messages", s.handleMessages)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": "reconciliation-rpc-server",
		"version": serviceVersion,
	})
}

// handleEvents is the long-lived SSE leg: every tool-call response
// dispatched by handleMessages is broadcast here, mirroring
// mcp_sse_server.py's separate /sse and /messages/ routes.
func (s *Server) handleEvents(c *gin.Context) {
	ch := make(chan sseEvent, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		close(ch)
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.event, ev.data)
			return true
		case <-c.Request.Context().Done():
			return false
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", gin.H{"ts": time.Now().UTC().Format(time.RFC3339)})
			return true
		}
	})
}

type rpcEnvelope struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleMessages is the client-to-server duplex leg: decode a tool call,
// dispatch it, return the result inline, and also fan it out to any
// live /events subscribers.
func (s *Server) handleMessages(c *gin.Context) {
	var env rpcEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	result, err := rpctools.Dispatch(s.registry, env.ToolName, env.Arguments)
	if err != nil {
		s.log.Warn("tool call failed", "tool", env.ToolName, "error", err)
		c.JSON(200, gin.H{"error": err.Error()})
		s.broadcast(env.ToolName, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, result)
	s.broadcast(env.ToolName, result)
}

func (s *Server) broadcast(toolName string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- sseEvent{event: toolName, data: payload}:
		default:
			// slow subscriber; drop rather than block the request path.
		}
	}
}

// Run starts the HTTP listener on addr, blocking until it exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
