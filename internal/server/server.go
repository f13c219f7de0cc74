// Package server exposes the HTTP surface: the provider webhook, flow and
// channel provisioning, session inspection, health, and the WebSocket
// session event feed.
package server

import (
	"log/slog"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/convoflow/engine/internal/engine"
	"github.com/convoflow/engine/internal/events"
)

// Server implements the HTTP API server for the flow session engine
type Server struct {
	engine      *engine.Engine
	feed        *events.Feed
	verifyToken string
	sockets     map[*Client]struct{}
	mu          sync.Mutex
}

// NewServer creates a new HTTP API server
func NewServer(eng *engine.Engine, feed *events.Feed, verifyToken string) *Server {
	return &Server{
		engine:      eng,
		feed:        feed,
		verifyToken: verifyToken,
		sockets:     map[*Client]struct{}{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// Health check
	router.GET("/health", s.handleHealth)

	// Provider webhook
	router.GET("/webhook", s.handleWebhookVerify)
	router.POST("/webhook", s.handleWebhookMessage)

	// Engine endpoints
	eng := router.Group("/engine")
	{
		// Flow provisioning
		eng.GET("/flow", s.listFlows)
		eng.POST("/flow", s.registerFlow)
		eng.GET("/flow/:flowID", s.getFlow)

		// Channel & user provisioning
		eng.POST("/channel", s.registerChannel)
		eng.POST("/user", s.registerUser)

		// Session inspection
		eng.GET("/session/:address", s.getSession)

		// WebSocket event feed
		eng.GET("/ws", s.handleWebSocket)
	}

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[c] = struct{}{}
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
