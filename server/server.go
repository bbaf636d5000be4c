// Package server exposes the chat and session API over HTTP. It is thin
// plumbing around the orchestrator and the session store; all conversation
// semantics live behind those two contracts.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/amos-fernandes/lm-council/orchestrator"
	"github.com/amos-fernandes/lm-council/store"
)

// ChatHandler is the slice of the orchestrator the chat endpoint needs.
type ChatHandler interface {
	Handle(ctx context.Context, sessionID, message string) (*orchestrator.Result, error)
}

// Server routes HTTP requests to the session store and the orchestrator.
type Server struct {
	store  store.Store
	chat   ChatHandler
	router *gin.Engine
	addr   string
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

// New creates a Server with routes and CORS middleware registered.
func New(cfg *Config, s store.Store, chat ChatHandler) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	srv := &Server{
		store:  s,
		chat:   chat,
		router: router,
		addr:   cfg.Addr,
	}

	router.GET("/sessions", srv.listSessions)
	router.POST("/sessions", srv.createSession)
	router.GET("/sessions/:session_id", srv.getSession)
	router.POST("/chat", srv.handleChat)

	return srv
}

// Router exposes the gin engine for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) listSessions(c *gin.Context) {
	summaries, err := s.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) createSession(c *gin.Context) {
	id, err := s.store.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) getSession(c *gin.Context) {
	id := c.Param("session_id")

	history, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, store.Session{History: history})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := s.chat.Handle(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": result.Responses,
		"history":   result.History,
	})
}
