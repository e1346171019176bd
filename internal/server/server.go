// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"advisor/internal/usecase"
)

// Chatter is the pipeline surface the server depends on.
type Chatter interface {
	Chat(ctx context.Context, sessionID, question string) (string, error)
}

// Server handles the chat HTTP API.
type Server struct {
	chat   Chatter
	logger *slog.Logger
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func New(chat Chatter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{chat: chat, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.POST("/chat", s.handleChat)
	router.GET("/healthz", s.handleHealth)

	return router
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "message and session_id are required"})
		return
	}

	requestID := uuid.NewString()
	start := time.Now()

	answer, err := s.chat.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		status, detail := mapError(err)
		s.logger.Error("chat request failed",
			"request_id", requestID,
			"session_id", req.SessionID,
			"status", status,
			"error", err,
		)
		c.JSON(status, errorResponse{Detail: detail})
		return
	}

	s.logger.Info("chat request served",
		"request_id", requestID,
		"session_id", req.SessionID,
		"duration", time.Since(start),
	)
	c.JSON(http.StatusOK, chatResponse{Response: answer})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mapError converts pipeline errors to an HTTP status and a short detail
// string. Internal error text never reaches the caller.
func mapError(err error) (int, string) {
	var uerr *usecase.Error
	if errors.As(err, &uerr) {
		switch uerr.Code {
		case usecase.ErrorInvalidInput:
			return http.StatusBadRequest, "invalid request"
		case usecase.ErrorHistory:
			return http.StatusInternalServerError, "conversation history unavailable"
		case usecase.ErrorRetrieval:
			return http.StatusInternalServerError, "retrieval failed"
		case usecase.ErrorGeneration:
			return http.StatusInternalServerError, "answer generation failed"
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
