package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/oppie/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService      driving.AuthService
	quizService      driving.QuizService
	flashcardService driving.FlashcardService
	domainService    driving.DomainStatsService
	fileService      driving.FileService

	// Infrastructure
	store Pinger // storage health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	quizService driving.QuizService,
	flashcardService driving.FlashcardService,
	domainService driving.DomainStatsService,
	fileService driving.FileService,
	store Pinger, // can be nil
) *Server {
	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		authService:      authService,
		quizService:      quizService,
		flashcardService: flashcardService,
		domainService:    domainService,
		fileService:      fileService,
		store:            store,
	}

	handler := NewRecoveryMiddleware().Handler(
		NewLoggingMiddleware().Handler(s.router))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Auth endpoints (authenticated)
	s.router.Handle("POST /api/v1/auth/logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))
	s.router.Handle("GET /api/v1/me",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetMe)))

	// Document endpoints (authenticated)
	s.router.Handle("GET /api/v1/files",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListFiles)))

	// Quiz endpoints (authenticated)
	s.router.Handle("POST /api/v1/quiz/start",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuizStart)))
	s.router.Handle("POST /api/v1/quiz/{id}/continue",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuizContinue)))
	s.router.Handle("GET /api/v1/quiz/{id}/questions/{index}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuizQuestion)))
	s.router.Handle("GET /api/v1/quiz/{id}/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuizStatus)))
	s.router.Handle("GET /api/v1/quiz/sessions",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuizSessions)))

	// Flashcard endpoints (authenticated)
	s.router.Handle("GET /api/v1/flashcards",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetFlashcards)))
	s.router.Handle("POST /api/v1/flashcards",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleFlashcardAction)))

	// Domain score endpoints (authenticated)
	s.router.Handle("GET /api/v1/domains/stats",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDomainStats)))
	s.router.Handle("POST /api/v1/domains/score",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleTrackScore)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
