package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bakery-chat/internal/assistant"
	"bakery-chat/internal/metrics"
	"bakery-chat/internal/relay"
	"bakery-chat/internal/repo"
	"bakery-chat/internal/store"
)

// Assistant runs chat turns and conversation analysis.
type Assistant interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
	Analyze(ctx context.Context, conversationID string) (*assistant.AnalyzeResult, error)
}

// Store is the part of the Conversation Store exposed over HTTP.
type Store interface {
	CreateConversation(ctx context.Context) (*repo.Conversation, error)
	GetConversationWithUserInfo(ctx context.Context, id string) (*store.ConversationWithUserInfo, error)
	GetAllConversations(ctx context.Context) ([]repo.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SaveUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error)
	SaveOrUpdateUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error)
	GetUserInfo(ctx context.Context, id string) (*repo.UserInfo, error)
	CreateOrder(ctx context.Context, order repo.Order) (*repo.Order, error)
	GetOrder(ctx context.Context, orderID string) (*repo.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*repo.Order, error)
	GetAllOrders(ctx context.Context) ([]repo.Order, error)
	GetStatistics(ctx context.Context) (*store.Statistics, error)
	Now() time.Time
	Timestamp() string
}

// Relay forwards conversation data to the automation webhook.
type Relay interface {
	Forward(ctx context.Context, data any) (*relay.Result, error)
}

// Pinger reports datastore health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EnvStatus reports which credentials are configured, without their values.
type EnvStatus struct {
	HasOpenAI      bool `json:"HAS_OPENAI"`
	HasDatastore   bool `json:"HAS_SUPABASE"`
	HasDatastoreID bool `json:"HAS_SUPABASE_KEY"`
}

// Dependencies are the collaborators behind the routes.
type Dependencies struct {
	Assistant Assistant
	Store     Store
	Relay     Relay
	Health    Pinger
	Env       EnvStatus
}

// Server wraps an http.Server with the chat widget routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
	basePath   string
}

// New creates a new HTTP server listening on addr. All routes live under
// basePath when one is given.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, deps Dependencies, basePath string) *Server {
	server := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		deps:     deps,
		basePath: normaliseBasePath(basePath),
	}

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if server.basePath != "" {
		server.logger.Info("http server configured with base path", "base_path", server.basePath)
	}
	return server
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	api := chi.NewRouter()
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	api.MethodNotAllowed(methodNotAllowed)

	api.Get("/healthz", s.handleHealth)
	api.Handle("/metrics", promhttp.Handler())

	api.Post("/chat", s.handleChat)
	api.Post("/analyze", s.handleAnalyze)
	api.Route("/conversation", func(r chi.Router) {
		r.Get("/", s.handleListConversations)
		r.Post("/", s.handleCreateConversation)
		r.Put("/", s.handleUpdateConversationUser)
		r.Delete("/", s.handleDeleteConversation)
	})
	api.Route("/menu", func(r chi.Router) {
		r.Get("/", s.handleMenu)
		r.Post("/", s.handleCreateOrder)
	})
	api.Route("/orders", func(r chi.Router) {
		r.Get("/", s.handleListOrders)
		r.Post("/", s.handleCreateOrder)
		r.Put("/", s.handleUpdateOrder)
	})
	api.Get("/user-info", s.handleUserInfo)
	api.Post("/webhook", s.handleWebhook)
	api.Get("/stats", s.handleStats)
	api.HandleFunc("/debug", s.handleDebug)

	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.RealIP)
	root.Use(s.requestLogger)
	root.Use(middleware.Recoverer)
	root.Use(cors)
	root.NotFound(api.NotFoundHandler())
	root.MethodNotAllowed(methodNotAllowed)

	if s.basePath == "" {
		root.Mount("/", api)
	} else {
		root.Mount(s.basePath, api)
	}
	return root
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
