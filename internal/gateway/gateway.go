// ABOUTME: Gateway orchestrator that wires the relay components and HTTP server.
// ABOUTME: Manages stores, remote adapters, and health endpoints lifecycle.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tandemlab/handoff-gateway/internal/auth"
	"github.com/tandemlab/handoff-gateway/internal/config"
	"github.com/tandemlab/handoff-gateway/internal/dedupe"
	"github.com/tandemlab/handoff-gateway/internal/directline"
	"github.com/tandemlab/handoff-gateway/internal/extbot"
	"github.com/tandemlab/handoff-gateway/internal/omnichannel"
	"github.com/tandemlab/handoff-gateway/internal/relay"
	"github.com/tandemlab/handoff-gateway/internal/store"
)

// ChannelName identifies the customer-facing channel in session context
// sent to the agent platform.
const ChannelName = "directline"

// ChannelStarter is what the HTTP layer needs to open new channel sessions.
type ChannelStarter interface {
	StartConversation(ctx context.Context, hint directline.UserHint) (*directline.Session, error)
}

// Gateway orchestrates the relay server components. It owns the in-memory
// stores, the three remote adapters, the router, and the HTTP server.
type Gateway struct {
	config      *config.Config
	transcripts *store.TranscriptStore
	maps        *store.ConversationMapStore
	router      *relay.Router
	channel     ChannelStarter
	dedupe      *dedupe.Cache
	httpServer  *http.Server
	logger      *slog.Logger
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	transcripts := store.NewTranscriptStore()
	maps := store.NewConversationMapStore()

	channel := directline.New(cfg.DirectLine, logger)
	bot := extbot.New(cfg.ExternalBot, logger)
	platform := omnichannel.New(cfg.Omnichannel, logger)

	escalator := relay.NewEscalator(transcripts, maps, platform, channel, ChannelName, logger)
	router := relay.NewRouter(transcripts, maps, bot, channel, escalator, cfg.Omnichannel.ChannelID, logger)

	gw := &Gateway{
		config:      cfg,
		transcripts: transcripts,
		maps:        maps,
		router:      router,
		channel:     channel,
		dedupe:      dedupe.New(5*time.Minute, 100_000), // TTL 5min, max 100k entries
		logger:      logger.With("component", "gateway"),
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.buildMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// buildMux assembles the HTTP routing table.
func (g *Gateway) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints carry no auth.
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)

	g.registerAPIRoutes(mux, g.config, g.logger)
	return mux
}

// registerAPIRoutes registers API routes on the mux, wrapping them with the
// JWT middleware when a secret is configured.
func (g *Gateway) registerAPIRoutes(mux *http.ServeMux, cfg *config.Config, logger *slog.Logger) {
	if cfg.Auth.JWTSecret != "" {
		verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		authMiddleware := auth.HTTPAuthMiddleware(verifier)
		mux.Handle("/api/activities", authMiddleware(http.HandlerFunc(g.handleActivities)))
		mux.Handle("/api/conversations/start", authMiddleware(http.HandlerFunc(g.handleStartConversation)))
		mux.Handle("/api/transcripts/", authMiddleware(http.HandlerFunc(g.handleTranscript)))
		logger.Info("HTTP auth middleware enabled")
	} else {
		mux.HandleFunc("/api/activities", g.handleActivities)
		mux.HandleFunc("/api/conversations/start", g.handleStartConversation)
		mux.HandleFunc("/api/transcripts/", g.handleTranscript)
		logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")
	err := g.httpServer.Shutdown(ctx)
	if g.dedupe != nil {
		g.dedupe.Close()
	}
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK when the downstream endpoints the relay depends
// on are configured. Conversation state is in-memory, so readiness is purely
// a configuration check.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if g.config.ExternalBot.BaseURL == "" || g.config.Omnichannel.OrgURL == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("downstream endpoints not configured"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
