package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reshetovitsme/email-telegram-relay/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Collector exposes how many albums are still being gathered.
type Collector interface {
	Pending() int
}

// Relay exposes the delivery counters.
type Relay interface {
	Relayed() int64
	Failed() int64
}

// Server handles HTTP requests for health and relay status
type Server struct {
	cfg       *config.Config
	collector Collector
	relay     Relay
	logger    *slog.Logger
	started   time.Time
}

// New creates a new HTTP server
func New(cfg *config.Config, collector Collector, relay Relay) *Server {
	return &Server{
		cfg:       cfg,
		collector: collector,
		relay:     relay,
		logger:    slog.Default(),
		started:   time.Now(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the handler chain served by Start
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Relay status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Root endpoint with instructions
	mux.HandleFunc("GET /", s.handleRoot)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

type statusResponse struct {
	Status        string `json:"status"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	PendingAlbums int    `json:"pending_albums"`
	Relayed       int64  `json:"relayed"`
	Failed        int64  `json:"failed"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:        "ok",
		Environment:   s.cfg.AppEnv.String(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		PendingAlbums: s.collector.Pending(),
		Relayed:       s.relay.Relayed(),
		Failed:        s.relay.Failed(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Error encoding status response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Email Telegram Relay</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Email Telegram Relay</h1>
    <div class="info">
        <p>This service relays Telegram posts to an email inbox.</p>
        <p>Forward a post to the bot in Telegram and it arrives as an email with the media attached.</p>
        <p>Operational endpoints: <code>/health</code> and <code>/status</code></p>
    </div>
    <p><a href="/health">Health Check</a> | <a href="/status">Status</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
