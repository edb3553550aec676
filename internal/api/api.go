// Package api provides the HTTP surface of ReviewPipe.
//
// It exposes the Twilio inbound webhook and the review listing endpoints,
// and glues together signature verification, the conversation store, the
// dialogue state machine, and the review store per inbound request.
package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/reviewpipe/ReviewPipe/internal/conversation"
	"github.com/reviewpipe/ReviewPipe/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// SignatureVerifier authenticates an inbound webhook request. Implemented by
// twiliowhatsapp.Verifier; tests substitute stubs.
type SignatureVerifier interface {
	Verify(rawURL string, form url.Values, signature string) bool
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server handles inbound webhook events and review listing requests.
type Server struct {
	addr     string
	st       store.Store
	convs    *conversation.Manager
	verifier SignatureVerifier
}

// NewServer creates a Server wired to the given store, conversation manager,
// and signature verifier.
func NewServer(st store.Store, convs *conversation.Manager, verifier SignatureVerifier, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{addr: addr, st: st, convs: convs, verifier: verifier}
}

// Handler returns the routed handler with CORS applied. The webhook is
// reachable both bare and under the /twilio prefix; the listing has a
// /twilio alias plus the stable /api/reviews contract.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/twilio/webhook", s.webhookHandler)
	mux.HandleFunc("/reviews", s.reviewsHandler)
	mux.HandleFunc("/twilio/reviews", s.reviewsHandler)
	mux.HandleFunc("/api/reviews", s.reviewsHandler)
	return corsMiddleware(mux)
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	slog.Info("Server.Run: ReviewPipe API listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// corsMiddleware allows cross-origin reads from the review dashboard.
// All origins are allowed, matching the open listing endpoints.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
