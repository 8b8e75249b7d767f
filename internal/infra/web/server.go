// File: internal/infra/web/server.go
package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/usecase"
)

// SignalParser verifies a webhook envelope and maps it to a lifecycle signal.
type SignalParser interface {
	VerifyAndParse(payload []byte, sigHeader string) (*model.Signal, error)
}

type Server struct {
	parser     SignalParser
	reconciler usecase.ReconcileUseCase
	checkoutUC usecase.CheckoutUseCase
	connectUC  usecase.ConnectUseCase
	statsUC    usecase.StatsUseCase
	apiKey     string
	log        *zerolog.Logger
}

func NewServer(
	parser SignalParser,
	reconciler usecase.ReconcileUseCase,
	checkoutUC usecase.CheckoutUseCase,
	connectUC usecase.ConnectUseCase,
	statsUC usecase.StatsUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		parser:     parser,
		reconciler: reconciler,
		checkoutUC: checkoutUC,
		connectUC:  connectUC,
		statsUC:    statsUC,
		apiKey:     apiKey,
		log:        logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/webhook", webhookHandler(s.parser, s.reconciler, s.log))
	r.Post("/checkout", checkoutHandler(s.checkoutUC))

	r.Route("/connect", func(r chi.Router) {
		r.Post("/onboard", connectOnboardHandler(s.connectUC))
		r.Get("/refresh", connectRefreshHandler(s.connectUC))
		r.Get("/complete", connectCompleteHandler(s.connectUC))
		r.Get("/status/{orgID}", connectStatusHandler(s.connectUC))
	})

	r.Get("/success", pageHandler(successPage))
	r.Get("/cancel", pageHandler(cancelPage))
	r.Get("/health", healthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/admin/stats", statsHandler(s.statsUC))
	})
	return r
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
