package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/StakeBot_Go/internal/account"
	"github.com/osse101/StakeBot_Go/internal/audit"
	"github.com/osse101/StakeBot_Go/internal/bets"
	"github.com/osse101/StakeBot_Go/internal/database"
	"github.com/osse101/StakeBot_Go/internal/handler"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/metrics"
	"github.com/osse101/StakeBot_Go/internal/notification"
	"github.com/osse101/StakeBot_Go/internal/session"
)

// Server wires the HTTP surface over the wagering services
type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer creates a new Server instance
func NewServer(
	port int,
	apiKey string,
	dbPool database.Pool,
	accountService account.Service,
	betsService bets.Service,
	auditService audit.Service,
	notificationService notification.Service,
	sessionService session.Service,
) *Server {
	r := chi.NewRouter()

	// Chi middleware executes in the order defined, outermost first
	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)
	r.Use(SessionMiddleware(sessionService))

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	userHandler := handler.NewUserHandler(accountService, auditService)
	gameHandler := handler.NewGameHandler(betsService)
	betHandler := handler.NewBetHandler(betsService, auditService)
	stakeHandler := handler.NewStakeHandler(betsService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.HandleRegister)
			r.Get("/", userHandler.HandleListUsers)
			r.Get("/by-slug", userHandler.HandleGetUserBySlug)
			r.Post("/gift", userHandler.HandleGift)
			r.Post("/bankrupt", userHandler.HandleBankrupt)
			r.Get("/{userID}", userHandler.HandleGetUser)
			r.Get("/{userID}/audit", userHandler.HandleGetUserAudit)
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", gameHandler.HandleCreateGame)
			r.Get("/", gameHandler.HandleListGames)
			r.Get("/{gameID}", gameHandler.HandleGetGame)
			r.Put("/{gameID}", gameHandler.HandleUpdateGame)
			r.Post("/{gameID}/lock-moments", gameHandler.HandleAddLockMoment)
			r.Get("/{gameID}/lock-moments", gameHandler.HandleListLockMoments)
			r.Get("/{gameID}/bets", betHandler.HandleListBets)
		})

		r.Post("/lock-moments/{momentID}/lock", gameHandler.HandleLockAtMoment)

		r.Route("/bets", func(r chi.Router) {
			r.Post("/", betHandler.HandleCreateBet)
			r.Get("/{betID}", betHandler.HandleGetBet)
			r.Get("/{betID}/audit", betHandler.HandleGetBetAudit)
			r.Post("/{betID}/options", betHandler.HandleAddOption)
			r.Put("/{betID}/options/{optionID}", betHandler.HandleRenameOption)
			r.Delete("/{betID}/options/{optionID}", betHandler.HandleRemoveOption)
			r.Post("/{betID}/lock", betHandler.HandleLock)
			r.Post("/{betID}/unlock", betHandler.HandleUnlock)
			r.Post("/{betID}/complete", betHandler.HandleComplete)
			r.Post("/{betID}/revert-complete", betHandler.HandleRevertComplete)
			r.Post("/{betID}/cancel", betHandler.HandleCancel)
			r.Post("/{betID}/revert-cancel", betHandler.HandleRevertCancel)

			r.Route("/{betID}/options/{optionID}/stake", func(r chi.Router) {
				r.Post("/", stakeHandler.HandlePlaceStake)
				r.Put("/", stakeHandler.HandleChangeStake)
				r.Delete("/", stakeHandler.HandleWithdrawStake)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.HandleList)
			r.Post("/read", notificationHandler.HandleMarkAllRead)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Health and metrics endpoints are noise at info level
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderSessionProof) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
