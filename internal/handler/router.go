package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/prn-tf/warden/internal/metrics"
	"github.com/prn-tf/warden/internal/repository"
)

// DefaultMaxBodySize caps request bodies; credentials payloads are tiny.
const DefaultMaxBodySize int64 = 64 << 10

// Router handles HTTP routing for the account API.
type Router struct {
	accountHandler *AccountHandler
	database       repository.DatabaseHealth
	metrics        *metrics.Metrics
	maxBodySize    int64
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AccountHandler *AccountHandler
	Database       repository.DatabaseHealth
	Metrics        *metrics.Metrics
	MaxBodySize    int64
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	return &Router{
		accountHandler: config.AccountHandler,
		database:       config.Database,
		metrics:        config.Metrics,
		maxBodySize:    maxBody,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secureMiddleware.Handler)
	// observe wraps recoverer so a recovered panic is logged and counted as a 500.
	r.Use(rt.observe)
	r.Use(rt.recoverer)
	r.Use(rt.limitBody)

	r.Get("/health", rt.handleHealth)
	if rt.accountHandler != nil {
		rt.accountHandler.RegisterRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// handleHealth reports whether the backing store answers a ping.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.database.Ping(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, Response{Status: "unhealthy", Message: "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, Response{Status: "healthy", Message: "ok"})
}

// recoverer turns a handler panic into a 500 with the standard body.
func (rt *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				rt.logger.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("handler panicked")
				writeFailure(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// observe logs each request and records its metrics under the matched route pattern.
func (rt *Router) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)

		rt.metrics.RecordHTTP(route, status, elapsed)

		event := rt.logger.Info()
		if status >= http.StatusInternalServerError {
			event = rt.logger.Error()
		}
		// Request bodies carry passwords and are never logged.
		event.
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("remote_addr", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (rt *Router) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodySize)
		next.ServeHTTP(w, r)
	})
}
