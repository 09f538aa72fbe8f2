package controlplane

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/cfdpgo/internal/logger"
	"github.com/marmos91/cfdpgo/internal/tracing"
)

// NewRouter builds the cfdpd control-plane HTTP API: transaction submission
// and status polling, MIB inspection, and an unauthenticated health check.
// Mutating routes require a valid operator bearer token; GET routes do not.
func NewRouter(h *Handlers, jwtService *JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceContext)
	r.Use(tracingSpan)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtService.RequireAuth)
			r.Post("/transactions", h.HandleSubmitTransaction)
		})

		r.Get("/transactions/{id}", h.HandleGetTransaction)
		r.Get("/mib/{entityID}", h.HandleGetMIBEntry)
		r.Get("/audit/{id}", h.HandleGetAuditRecord)
	})

	return r
}

// traceContext assigns each request a trace ID so every log line it
// produces, including ones emitted deep inside a handler's call into the
// engine, can be correlated back to this request.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc := logger.NewLogContext("")
		lc.TraceID = uuid.NewString()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), lc)))
	})
}

// tracingSpan opens an OpenTelemetry span for the request, named after its
// route, and closes it once the handler returns.
func tracingSpan(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "controlplane."+r.Method+" "+r.URL.Path,
			trace.WithAttributes(attribute.String("http.method", r.Method), attribute.String("http.path", r.URL.Path)),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.DebugCtx(r.Context(), "control plane request started",
			logger.RequestID(requestID),
			"method", r.Method,
			"path", r.URL.Path,
			logger.RemoteIP(r.RemoteAddr),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.InfoCtx(r.Context(), "control plane request completed",
			logger.RequestID(requestID),
			logger.Route(r.Method+" "+r.URL.Path),
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(logger.Duration(start)),
		)
	})
}
