package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the router.
type Options struct {
	// CORSOrigins lists allowed origins; empty or "*" allows any origin.
	CORSOrigins []string
	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler
}

// NewRouter wires the signup routes onto a chi mux.
func NewRouter(svc Service, logger *slog.Logger, opts Options) http.Handler {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(propagateRequestID)
	r.Use(chimw.Recoverer)
	r.Use(accessLog(h.logger))
	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Backend is running!"))
	})
	r.Get("/healthz", h.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/send-verification", h.handleSendVerification)
		r.Post("/verify-code", h.handleVerifyCode)
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.With(middleware.Guard(svc, middleware.ModeStrict, h.writeError)).Get("/profile", h.handleProfile)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NotFound", Kind: string(goSignup.KindNotFound), Message: "route not found"})
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	var allowed []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}

func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimw.GetReqID(r.Context())
		if id != "" {
			w.Header().Set(chimw.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(goSignup.WithRequestID(r.Context(), id)))
	})
}

func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
