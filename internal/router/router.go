package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"gymmate-backend/internal/handlers"
	"gymmate-backend/internal/middleware"
	"gymmate-backend/internal/services"
	"gymmate-backend/internal/websocket"
)

// Deps lists what the router mounts. Everything below Vision is optional:
// persistence routes exist only when a database is configured.
type Deps struct {
	Pulse  *handlers.PulseHandler
	Vision *handlers.VisionHandler

	JWTAuth      *middleware.JWTAuth
	Usage        *services.UsageService
	FoodLogs     *handlers.FoodLogHandler
	PulseChats   *handlers.PulseChatHandler
	Subscription *handlers.SubscriptionHandler
	Messages     *handlers.MessageHandler
	WSHub        *websocket.Hub

	RateLimiter *middleware.RateLimiter
	FrontendURL string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── AI proxy routes (anonymous or signed in) ────
	proxy := r.With(proxyMiddleware(d)...)
	proxy.With(quota(d.Usage, services.LimitAIChats)).
		Post("/api/pulse-chat", d.Pulse.Chat)
	proxy.Post("/api/analyze-image", d.Vision.AnalyzeImage)
	proxy.With(quota(d.Usage, services.LimitScans)).
		Post("/api/food-scan", d.Vision.FoodScan)

	if d.JWTAuth == nil || d.FoodLogs == nil {
		return r
	}

	// ──── Persistence routes ────
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(handlers.NotFound)
		r.MethodNotAllowed(handlers.MethodNotAllowed)

		if d.WSHub != nil {
			r.Get("/ws", d.WSHub.HandleWebSocket)
		}

		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)

			r.Route("/food-logs", func(r chi.Router) {
				r.Post("/", d.FoodLogs.Create)
				r.Get("/", d.FoodLogs.List)
			})

			r.Route("/pulse-chats", func(r chi.Router) {
				r.Post("/", d.PulseChats.Save)
				r.Get("/", d.PulseChats.List)
			})

			r.Get("/subscription", d.Subscription.Get)

			r.Route("/matches/{id}/messages", func(r chi.Router) {
				r.Post("/", d.Messages.Send)
				r.Get("/", d.Messages.List)
			})
		})
	})

	return r
}

func proxyMiddleware(d Deps) []func(http.Handler) http.Handler {
	limiter := d.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(30, time.Minute)
	}

	mws := []func(http.Handler) http.Handler{limiter.Middleware}
	if d.JWTAuth != nil {
		mws = append(mws, d.JWTAuth.Optional)
	}
	return mws
}

// quota skips counting entirely when no usage store is configured.
func quota(u *services.UsageService, limit services.Limit) func(http.Handler) http.Handler {
	if u == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Quota(u, limit)
}
