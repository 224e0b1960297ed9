package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/handler"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/middleware"
	"github.com/poorehouse/twotruths/internal/svc"
)

// Options holds optional server behavior.
type Options struct {
	Quiet bool // suppress request logging for clean CLI output
}

// Run serves the game until ctx is canceled. It returns early when the
// port is taken or the listener fails.
func Run(ctx context.Context, c *config.Config, svcCtx *svc.ServiceContext, opts ...Options) error {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	if err := checkPortAvailable(c.Server.Port); err != nil {
		return fmt.Errorf("port %d is already in use: %w", c.Server.Port, err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port),
		Handler: newRouter(c, svcCtx, o),
		// No read/write timeouts: they would sever idle SSE streams and
		// hijacked websocket connections. Keepalive runs in-protocol.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("Server ready at http://%s:%d", c.Server.Host, c.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newRouter mounts the API, the event streams, and the SPA fallback.
func newRouter(c *config.Config, svcCtx *svc.ServiceContext, o Options) http.Handler {
	r := chi.NewRouter()
	if !o.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware())

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	triggerLimiter := middleware.NewRateLimiter(c.Limits.TriggerPerMinute, c.Limits.TriggerBurst)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(triggerLimiter.Middleware())
			r.Get("/trigger", handler.TriggerRoundHandler(svcCtx))
		})
		r.Get("/stream", handler.GameStreamHandler(svcCtx))
		r.Get("/ws", handler.GameSocketHandler(svcCtx))
		r.Get("/session", handler.GetSessionHandler(svcCtx))
		r.Post("/session", handler.ManageSessionHandler(svcCtx))
	})

	// Everything else is the game frontend.
	r.NotFound(handler.SPAHandler(c.Server.StaticDir))

	return r
}

// corsMiddleware opens the API to any origin. The game is meant to be
// embedded and shared around.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
