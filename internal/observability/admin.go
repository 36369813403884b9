package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admin is the HTTP surface next to the calculator listener: health,
// readiness and prometheus metrics. It carries no calculator state.
type Admin struct {
	App       string
	Addr      string
	StartedAt time.Time

	router *gin.Engine
}

func NewAdmin(app, addr string, corsOrigins []string) *Admin {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{
		App:       app,
		Addr:      addr,
		StartedAt: time.Now(),
		router:    r,
	}
	a.registerRoutes()
	return a
}

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.StartedAt).String(),
			"service": a.App,
		})
	})

	a.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(a.StartedAt).String(),
			"service": a.App,
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Serve blocks until ctx is cancelled or the HTTP server fails.
func (a *Admin) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: a.Addr, Handler: a.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
