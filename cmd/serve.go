package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"EPESPO-inventario/internal/actas"
	"EPESPO-inventario/internal/asignaciones"
	"EPESPO-inventario/internal/bienes"
	"EPESPO-inventario/internal/departamentos"
	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/auth"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/clock"
	"EPESPO-inventario/internal/platform/config"
	"EPESPO-inventario/internal/platform/db"
	"EPESPO-inventario/internal/platform/inflight"
	"EPESPO-inventario/internal/platform/logger"
	"EPESPO-inventario/internal/platform/migrations"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/platform/session"
	"EPESPO-inventario/internal/responsables"
	"EPESPO-inventario/internal/usuarios"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := load()
		if err != nil {
			return err
		}
		return serve(cfg, log)
	},
}

func serve(cfg *config.Config, log *logrus.Logger) error {
	log.Infof("mode:%s backend:%s journal:%s", cfg.Mode, cfg.Backend.BaseURL, cfg.Journal.Driver)

	sessions := session.NewStore()
	cache := refcache.New(cfg.Cache.TTL, cfg.Cache.Cleanup)
	sessions.OnExpire(func(u domain.User) {
		log.WithField("usuario", u.Email).Warn("session expired")
	})
	// requests carry their caller's session; the client holds none
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil, log)

	journal, closeJournal, err := openJournal(cfg, log)
	if err != nil {
		return err
	}
	defer closeJournal()

	r := newRouter(cfg, log, sessions, client, cache, journal)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Server.Cert != "" && cfg.Server.Key != "" {
			log.Infof("listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(cfg.Server.Cert, cfg.Server.Key)
		} else {
			log.Infof("listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openJournal picks the saga journal. The mysql driver applies pending
// migrations on start.
func openJournal(cfg *config.Config, log logrus.FieldLogger) (asignaciones.Journal, func(), error) {
	if cfg.Journal.Driver != "mysql" {
		log.Warn("saga journal is in memory; partial submissions are lost on restart")
		return asignaciones.NewMemoryJournal(), func() {}, nil
	}
	conn, err := db.Connect(cfg.Journal.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("connected to DB: %s", cfg.Journal.DB.DBName)
	if err := migrations.Up(conn, log); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return asignaciones.NewMySQLJournal(db.Goqu(conn)), func() { _ = conn.Close() }, nil
}

func newRouter(cfg *config.Config, log *logrus.Logger, sessions *session.Store, client *backend.Client,
	cache *refcache.Cache, journal asignaciones.Journal) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.Middleware(log), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:5173", "http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", backend.IdempotencyHeader},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	clk := clock.Real(cfg.Location())
	guard := inflight.New()

	api := r.Group("/api/v2")
	read := api.Group("", auth.RequireSession(sessions))
	admin := read.Group("", auth.RequireRole(domain.RoleAdmin))

	auth.RegisterRoutes(api, read, auth.NewService(client, sessions, log))

	responsables.RegisterRoutes(read, admin, responsables.NewService(client, cache, log))
	departamentos.RegisterRoutes(read, admin, departamentos.NewService(client, cache, cfg.AllowedDepartments, log))
	usuarios.RegisterRoutes(admin, usuarios.NewService(client, cache, log))
	bienes.RegisterRoutes(read, admin, bienes.NewService(client, cache, clk, log))
	asignaciones.RegisterRoutes(read, admin,
		asignaciones.NewService(client, journal, guard, cache, clk, clock.ULID(), log))
	actas.RegisterRoutes(read, admin, actas.NewService(client, log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "ruta no encontrada"}})
	})
	return r
}
