package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"movietracker/internal/auth"
	"movietracker/internal/catalog"
	"movietracker/internal/discussions"
	"movietracker/internal/events"
	"movietracker/internal/reviews"
	"movietracker/internal/stats"
	"movietracker/internal/watchlist"
	"movietracker/pkg/database"
	"movietracker/pkg/utils"
)

func main() {
	utils.LoadDotenv()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := events.NewHub()
	router.GET("/ws", events.WSHandler(hub))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/api/ready", func(c *gin.Context) {
		hubStats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": hubStats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": hubStats.WSClients,
		})
	})

	api := router.Group("/api")

	// Catalog (public)
	catalogRepo := catalog.NewRepo(db)
	catalog.NewHandler(catalogRepo).RegisterRoutes(api)

	// Stats (public)
	statsRepo := stats.NewRepo(db)
	stats.NewHandler(statsRepo).RegisterRoutes(api)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokenSvc).RegisterRoutes(router.Group("/api/auth"))

	// Reviews and discussions: reads are public, writes require a token.
	reviewRepo := reviews.NewRepo(db)
	reviewHandler := reviews.NewHandler(reviewRepo, hub)
	reviewHandler.RegisterPublicRoutes(api)

	discussionRepo := discussions.NewRepo(db)
	discussionHandler := discussions.NewHandler(discussionRepo, hub)
	discussionHandler.RegisterPublicRoutes(api)

	protected := router.Group("/api")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/users/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":           claims.UserID,
			"email":        claims.Email,
			"display_name": claims.DisplayName,
		})
	})

	reviewHandler.RegisterProtectedRoutes(protected)
	discussionHandler.RegisterProtectedRoutes(protected)

	watchlistRepo := watchlist.NewRepo(db)
	watchlist.NewHandler(watchlistRepo, hub).RegisterRoutes(protected)

	srvCfg := utils.LoadServerConfig()
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   srvCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	httpSrv := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: corsMiddleware.Handler(router),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", srvCfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
