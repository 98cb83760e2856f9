// main.go
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

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"eventlink/config"
	"eventlink/controllers"
	"eventlink/logger"
	"eventlink/middleware"
	"eventlink/services"
	"eventlink/storage"
	"eventlink/websocket"
)

// app is everything main starts and stops.
type app struct {
	router  *gin.Engine
	hub     *websocket.Hub
	tracker *services.RSVPTracker
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.InitLogger(cfg.LogDir); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	logger.SetLogLevel(cfg.Env)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		logger.Error.Fatalf("Failed to open %s store at %s: %v", cfg.StorageDriver, cfg.StoragePath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error.Printf("Failed to close store: %v", err)
		}
	}()

	var metrics services.MetricsPublisher = services.NoopMetrics{}
	if cfg.MetricsEnabled {
		cw, err := services.NewCloudWatchMetrics(cfg.MetricsNamespace, cfg.TracingEnabled)
		if err != nil {
			logger.Warn.Printf("CloudWatch metrics disabled: %v", err)
		} else {
			metrics = cw
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := setupRouter(cfg, store, metrics)
	if err := a.tracker.LoadCurrentUser(ctx); err != nil {
		logger.Warn.Printf("Restoring session failed: %v", err)
	}
	if err := a.tracker.LoadRSVPedEvents(ctx); err != nil {
		logger.Warn.Printf("Restoring RSVP'd events failed: %v", err)
	}

	// Start the WebSocket hub
	go a.hub.HandleMessages(ctx)

	var handler http.Handler = a.router
	if cfg.TracingEnabled {
		handler = xray.Handler(xray.NewFixedSegmentNamer(cfg.MetricsNamespace), a.router)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info.Printf("EventLink listening on :%s (%s, %s store)", cfg.Port, cfg.Env, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("Graceful shutdown failed: %v", err)
	}
}

// setupRouter builds the services over store and attaches every route.
func setupRouter(cfg *config.Config, store storage.Store, metrics services.MetricsPublisher) *app {
	users := services.NewUserDirectory(store, cfg.HashPasswords)
	sessionSvc := services.NewSessionService(store, users, cfg.Schools)
	catalog := services.NewEventCatalog(store, metrics)

	hub := websocket.NewHub(nil, cfg.ApplicationURL)
	tracker := services.NewRSVPTracker(store, hub, metrics)
	hub.SetSource(tracker)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.NoFrames)

	// Initialize session store
	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("eventlink", cookieStore))

	controllers.RegisterRoutes(router, controllers.Controllers{
		Auth:        controllers.NewAuthController(users, sessionSvc, tracker),
		Events:      controllers.NewEventController(catalog, sessionSvc, tracker, cfg.ApplicationURL),
		RSVP:        controllers.NewRSVPController(tracker, catalog),
		Profile:     controllers.NewProfileController(sessionSvc, tracker),
		LiveUpdates: hub.Handler(),
	})

	return &app{router: router, hub: hub, tracker: tracker}
}
