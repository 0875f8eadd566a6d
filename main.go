package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"github.com/claudiabdm/rock-paper-scissors/internal/render"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	setupLogging(cfg)
	if err != nil {
		logFatal("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logInfo("Starting Rock, Paper, Scissors in %s mode", cfg.envName())

	app, err := newApp(cfg)
	if err != nil {
		logFatal("Failed to initialise app: %v", err)
	}

	router := app.setupRouter()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go app.runSessionSweeper(ctx)

	startServer(ctx, router, cfg.Port)
	app.closeAllSessions()
	logInfo("Server shutdown complete")
}

// newApp builds the shared state. Production renders minified fragments.
func newApp(cfg Config) (*App, error) {
	var opts []render.Option
	if cfg.IsProduction() {
		opts = append(opts, render.WithMinify())
	}
	renderer, err := render.New(opts...)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:       cfg,
		IsProduction: cfg.IsProduction(),
		StartTime:    time.Now(),
		Renderer:     renderer,
		Sessions:     make(map[string]*Session),
		LimiterMap:   make(map[string]*rate.Limiter),
	}, nil
}

// setupRouter wires middleware, templates, static assets and routes.
func (app *App) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{RouteWebsocket})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		app.applyCacheHeaders(c)
	})

	router.SetHTMLTemplate(app.Renderer.Templates())
	if app.IsProduction && dirExists("dist/static") {
		logInfo("Serving assets from dist/ directory")
		router.Static("/static", "./dist/static")
	} else {
		logInfo("Serving development assets from source directories")
		router.Static("/static", "./static")
	}

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteGameState, app.gameStateHandler)
	router.GET(RouteView, app.viewHandler)
	router.GET(RouteWebsocket, app.wsHandler)
	router.GET(RouteHealthz, app.healthzHandler)

	router.POST(RouteActivate, app.rateLimitMiddleware(), app.activateHandler)
	router.POST(RoutePlayAgain, app.rateLimitMiddleware(), app.playAgainHandler)
	router.POST(RouteNewGame, app.rateLimitMiddleware(), app.newGameHandler)
	router.POST(RouteRulesToggle, app.rateLimitMiddleware(), app.rulesToggleHandler)

	return router
}

func startServer(ctx context.Context, router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
}

func (app *App) applyCacheHeaders(c *gin.Context) {
	if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.Config.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}
