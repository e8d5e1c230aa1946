package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"veo-prompt-studio/internal/api"
	"veo-prompt-studio/internal/assist"
	"veo-prompt-studio/internal/config"
	"veo-prompt-studio/internal/gemini"
	"veo-prompt-studio/internal/httpclient"
	"veo-prompt-studio/internal/refimage"
	"veo-prompt-studio/internal/session"
)

//go:embed static/*
var staticFS embed.FS

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Logger:     logger,
	})

	gem, err := gemini.New(ctx, gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		APIVersion:  cfg.GeminiAPIVersion,
		HTTPClient:  httpClient,
		Logger:      logger,
		TextModel:   cfg.GeminiTextModel,
		ImageModel:  cfg.GeminiImageModel,
		ImagenModel: cfg.ImagenModel,
		MaxRetries:  cfg.GeminiMaxRetries,
	})
	if err != nil {
		logger.Error("gemini init failed", "err", err)
		os.Exit(1)
	}

	assistant := assist.New(assist.Options{Generator: gem, Logger: logger})

	sessions := session.NewStore(session.Options{
		Previews:       assistant,
		PreviewDelay:   cfg.PreviewDebounce,
		PreviewTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	defer sessions.Close()

	apiServer := api.New(api.Options{
		Sessions: sessions,
		Inspirer: assistant,
		Images: refimage.Options{
			MaxDimension: cfg.MaxImageDimension,
			Quality:      cfg.JPEGQuality,
		},
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	router := mux.NewRouter()
	apiServer.RegisterRoutes(router)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	router.PathPrefix("/").Handler(http.FileServer(http.FS(staticSub)))

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           api.WithLogging(api.EnableCORS(router), logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	go reapSessions(ctx, sessions, cfg.SessionTTL, logger)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("web started", "addr", cfg.WebAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

func reapSessions(ctx context.Context, sessions *session.Store, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Reap(ttl); n > 0 {
				logger.Info("sessions reaped", "count", n, "active", sessions.Len())
			}
		}
	}
}
