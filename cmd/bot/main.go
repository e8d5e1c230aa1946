package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"veo-prompt-studio/internal/assist"
	"veo-prompt-studio/internal/config"
	"veo-prompt-studio/internal/gemini"
	"veo-prompt-studio/internal/handlers"
	"veo-prompt-studio/internal/httpclient"
	"veo-prompt-studio/internal/mediagroup"
	"veo-prompt-studio/internal/refimage"
	"veo-prompt-studio/internal/session"
	"veo-prompt-studio/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
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

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

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

	handler := handlers.New(handlers.Options{
		Messenger: tg,
		Inspirer:  assistant,
		Sessions:  sessions,
		Images: refimage.Options{
			MaxDimension: cfg.MaxImageDimension,
			Quality:      cfg.JPEGQuality,
		},
		Logger: logger,
	})

	sem := make(chan struct{}, cfg.MaxConcurrent)
	defer func() {
		// Filling sem waits out in-flight updates before the forms close.
		for i := 0; i < cap(sem); i++ {
			sem <- struct{}{}
		}
		sessions.Close()
		handler.Wait()
	}()

	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			handler.HandleMediaGroup(reqCtx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		OnFlush:  onGroupFlush,
	})
	defer aggregator.Close()
	handler.SetMediaGroupAggregator(aggregator)

	go reapSessions(ctx, sessions, cfg.SessionTTL, logger)

	logger.Info("bot started", "username", tg.Username())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
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
				logger.Info("chat forms expired", "count", n)
			}
		}
	}
}
