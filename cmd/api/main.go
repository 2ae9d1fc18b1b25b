package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"docugen/api/internal/app"
	"docugen/api/internal/config"
	"docugen/api/internal/export"
	"docugen/api/internal/genai"
	"docugen/api/internal/identity"
	"docugen/api/internal/session"
	"docugen/api/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}

	dataStore := store.NewPostgresStore(db)

	var userCache identity.UserCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cache, err := session.NewCache(cfg.RedisURL, cfg.UserCacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer cache.Close()
		userCache = cache
		log.Info().Msg("user cache enabled")
	}

	identityClient := identity.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey, dataStore, userCache, log)
	unsubscribe := identityClient.OnAuthStateChange(func(e identity.Event) {
		entry := log.Info().Str("event", string(e.Type))
		if e.User != nil {
			entry = entry.Str("user", e.User.ID)
		}
		entry.Msg("auth state change")
	})
	defer unsubscribe()

	generator := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiTimeout, log)
	exporter := export.NewService()

	service := app.NewService(dataStore, identityClient, generator, exporter, cfg.ResetRedirectURL, log)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, log)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("DocuGen API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
