package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sheetquiz"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

func main() {
	cfg, err := sheetquiz.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := sheetquiz.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, closeReader, err := sheetquiz.OpenReader(ctx, cfg.Source)
	if err != nil {
		logger.Fatal("failed to open question source", zap.String("kind", cfg.Source.Kind), zap.Error(err))
	}
	defer closeReader()

	source := sheetquiz.NewTableSource(reader, logger.Named("source"))

	registry := sheetquiz.NewSessionRegistry(cfg.SessionTTL, logger.Named("sessions"))
	go registry.Run(ctx, time.Minute)

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET is not set, using a random key; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}

	server, err := NewServer(source, registry, store, cfg.FetchTimeout, logger.Named("http"))
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env), zap.String("source", cfg.Source.Kind))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
