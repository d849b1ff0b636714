package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"moodtunes/internal/app/songs"
	"moodtunes/internal/app/users"
	"moodtunes/internal/catalog"
	"moodtunes/internal/http/middleware"
	"moodtunes/internal/httpapi"
	"moodtunes/internal/metrics"
	"moodtunes/internal/recommend"
	"moodtunes/internal/session"
	"moodtunes/internal/store"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, cfg Config) error {
	if cfg.usingDefaultSecret {
		log.Warn().Msg("SECRET_KEY not set, using the development key")
	}

	if written, err := catalog.GeneratePreviews(cfg.PreviewDir); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PreviewDir).Msg("preview generation failed")
	} else {
		log.Info().Str("dir", cfg.PreviewDir).Int("written", written).Msg("previews ready")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(cfg, metrics.New()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("moodtunes listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newHTTPHandler(cfg Config, m *metrics.Metrics) http.Handler {
	rng := recommend.NewRand()
	songCatalog := catalog.New(rng)
	log.Info().Int("songs", songCatalog.Len()).Msg("catalog generated")

	sessions := session.NewJWTManager(cfg.SecretKey, session.DefaultTTL)
	userSvc := users.New(store.New(), sessions)
	songSvc := songs.New(songCatalog, rng)

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)

	router := httpapi.New(userSvc, songSvc, httpapi.Config{
		Metrics:       m,
		AuthLimiter:   limiter.Limit,
		SecureCookies: cfg.SecureCookies,
	}).Routes()

	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))),
	).Methods(http.MethodGet, http.MethodHead)
	middleware.Instrument(router, m)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.AllowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}
