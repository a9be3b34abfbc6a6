package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/config"
	"github.com/edvin/saasadmin/internal/logging"
)

func main() {
	listenAddr := envOr("LISTEN_ADDR", ":3001")
	apiURL := envOr("ADMIN_API_URL", "http://localhost:8090")
	staticDir := envOr("STATIC_DIR", "./dist")

	logger := logging.NewLogger(&config.Config{
		ServiceName: "admin-ui",
		LogLevel:    envOr("LOG_LEVEL", "info"),
		DevMode:     os.Getenv("DEV_MODE") == "true",
	})

	target, err := url.Parse(apiURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", apiURL).Msg("invalid ADMIN_API_URL")
	}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           newMux(target, staticDir, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listenAddr).Str("api", apiURL).Str("static", staticDir).Msg("admin UI listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		logger.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
}

// newMux proxies the API and login routes and serves the SPA for the rest.
func newMux(target *url.URL, staticDir string, logger zerolog.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Handle("/api/*", proxy)
	r.Handle("/auth/*", proxy)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok")
	})
	r.Handle("/*", spaHandler{staticDir: staticDir})
	return r
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
