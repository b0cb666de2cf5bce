package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/erauner12/storefront/internal/apiclient"
	"github.com/erauner12/storefront/internal/auth"
	"github.com/erauner12/storefront/internal/config"
	"github.com/erauner12/storefront/internal/httpapi"
	"github.com/erauner12/storefront/internal/metrics"
	"github.com/erauner12/storefront/internal/session"
	"github.com/erauner12/storefront/internal/storefront"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	// Configure structured logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "storefront").Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Pretty debug logging on developer machines
	if cfg.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("env", cfg.Env).Msg("starting storefront")

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	collector := metrics.New(prometheus.DefaultRegisterer)

	// Identity provider
	idpClient := &http.Client{Timeout: cfg.API.Timeout}
	endpoints := auth.KeycloakEndpoints(cfg.OIDC.Issuer)
	if !cfg.OIDC.DisableDiscovery {
		discoverCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		discovered, err := auth.Discover(discoverCtx, idpClient, cfg.OIDC.Issuer)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("issuer", cfg.OIDC.Issuer).Msg("OIDC discovery failed, using Keycloak endpoint layout")
		} else {
			endpoints = discovered
		}
	}

	provider := auth.NewProvider(auth.ProviderConfig{
		IssuerURL:    cfg.OIDC.Issuer,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       cfg.OIDC.Scopes,
		Endpoints:    endpoints,
		HTTPClient:   idpClient,
	})

	log.Info().
		Str("issuer", cfg.OIDC.Issuer).
		Str("clientId", cfg.OIDC.ClientID).
		Str("tokenUrl", endpoints.TokenURL).
		Bool("confidential", cfg.OIDC.ClientSecret != "").
		Msg("OIDC provider configured")

	// API gateway client
	api := apiclient.New(cfg.API.URL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		apiclient.WithObserver(collector),
	)

	var ready atomic.Bool

	srv := &httpapi.Server{
		Sessions:           session.NewStore(cfg.Session.TTL),
		IdP:                provider,
		Shop:               storefront.New(api),
		Cookie:             httpapi.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		PostLogoutRedirect: cfg.OIDC.PostLogoutRedirectURL,
		TokenOptions:       []auth.Option{auth.WithRefreshObserver(collector)},
		Metrics:            promhttp.Handler(),
		Ready: func() error {
			if !ready.Load() {
				return errors.New("not ready")
			}
			return nil
		},
	}

	httpAddr := cfg.HTTP.Addr()
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.API.Timeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpAddr).Str("apiUrl", api.BaseURL()).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutting down gracefully...")
	case err := <-serveErrCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
