package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"recproxy/internal/broker"
	brokerhandler "recproxy/internal/broker/handler"
	"recproxy/internal/consent"
	consenthandler "recproxy/internal/consent/handler"
	consentservice "recproxy/internal/consent/service"
	"recproxy/internal/credential"
	credentialhandler "recproxy/internal/credential/handler"
	credentialservice "recproxy/internal/credential/service"
	"recproxy/internal/permission"
	permissionhandler "recproxy/internal/permission/handler"
	permissionservice "recproxy/internal/permission/service"
	"recproxy/internal/platform/auth"
	"recproxy/internal/platform/config"
	"recproxy/internal/platform/httpserver"
	"recproxy/internal/platform/logger"
	"recproxy/internal/platform/metrics"
	"recproxy/internal/platform/middleware"
	"recproxy/internal/platform/postgres"
	platformredis "recproxy/internal/platform/redis"
	"recproxy/internal/preference"
	preferencehandler "recproxy/internal/preference/handler"
	preferenceservice "recproxy/internal/preference/service"
	"recproxy/internal/registry"
	"recproxy/internal/scrape"
	scrapehandler "recproxy/internal/scrape/handler"
	httptransport "recproxy/internal/transport/http"
	auditpublisher "recproxy/pkg/platform/audit/publisher"
	auditkafka "recproxy/pkg/platform/audit/publishers/kafka"
	auditmemory "recproxy/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool

	// Stores: Postgres when configured, in-memory otherwise.
	db, err := postgres.Open(cfg.Postgres.URL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		consentStore    consent.Store
		permissionStore permission.Store
		credentialStore credential.Store
	)
	if db != nil {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		consentStore = consent.NewPostgresStore(db)
		permissionStore = permission.NewPostgresStore(db)
		credentialStore = credential.NewPostgresStore(db)
		defer db.Close()
	} else {
		log.Warn("no POSTGRES_URL configured, using in-memory stores")
		consentStore = consent.NewInMemoryStore()
		permissionStore = permission.NewInMemoryStore()
		credentialStore = credential.NewInMemoryStore()
	}

	var preferenceStore preference.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		preferenceStore = preference.NewRedisStore(redisClient)
		defer redisClient.Close()
	} else {
		log.Warn("no REDIS_URL configured, using in-memory preference store")
		preferenceStore = preference.NewInMemoryStore()
	}

	var registryClient registry.Client
	if cfg.Registry.BaseURL != "" {
		registryClient = registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.Timeout)
	} else {
		log.Warn("no CONSENT_REGISTRY_URL configured, using in-memory registry")
		registryClient = registry.NewInMemory()
	}

	// Audit: local store always, Kafka forwarding when brokers are set.
	auditOpts := []auditpublisher.Option{auditpublisher.WithAsyncBuffer(256)}
	if len(cfg.Kafka.Brokers) > 0 {
		forwarder, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit setup failed", "error", err)
			os.Exit(1)
		}
		defer forwarder.Close()
		auditOpts = append(auditOpts, auditpublisher.WithForwarder(forwarder))
	}
	auditor := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditOpts...)
	defer auditor.Close()

	m := metrics.New()
	navigator := scrape.NewHTTPNavigator(20*time.Second, 2, 5)

	consentSvc := consentservice.New(registryClient, consentStore, log, m, cfg.ConsentBypass)
	permissionSvc := permissionservice.New(permissionStore, credentialStore, log)
	prober := scrape.NewCookieProber(navigator, cfg.RootURI)
	credentialSvc := credentialservice.New(credentialStore, credential.NewSealer(cfg.EncryptionKey),
		consentSvc, permissionSvc, prober, log, cfg.TargetDomain, cfg.TargetPath)
	preferenceSvc := preferenceservice.New(preferenceStore, permissionSvc, log)

	var matcher broker.Matcher
	if cfg.Matchmaker.BaseURL != "" {
		matcher = broker.NewHTTPMatcher(cfg.Matchmaker.BaseURL, cfg.Matchmaker.Timeout)
	}
	accessBroker := broker.New(permissionSvc, preferenceSvc, credentialSvc,
		consentSvc, matcher, auditor, log, m, cfg.RootURI)
	scrapeSvc := scrape.New(accessBroker, navigator, log, m, cfg.RootURI)

	tokens := broker.NewTokenIssuer(2 * time.Minute)
	validator := auth.NewValidator(cfg.JWTSigningKey)

	router := httptransport.NewRouter(httptransport.Handlers{
		Consent:     consenthandler.New(consentSvc, log),
		Permission:  permissionhandler.New(permissionSvc, log),
		Credential:  credentialhandler.New(credentialSvc, log),
		Preference:  preferencehandler.New(preferenceSvc, log),
		Broker:      brokerhandler.New(tokens, log),
		Scrape:      scrapehandler.New(scrapeSvc, log),
		TokenAuth:   tokens.Middleware(),
		JWTAuth:     middleware.RequireAuth(validator, log),
		CORSOrigins: cfg.CORSOrigins,
	}, ready.Load, m, log)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	ready.Store(true)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server failed", "error", err)
	}
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
