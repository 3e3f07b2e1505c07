// Command server runs the grievance HTTP service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grievance/internal/complaint/clients"
	"grievance/internal/complaint/handler"
	"grievance/internal/complaint/identity"
	"grievance/internal/complaint/metrics"
	"grievance/internal/complaint/publisher"
	"grievance/internal/complaint/service"
	"grievance/internal/complaint/store"
	"grievance/internal/complaint/validator"
	"grievance/internal/complaint/workflow"
	"grievance/internal/complaint/workflow/metacache"
	"grievance/internal/platform/config"
	"grievance/internal/platform/httpserver"
	"grievance/internal/platform/logger"
	"grievance/internal/platform/middleware"
	platformredis "grievance/internal/platform/redis"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var cache metacache.Cache = metacache.NewMemory()
	if redisClient != nil {
		defer redisClient.Close()
		cache = metacache.NewRedis(redisClient.Client, cfg.BusinessServiceCacheTTL)
	}

	sink, err := publisher.NewKafka(cfg.KafkaBrokers, log)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer sink.Close()
	if err := sink.EnsureTopics(ctx, cfg.CreateTopic, cfg.UpdateTopic); err != nil {
		return fmt.Errorf("ensure topics: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	complaintMetrics := metrics.New(registry)

	valid := validator.New(validator.Config{
		AllowedSources:       cfg.AllowedSources,
		CitizenSearchParams:  cfg.CitizenSearchParams,
		EmployeeSearchParams: cfg.EmployeeSearchParams,
		ReopenIdleWindow:     cfg.ReopenIdleWindow,
	}, clients.NewMasterData(cfg.MasterDataBaseURL), clients.NewHR(cfg.HRBaseURL))

	resolver := identity.NewResolver(clients.NewIdentity(cfg.IdentityBaseURL), identity.WithLogger(log))

	coordinator := workflow.NewCoordinator(
		clients.NewWorkflow(cfg.WorkflowBaseURL),
		cache,
		cfg.WorkflowModule,
		cfg.BusinessService,
		workflow.WithLogger(log),
	)

	complaintStore := store.NewPostgres(db,
		store.NewQueryBuilder(cfg.DefaultLimit, cfg.DefaultOffset), cfg.ResolvedStatus)

	svc := service.New(service.Config{
		CreateTopic:   cfg.CreateTopic,
		UpdateTopic:   cfg.UpdateTopic,
		DefaultLimit:  cfg.DefaultLimit,
		DefaultOffset: cfg.DefaultOffset,
		MaxLimit:      cfg.MaxLimit,
		IDGenName:     cfg.IDGenName,
		IDGenFormat:   cfg.IDGenFormat,
	}, valid, resolver, coordinator, complaintStore, clients.NewIDGen(cfg.IDGenBaseURL), sink,
		service.WithLogger(log), service.WithMetrics(complaintMetrics))

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Stamp)
	router.Use(middleware.PlatformLabel)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(cfg.JWTSigningKey)))
		r.Mount("/", handler.New(svc, log).Routes())
	})

	server := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
