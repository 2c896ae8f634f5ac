package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/api/rest"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/artifact"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/auth"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/cache"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/config"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/database"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/repository"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/telemetry"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
	"github.com/greenledger/carbon-compliance-backend/internal/service/aggregation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/audittrail"
	"github.com/greenledger/carbon-compliance-backend/internal/service/calculation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/factorsearch"
	"github.com/greenledger/carbon-compliance-backend/internal/service/reporting"
	"github.com/greenledger/carbon-compliance-backend/internal/service/signing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// A missing cache degrades factor resolution to direct reads, it never
	// blocks startup.
	var c cache.Cache
	if cfg.Redis.URL != "" {
		c, err = cache.NewRedisCache(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", zap.Error(err))
			c = cache.NewNoopCache()
		}
	} else {
		c = cache.NewNoopCache()
	}
	defer c.Close()

	m, err := metrics.NewRegistry("carbon-compliance-backend")
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}

	activityRepo := repository.NewActivityRepository(pool)
	factorRepo := repository.NewFactorRepository(pool)
	precursorRepo := repository.NewPrecursorCalculationRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	signatureRepo := repository.NewSignatureRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	resolver := calculation.NewFactorResolver(factorRepo, c, cfg.Calculation.FactorCacheTTL, m, logger)
	if cfg.FactorSearch.Enabled {
		resolver.WithSearch(factorsearch.NewClient(
			cfg.FactorSearch.Endpoint, cfg.FactorSearch.APIKey,
			cfg.FactorSearch.RequestsPerMinute, cfg.FactorSearch.Timeout, logger))
	}
	calculator := calculation.NewCalculator(activityRepo, factorRepo, precursorRepo, resolver,
		cfg.Calculation.Tier2PlusMultiplier, m, logger)
	aggregationSvc := aggregation.NewService(activityRepo, resultRepo, logger)

	assembler := reporting.NewAssembler(projectRepo, activityRepo, resultRepo)
	renderer := reporting.NewRenderer(artifact.NewFilesystemStore(cfg.Artifacts.BaseDir))
	reportingSvc := reporting.NewService(reportRepo, projectRepo, assembler, renderer, c, m, logger)

	signingSvc := signing.NewService(reportRepo, signatureRepo, signing.Roles{
		Authorized: cfg.Signing.AuthorizedRoles,
		Elevated:   cfg.Signing.ElevatedRoles,
		Owner:      cfg.Signing.OwnerRoles,
	}, m, logger)

	auditSvc := audittrail.NewService(auditRepo, cfg.Audit.CleanupBatchSize, m, logger)
	go auditSvc.RunRetentionLoop(ctx, cfg.Audit.CleanupInterval, cfg.Audit.RetentionDays)

	handler := rest.NewHandler(calculator, aggregationSvc, reportingSvc, signingSvc, auditSvc,
		auth.NewJWTService(cfg.Security.JWTSecret), logger)
	server := rest.NewServer(cfg.Server, handler.Routes(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
