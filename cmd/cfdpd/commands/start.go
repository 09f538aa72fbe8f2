package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marmos91/cfdpgo"
	"github.com/marmos91/cfdpgo/cfdptest"
	"github.com/marmos91/cfdpgo/filestore"
	"github.com/marmos91/cfdpgo/internal/logger"
	"github.com/marmos91/cfdpgo/internal/relay"
	"github.com/marmos91/cfdpgo/internal/tracing"
	"github.com/marmos91/cfdpgo/mib"
	"github.com/marmos91/cfdpgo/pkg/auditstore"
	"github.com/marmos91/cfdpgo/pkg/config"
	"github.com/marmos91/cfdpgo/pkg/controlplane"
	"github.com/marmos91/cfdpgo/pkg/filestore/s3store"
	"github.com/marmos91/cfdpgo/pkg/metrics"
	"github.com/marmos91/cfdpgo/pkg/mibstore/badgerstore"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cfdpd daemon",
	Long: `Start the cfdpd daemon: loads configuration, wires the Source and
Destination handlers to the in-process relay, and serves the metrics and
control-plane HTTP endpoints until interrupted.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingShutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "cfdpd",
		ServiceVersion: Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = tracingShutdown(context.Background()) }()

	entityID := cfdp.EntityID(cfg.Entity.ID)
	defaultEntry, err := cfg.DefaultMIB.ToEntry(entityID)
	if err != nil {
		return fmt.Errorf("default MIB entry: %w", err)
	}

	fs, err := buildFilestore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build filestore: %w", err)
	}

	mibStore, err := buildMIB(cfg)
	if err != nil {
		return fmt.Errorf("build MIB store: %w", err)
	}

	registry := prometheus.NewRegistry()
	transferMetrics := metrics.NewTransfer(registry)

	audit, err := buildAuditStore(cfg)
	if err != nil {
		return fmt.Errorf("build audit store: %w", err)
	}
	if audit != nil {
		defer audit.Close()
	}

	recorder := &cfdptest.Recorder{}
	var indications cfdp.Indications = metrics.IndicationsRecorder{Next: recorder, Metrics: transferMetrics}
	if audit != nil {
		indications = auditstore.IndicationsRecorder{Next: indications, Store: audit}
	}
	timers := cfdp.NewRealTimerFactory()

	source := cfdp.NewSourceHandler(entityID, fs, mibStore, defaultEntry, indications, timers)
	destination := cfdp.NewDestinationHandler(entityID, fs, mibStore, defaultEntry, indications, timers)

	link := relay.NewLink(source, destination, transferMetrics)
	go link.Run(ctx, time.Second)

	status := controlplane.NewStatusTracker()
	handlers := controlplane.NewHandlers(source, mibStore, status, audit)

	jwtSecret := cfg.ControlPlane.JWTSigningKey
	if jwtSecret == "" {
		jwtSecret = os.Getenv("CFDP_CONTROLPLANE_JWT_SIGNING_KEY")
	}
	if jwtSecret == "" {
		logger.Warn("no controlplane JWT signing key configured, using an insecure development default")
		jwtSecret = "cfdpd-development-signing-key-do-not-use-in-production"
	}
	jwtService, err := controlplane.NewJWTService(controlplane.JWTConfig{Secret: jwtSecret})
	if err != nil {
		return fmt.Errorf("init control plane auth: %w", err)
	}

	router := controlplane.NewRouter(handlers, jwtService)
	controlPlaneServer := &http.Server{Addr: cfg.ControlPlane.Address, Handler: router}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	}

	serverErrs := make(chan error, 2)
	go func() {
		logger.Info("control plane listening", "address", cfg.ControlPlane.Address)
		if err := controlPlaneServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- fmt.Errorf("control plane: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			logger.Info("metrics listening", "address", cfg.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrs <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("cfdpd running", "entity_id", cfg.Entity.ID)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErrs:
		logger.Error("server error", logger.Err(err))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = controlPlaneServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	logger.Info("cfdpd stopped")
	return nil
}

func buildFilestore(ctx context.Context, cfg *config.Config) (cfdp.Filestore, error) {
	if cfg.Filestore.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return s3store.New(client, cfg.Filestore.S3Bucket, cfg.Filestore.S3Prefix), nil
	}

	root := cfg.Filestore.RootDir
	if root == "" {
		root = "./cfdp-data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create filestore root: %w", err)
	}
	return filestore.NewRestricted(filestore.NewNative(), root), nil
}

func buildMIB(cfg *config.Config) (cfdp.MIB, error) {
	if cfg.MIBStore.BadgerDir != "" {
		return badgerstore.Open(cfg.MIBStore.BadgerDir)
	}
	return mib.NewStatic(), nil
}

// buildAuditStore opens the durable transaction-audit backend, or returns a
// nil *auditstore.Store if none is configured. An unconfigured audit trail
// is not an error: it just means the daemon keeps no record of a
// transaction beyond its in-memory status tracker once the process exits.
func buildAuditStore(cfg *config.Config) (*auditstore.Store, error) {
	if cfg.Audit.Type == "" {
		return nil, nil
	}
	auditCfg := &auditstore.Config{
		Type: auditstore.DatabaseType(cfg.Audit.Type),
		SQLite: auditstore.SQLiteConfig{
			Path: cfg.Audit.SQLite.Path,
		},
		Postgres: auditstore.PostgresConfig{
			Host:         cfg.Audit.Postgres.Host,
			Port:         cfg.Audit.Postgres.Port,
			Database:     cfg.Audit.Postgres.Database,
			User:         cfg.Audit.Postgres.User,
			Password:     cfg.Audit.Postgres.Password,
			SSLMode:      cfg.Audit.Postgres.SSLMode,
			MaxOpenConns: cfg.Audit.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Audit.Postgres.MaxIdleConns,
		},
	}
	return auditstore.Open(auditCfg)
}
