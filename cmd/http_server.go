package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/internal/journal"
	journalPostgres "github.com/frahmantamala/rsms-admin/internal/journal/postgres"
	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/transport"
	"github.com/frahmantamala/rsms-admin/internal/transport/rest"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/internal/userapi"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the admin HTTP API in front of the records API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config        *internal.Config
	Journal       *journalDB
	Router        *chi.Mux
	HealthChecker *rest.HealthHandler
	UserHandler   *user.Handler
	OpenAPI       []byte
	Logger        *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "records_api", deps.Config.RecordsAPI.BaseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if deps.Journal != nil {
			if err := deps.Journal.close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := rest.RouterConfig{
		AllowedOrigins: splitOrigins(deps.Config.Server.AllowedOrigins),
		MetricsEnabled: deps.Config.Observability.Metrics.Enabled,
		MetricsPath:    deps.Config.Observability.Metrics.Path,
		OpenAPI:        deps.OpenAPI,
	}
	rest.RegisterAllRoutes(deps.Router, cfg, deps.HealthChecker, deps.UserHandler, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config, os.Stdout)

	doc, err := loadOpenAPI(config.Server.OpenAPIPath)
	if err != nil {
		// docs are optional; the API still serves without them
		lg.Warn("openapi document unavailable", "path", config.Server.OpenAPIPath, "error", err)
	}

	bus := events.NewEventBus(lg)

	// The caller's bearer token is forwarded; the configured token is only
	// used by background work that has no request.
	client := userapi.NewClient(userapi.Config{
		BaseURL: config.RecordsAPI.BaseURL,
		Timeout: config.RecordsAPI.Timeout,
	}, session.FromContext(), lg)

	store := user.NewStore(client, lg)
	gateway := user.NewGateway(client, store, bus, lg)
	aggregator := user.NewAggregator(client, lg)
	userHandler := user.NewHandler(transport.NewBaseHandler(lg), store, gateway, aggregator)

	components := map[string]rest.Pinger{
		"records_api": rest.PingFunc(client.Ping),
	}

	var jdb *journalDB
	if config.Journal.Enabled {
		jdb, err = openJournalDB(config.Database)
		if err != nil {
			return nil, err
		}
		journal.NewService(journalPostgres.NewJournalRepository(jdb.gorm), lg).Subscribe(bus)
		components["journal_db"] = rest.PingFunc(jdb.ping)
		lg.Info("admin journal enabled")
	}

	return &Dependencies{
		Config:        config,
		Logger:        lg,
		Journal:       jdb,
		Router:        chi.NewRouter(),
		HealthChecker: rest.NewHealthHandler(components),
		UserHandler:   userHandler,
		OpenAPI:       doc,
	}, nil
}

// loadOpenAPI parses and validates the document at path and returns its
// raw bytes for serving.
func loadOpenAPI(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi: %w", err)
	}
	return raw, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm wraps the pooled connection so gorm and the health check share it.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
