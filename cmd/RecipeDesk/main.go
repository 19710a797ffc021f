package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/recipedesk/RecipeDesk/internal/api"
	"github.com/recipedesk/RecipeDesk/internal/dialog"
	"github.com/recipedesk/RecipeDesk/internal/flows"
	"github.com/recipedesk/RecipeDesk/internal/media"
	"github.com/recipedesk/RecipeDesk/internal/messaging"
	"github.com/recipedesk/RecipeDesk/internal/metrics"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
	"github.com/recipedesk/RecipeDesk/internal/twiliochat"
	"github.com/recipedesk/RecipeDesk/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for RecipeDesk state data
	DefaultStateDir = "/var/lib/recipedesk"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "recipedesk.db"
	// DefaultIdleTimeout is how long an inactive conversation survives
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultSessionTTL is the Redis expiry for persisted sessions
	DefaultSessionTTL = 24 * time.Hour
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if err := run(config, flags); err != nil {
		slog.Error("RecipeDesk failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("RecipeDesk exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	RedisAddr     string
	RedisPassword string
	APIAddr       string
	AdminIDs      string
	MediaBaseURL  string
	IdleTimeout   time.Duration
	SessionTTL    time.Duration
	RedisDB       int
	TwilioMock    bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	redisAddr    *string
	apiAddr      *string
	adminIDs     *string
	mediaBaseURL *string
	idleTimeout  *time.Duration
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("RECIPEDESK_STATE_DIR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		APIAddr:       os.Getenv("API_ADDR"),
		AdminIDs:      os.Getenv("RECIPEDESK_ADMIN_IDS"),
		MediaBaseURL:  os.Getenv("MEDIA_BASE_URL"),
		IdleTimeout:   util.ParseDurationEnv("SESSION_IDLE_TIMEOUT", DefaultIdleTimeout),
		SessionTTL:    util.ParseDurationEnv("SESSION_TTL", DefaultSessionTTL),
		RedisDB:       util.ParseIntEnv("REDIS_DB", 0),
		TwilioMock:    util.ParseBoolEnv("TWILIO_MOCK", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No RECIPEDESK_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"RECIPEDESK_STATE_DIR", config.StateDir,
		"REDIS_ADDR_SET", config.RedisAddr != "",
		"API_ADDR", config.APIAddr,
		"ADMIN_IDS_SET", config.AdminIDs != "",
		"MEDIA_BASE_URL_SET", config.MediaBaseURL != "",
		"TWILIO_MOCK", config.TwilioMock)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for RecipeDesk data (overrides $RECIPEDESK_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the record store (overrides $DATABASE_URL)"),
		redisAddr:    flag.String("redis-addr", config.RedisAddr, "Redis address for session storage (overrides $REDIS_ADDR)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		adminIDs:     flag.String("admin-ids", config.AdminIDs, "comma-separated admin actor ids (overrides $RECIPEDESK_ADMIN_IDS)"),
		mediaBaseURL: flag.String("media-base-url", config.MediaBaseURL, "public base URL stored media is served from (overrides $MEDIA_BASE_URL)"),
		idleTimeout:  flag.Duration("idle-timeout", config.IdleTimeout, "conversation idle timeout (overrides $SESSION_IDLE_TIMEOUT)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"redisAddr_set", *flags.redisAddr != "",
		"apiAddr", *flags.apiAddr,
		"idleTimeout", *flags.idleTimeout)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "sqlite3" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

func run(config Config, flags Flags) error {
	records, err := store.New(buildStoreOptions(flags)...)
	if err != nil {
		return err
	}
	defer records.Close()

	sessions := buildSessionStore(config, flags)

	mediaStore, err := media.NewStore(filepath.Join(*flags.stateDir, "media"))
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	engine := dialog.NewEngine(sessions,
		dialog.WithIdleTimeout(*flags.idleTimeout),
		dialog.WithMetrics(m),
	)
	defer engine.Stop()

	sender, err := buildSender(config)
	if err != nil {
		return err
	}

	svcOpts := []messaging.TwilioOption{
		messaging.WithMediaStore(mediaStore),
		messaging.WithMetrics(m),
		messaging.WithCallbackPrefixes(flows.CallbackPrefixes()...),
	}
	if *flags.mediaBaseURL != "" {
		svcOpts = append(svcOpts, messaging.WithMediaBaseURL(*flags.mediaBaseURL))
	}
	svc := messaging.NewTwilioService(sender, svcOpts...)

	if err := flows.RegisterAll(engine, flows.Deps{
		Records: records,
		Media:   mediaStore,
		Notify:  svc,
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	dispatcher := messaging.NewDispatcher(engine, svc)
	dispatcher.Start(ctx)

	apiOpts := []api.Option{api.WithWebhook(svc.TwilioWebhookHandler)}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(records, sessions, mediaStore, apiOpts...)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("API server shutdown failed", "error", err)
	}
	if err := svc.Stop(); err != nil {
		slog.Error("Messaging service stop failed", "error", err)
	}
	dispatcher.Wait()
	return nil
}

// buildStoreOptions constructs record store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	if *flags.adminIDs != "" {
		var ids []string
		for _, id := range strings.Split(*flags.adminIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		storeOpts = append(storeOpts, store.WithAdminIDs(ids))
	}
	return storeOpts
}

// buildSessionStore selects Redis-backed or in-memory session storage
func buildSessionStore(config Config, flags Flags) session.Store {
	if *flags.redisAddr == "" {
		slog.Debug("No Redis address provided, using in-memory session store")
		return session.NewMemoryStore()
	}
	slog.Debug("Configuring Redis session store", "addr", *flags.redisAddr, "db", config.RedisDB)
	return session.NewRedisStore(*flags.redisAddr, config.RedisPassword, config.RedisDB,
		session.WithTTL(config.SessionTTL))
}

// buildSender creates the Twilio sender, or a recording mock for local runs
func buildSender(config Config) (twiliochat.Sender, error) {
	if config.TwilioMock {
		slog.Warn("TWILIO_MOCK enabled, outbound messages will not be delivered")
		return twiliochat.NewMockClient(), nil
	}
	return twiliochat.NewClient()
}
