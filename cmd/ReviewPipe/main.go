package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/reviewpipe/ReviewPipe/internal/api"
	"github.com/reviewpipe/ReviewPipe/internal/conversation"
	"github.com/reviewpipe/ReviewPipe/internal/lockfile"
	"github.com/reviewpipe/ReviewPipe/internal/store"
	"github.com/reviewpipe/ReviewPipe/internal/twiliowhatsapp"
	"github.com/reviewpipe/ReviewPipe/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ReviewPipe state data
	DefaultStateDir = "/var/lib/reviewpipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "reviewpipe.db"
)

// Config holds environment configuration.
type Config struct {
	DatabaseURL    string
	AuthToken      string
	AccountSID     string
	WhatsAppNumber string
	StateDir       string
	APIAddr        string
}

// Flags holds command line flag values.
type Flags struct {
	dbDSN    *string
	apiAddr  *string
	stateDir *string
}

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	// Missing secrets are fatal: running without them would mean a
	// non-functional verifier or store, silently accepting forged requests
	// or dropping reviews.
	if config.AuthToken == "" {
		slog.Error("TWILIO_AUTH_TOKEN missing in environment")
		os.Exit(1)
	}
	if *flags.dbDSN == "" {
		slog.Error("DATABASE_URL missing in environment")
		os.Exit(1)
	}
	if config.AccountSID == "" {
		slog.Warn("TWILIO_ACCOUNT_SID missing in environment")
	}
	if config.WhatsAppNumber == "" {
		slog.Warn("TWILIO_WHATSAPP_NUMBER missing in environment")
	}

	// Conversation state is in-memory; a second instance on the same state
	// directory would split dialogues between processes.
	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		slog.Error("Failed to open review store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	verifier, err := twiliowhatsapp.NewVerifier(config.AuthToken)
	if err != nil {
		slog.Error("Failed to create signature verifier", "error", err)
		os.Exit(1)
	}

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(st, conversation.NewManager(), verifier, apiOpts...)

	slog.Info("Bootstrapping ReviewPipe",
		"db_type", store.DetectDSNType(*flags.dbDSN),
		"state_dir", *flags.stateDir,
		"account_sid_set", config.AccountSID != "",
		"whatsapp_number_set", config.WhatsAppNumber != "")
	if err := server.Run(); err != nil {
		slog.Error("ReviewPipe failed to run", "error", err)
		os.Exit(1)
	}
}

// initializeLogger sets up structured logging; debug level is opt-in.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("REVIEWPIPE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		AccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		WhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		StateDir:       os.Getenv("REVIEWPIPE_STATE_DIR"),
		APIAddr:        os.Getenv("API_ADDR"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"TWILIO_AUTH_TOKEN_SET", config.AuthToken != "",
		"TWILIO_ACCOUNT_SID_SET", config.AccountSID != "",
		"TWILIO_WHATSAPP_NUMBER_SET", config.WhatsAppNumber != "",
		"REVIEWPIPE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:    flag.String("db-dsn", config.DatabaseURL, "database DSN for the review store (overrides $DATABASE_URL)"),
		apiAddr:  flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		stateDir: flag.String("state-dir", config.StateDir, "state directory for ReviewPipe data (overrides $REVIEWPIPE_STATE_DIR)"),
	}
	flag.Parse()

	slog.Debug("flags parsed",
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"stateDir", *flags.stateDir)

	return flags
}

// openStore picks the backend from the DSN shape: URL-style or key=value
// DSNs go to Postgres, file paths to SQLite.
func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}
