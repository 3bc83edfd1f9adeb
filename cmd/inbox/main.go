// Command inbox is a terminal client for recruiting-platform notifications.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/recruit-inbox/internal/app"
	"github.com/nhle/recruit-inbox/internal/credential"
	"github.com/nhle/recruit-inbox/internal/logging"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "inbox: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("inbox", pflag.ContinueOnError)
	configPath := flags.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	dbPath := flags.String("db", model.DefaultDBPath(), "path to the local database")
	account := flags.String("account", "", "account ID or name to open")
	logLevel := flags.String("log-level", "", "override the configured log level")
	envFile := flags.String("env-file", ".env", "dotenv file with RECRUIT_INBOX_* overrides")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Values already in the environment win over the dotenv file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", *envFile, err)
	}

	created, err := model.WriteDefaultConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inbox: %v; continuing with defaults\n", err)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		return err
	}

	logger.Info("starting",
		zap.String("config", *configPath),
		zap.Bool("config_created", created),
		zap.String("db", *dbPath))

	m := app.New(app.Deps{
		Config:      cfg,
		Store:       s,
		Credentials: creds,
		Logger:      logger,
		AccountID:   *account,
	})
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
