package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/localstore"
	"github.com/dataviz-pro/vizx/pkg/logging"
	"github.com/dataviz-pro/vizx/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// appCtx carries the wired client stack into every subcommand.
type appCtx struct {
	logger   *zap.Logger
	store    localstore.Store
	sessions *session.Manager
	client   *api.Client
}

func (a *appCtx) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// initConfig sets up viper: VIZX_* env vars plus an optional config file
// in the state directory.
func initConfig() {
	viper.SetEnvPrefix("vizx")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api-url", "http://localhost:8000")
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("state-dir", defaultStateDir())

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(viper.GetString("state-dir"))
	_ = viper.ReadInConfig() // missing config file is fine
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "vizx")
}

// buildApp wires logger, local store, session manager and API client.
func buildApp() (*appCtx, error) {
	logger, err := logging.New()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	stateDir := viper.GetString("state-dir")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	store, err := localstore.OpenSQLite(filepath.Join(stateDir, "state.db"))
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(store, logger)
	client := api.New(api.Opts{
		BaseURL:  viper.GetString("api-url"),
		Timeout:  viper.GetDuration("timeout"),
		Sessions: sessions,
		Logger:   logger,
		OnUnauthorized: func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
		},
	})

	return &appCtx{logger: logger, store: store, sessions: sessions, client: client}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vizx",
		Short:         "Terminal client for the DataViz Pro dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.OnInitialize(initConfig)

	root.PersistentFlags().String("api-url", "", "API base URL (default http://localhost:8000)")
	root.PersistentFlags().String("state-dir", "", "directory for persisted session state")
	_ = viper.BindPFlag("api-url", root.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("state-dir", root.PersistentFlags().Lookup("state-dir"))

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newHealthCmd(),
		newDatasetsCmd(),
		newBrowseCmd(),
		newChartCmd(),
	)
	return root
}
