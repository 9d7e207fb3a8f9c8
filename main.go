package main

import (
	"fmt"
	"os"

	"hub/config"
	"hub/db"
	"hub/logging"
	"hub/services"
	"hub/store"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "hub",
	Short: "Hospital administration hub API",
	Long: `hub serves the administration API for the hospital network: users,
roles and permissions per institution, dashboards, notifications, blog,
supply requests and expedientes, on top of PocketBase or a local SQL store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	serveCmd.Flags().Bool("setup", false, "ensure collections before serving")
	bootstrapAdminCmd.Flags().String("email", "", "admin email (required)")
	bootstrapAdminCmd.Flags().String("password", "", "admin password (required)")
	bootstrapAdminCmd.Flags().String("first-name", "", "admin first name")
	bootstrapAdminCmd.Flags().String("last-name", "", "admin last name")
	_ = bootstrapAdminCmd.MarkFlagRequired("email")
	_ = bootstrapAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, setupCmd, seedPermissionsCmd, checkPermissionsCmd, bootstrapAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// environment is what every command needs: configuration, logger and store.
type environment struct {
	conf   config.Configuration
	log    *logging.Logger
	store  store.Store
	closer func() error
}

func loadEnvironment() (*environment, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
	}
	logger, err := logging.New(conf.LogPath, conf.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	st, closer, err := db.Open(conf, logger.Component("store"))
	if err != nil {
		logger.Close()
		return nil, err
	}
	return &environment{conf: conf, log: logger, store: st, closer: closer}, nil
}

func (e *environment) Close() {
	if err := e.closer(); err != nil {
		e.log.Warn().Err(err).Msg("close store")
	}
	e.log.Close()
}

// adminServices builds services without mail, realtime or analytics, for the
// maintenance commands.
func (e *environment) adminServices() *services.Services {
	return services.New(e.store, e.conf, services.Deps{}, e.log.Component("setup"))
}
