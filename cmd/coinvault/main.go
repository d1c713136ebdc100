package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	appconfig "github.com/vulpemventures/coinvault/internal/app-config"
	"github.com/vulpemventures/coinvault/internal/config"
	postgresdb "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/postgres"
)

var (
	// Build info.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Config from env vars.
	dbType            = config.GetString(config.DatabaseTypeKey)
	logLevel          = config.GetInt(config.LogLevelKey)
	datadir           = config.GetDatadir()
	maxSelectionSize  = config.GetInt(config.MaxSelectionSizeKey)
	maxTransformCoins = config.GetInt(config.MaxTransformCoinsKey)
	noMetrics         = config.GetBool(config.NoMetricsKey)
	dbDir             = filepath.Join(datadir, config.DbLocation)
	metricsDir        = filepath.Join(datadir, config.MetricsLocation)
	dbUser            = config.GetString(config.DbUserKey)
	dbPassword        = config.GetString(config.DbPassKey)
	dbHost            = config.GetString(config.DbHostKey)
	dbPort            = config.GetInt(config.DbPortKey)
	dbName            = config.GetString(config.DbNameKey)
	migrationSrc      = config.GetString(config.DbMigrationPath)

	appConfig *appconfig.AppConfig
	decimals  uint8

	rootCmd = &cobra.Command{
		Use:   "coinvault",
		Short: "CLI for coinvault ledger",
		Long: "This CLI lets you register currencies, mint and burn coins, " +
			"and merge, split or reshape them",
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
		SilenceUsage:      true,
		Version:           formatVersion(),
	}
)

func init() {
	rootCmd.PersistentFlags().Uint8VarP(
		&decimals, "decimals", "d", 0,
		"number of decimal places of the amounts given as input",
	)
	rootCmd.AddCommand(currencyCmd, coinCmd)
}

func main() {
	log.SetLevel(log.Level(logLevel))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	repoManagerConfig, err := getRepoManagerConfig()
	if err != nil {
		return err
	}

	appConfig = &appconfig.AppConfig{
		RepoManagerType:   dbType,
		RepoManagerConfig: repoManagerConfig,
		MaxSelectionSize:  maxSelectionSize,
		MaxTransformCoins: uint64(maxTransformCoins),
		NoMetrics:         noMetrics,
	}
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.Debugf("datadir: %s", datadir)
	log.Debugf("db type: %s", dbType)
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if appConfig == nil {
		return
	}

	if metrics := appConfig.Metrics(); metrics != nil {
		if err := metrics.Dump(metricsDir); err != nil {
			log.WithError(err).Warn("failed to dump metrics")
		}
	}

	if rm := appConfig.RepoManager(); rm != nil {
		rm.Close()
	}
}

func getRepoManagerConfig() (interface{}, error) {
	switch dbType {
	case "badger":
		return dbDir, nil
	case "postgres":
		return postgresdb.DbConfig{
			DbUser:             dbUser,
			DbPassword:         dbPassword,
			DbHost:             dbHost,
			DbPort:             dbPort,
			DbName:             dbName,
			MigrationSourceURL: migrationSrc,
		}, nil
	case "inmemory":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database type %s", dbType)
	}
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
