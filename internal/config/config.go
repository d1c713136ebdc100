package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the key to customize the coinvault datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// MaxSelectionSizeKey is the key to customize the max number of coins the
	// coin selector runs its exhaustive search over.
	MaxSelectionSizeKey = "MAX_SELECTION_SIZE"
	// MaxTransformCoinsKey is the key to bound the number of coins and
	// amounts a single transformation accepts. Zero means no bound.
	MaxTransformCoinsKey = "MAX_TRANSFORM_COINS"
	// NoMetricsKey is the key to disable dumping Prometheus metrics.
	NoMetricsKey = "NO_METRICS"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// MetricsLocation is the folder inside the datadir containing metrics
	// dump files.
	MetricsLocation = "stats"
	// DbUserKey is user used to connect to db
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database
	DbNameKey = "DB_NAME"
	// DbMigrationPath is the path to migration files
	DbMigrationPath = "DB_MIGRATION_PATH"
)

var (
	vip *viper.Viper

	defaultDatadir          = btcutil.AppDataDir("coinvault", false)
	defaultDbType           = "badger"
	defaultLogLevel         = 4
	defaultMaxSelectionSize = 16

	SupportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
		"postgres": {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("COINVAULT")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(MaxSelectionSizeKey, defaultMaxSelectionSize)
	vip.SetDefault(MaxTransformCoinsKey, 0)
	vip.SetDefault(NoMetricsKey, false)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "coinvault-db")
	vip.SetDefault(DbMigrationPath, "file://internal/infrastructure/storage/db/postgres/migration")

	if err := validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	if GetInt(MaxSelectionSizeKey) <= 0 {
		return fmt.Errorf("max selection size must be a positive number")
	}
	if GetInt(MaxTransformCoinsKey) < 0 {
		return fmt.Errorf("max transform coins must not be negative")
	}

	if dbType == "postgres" {
		if GetInt(DbPortKey) <= 0 {
			return fmt.Errorf("db port must be a positive number")
		}
		if len(GetString(DbNameKey)) == 0 {
			return fmt.Errorf("db name must not be null")
		}
	}

	return nil
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}

	noMetrics := GetBool(NoMetricsKey)
	if noMetrics {
		return nil
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, MetricsLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}
