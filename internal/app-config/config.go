package appconfig

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinvault/internal/config"
	"github.com/vulpemventures/coinvault/internal/core/application"
	"github.com/vulpemventures/coinvault/internal/core/ports"
	ss_selector "github.com/vulpemventures/coinvault/internal/infrastructure/coin-selector/smallest-subset"
	sf_transformer "github.com/vulpemventures/coinvault/internal/infrastructure/coin-transformer/smallest-first"
	prometheus_metrics "github.com/vulpemventures/coinvault/internal/infrastructure/metrics/prometheus"
	dbbadger "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/postgres"
)

// AppConfig is the struct holding all configuration options for every
// application service (coin and treasury).
// This data structure acts also as a factory of the mentioned application
// services and the portable services used by them.
// Public config args:
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
//   - MaxSelectionSize - (optional) Bound of the coin selector exhaustive search.
//   - MaxTransformCoins - (optional) Max number of coins and amounts accepted by a transformation.
//   - NoMetrics - (optional) Whether to disable the metrics collector.
type AppConfig struct {
	RepoManagerType   string
	RepoManagerConfig interface{}
	MaxSelectionSize  int
	MaxTransformCoins uint64
	NoMetrics         bool

	rm          ports.RepoManager
	metrics     *prometheus_metrics.Service
	coinSvc     *application.CoinService
	treasurySvc *application.TreasuryService
}

func (c *AppConfig) Validate() error {
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if c.MaxSelectionSize < 0 {
		return fmt.Errorf("max selection size must not be negative")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

// Metrics returns the prometheus collector, nil if metrics are disabled.
func (c *AppConfig) Metrics() *prometheus_metrics.Service {
	return c.metricsService()
}

func (c *AppConfig) CoinService() *application.CoinService {
	return c.coinService()
}

func (c *AppConfig) TreasuryService() *application.TreasuryService {
	return c.treasuryService()
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be postgresdb.DbConfig")
		}

		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}

		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) metricsService() *prometheus_metrics.Service {
	if c.NoMetrics {
		return nil
	}
	if c.metrics == nil {
		c.metrics = prometheus_metrics.NewService()
	}
	return c.metrics
}

// portsMetrics returns an untyped nil if metrics are disabled.
func (c *AppConfig) portsMetrics() ports.Metrics {
	if m := c.metricsService(); m != nil {
		return m
	}
	return nil
}

func (c *AppConfig) coinService() *application.CoinService {
	if c.coinSvc != nil {
		return c.coinSvc
	}

	rm, _ := c.repoManager()
	c.coinSvc = application.NewCoinService(
		rm,
		ss_selector.NewSmallestSubsetCoinSelector(c.MaxSelectionSize),
		sf_transformer.NewSmallestFirstCoinTransformer(c.MaxTransformCoins),
		c.portsMetrics(),
	)
	return c.coinSvc
}

func (c *AppConfig) treasuryService() *application.TreasuryService {
	if c.treasurySvc != nil {
		return c.treasurySvc
	}

	rm, _ := c.repoManager()
	c.treasurySvc = application.NewTreasuryService(rm, c.portsMetrics())
	return c.treasurySvc
}
