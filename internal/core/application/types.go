package application

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
	ss_selector "github.com/vulpemventures/coinvault/internal/infrastructure/coin-selector/smallest-subset"
	sf_transformer "github.com/vulpemventures/coinvault/internal/infrastructure/coin-transformer/smallest-first"
)

var (
	DefaultCoinSelector    = ss_selector.NewSmallestSubsetCoinSelector(0)
	DefaultCoinTransformer = sf_transformer.NewSmallestFirstCoinTransformer(0)

	// Locks shared by all services, keyed by currency or by coin id.
	currencyLocks = newKeyedMutex()
	coinLocks     = newKeyedMutex()
)

type CoinsInfo []domain.CoinInfo

func (i CoinsInfo) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i))
	for _, c := range i {
		ids = append(ids, c.ID)
	}
	return ids
}

func (i CoinsInfo) String() string {
	return fmt.Sprintf("%v", []domain.CoinInfo(i))
}

type TransformResult struct {
	Coins CoinsInfo
	Stats domain.TransformStats
}

type SupplyInfo struct {
	Currency    domain.Currency
	TotalSupply uint64
	Dissolved   bool
}

func coinsInfo(coins []*domain.Coin) CoinsInfo {
	info := make(CoinsInfo, 0, len(coins))
	for _, c := range coins {
		info = append(info, c.Info())
	}
	return info
}

// noopMetrics is used when services are created without a metrics
// collector.
type noopMetrics struct{}

func (noopMetrics) ObserveTransform(domain.Currency, domain.TransformStats)     {}
func (noopMetrics) ObserveSupplyChange(domain.Currency, uint64, uint64, uint64) {}
func (noopMetrics) ObserveCoinEvent(domain.CoinEvent)                           {}
func (noopMetrics) ObserveFailure(string, error)                                {}

func metricsOrNoop(m ports.Metrics) ports.Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
