package ports

import "github.com/vulpemventures/coinvault/internal/core/domain"

// Metrics is the abstraction for any kind of service intended to collect
// stats about the coin ledger activity.
type Metrics interface {
	// ObserveTransform records the outcome of a coin transformation.
	ObserveTransform(currency domain.Currency, stats domain.TransformStats)
	// ObserveSupplyChange records minted (positive) or burned amounts.
	ObserveSupplyChange(currency domain.Currency, minted, burned, total uint64)
	// ObserveCoinEvent records the coins added, updated or consumed in the
	// repository.
	ObserveCoinEvent(event domain.CoinEvent)
	// ObserveFailure records a failed operation by error kind.
	ObserveFailure(operation string, err error)
}
