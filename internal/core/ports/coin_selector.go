package ports

import "github.com/vulpemventures/coinvault/internal/core/domain"

// CoinSelector is the abstraction for any kind of service intended to return a
// subset of the given coins of the target currency, covering the target
// amount based on a specific strategy.
type CoinSelector interface {
	// SelectCoins implements a certain coin selection strategy.
	SelectCoins(
		coins []*domain.Coin, targetAmount uint64, targetCurrency domain.Currency,
	) (selectedCoins []*domain.Coin, change uint64, err error)
}
