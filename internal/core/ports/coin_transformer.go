package ports

import "github.com/vulpemventures/coinvault/internal/core/domain"

// CoinTransformer is the abstraction for any kind of service intended to
// reshape a set of coins of the same currency into coins matching a list of
// target amounts, returning whatever is left as surplus coins.
type CoinTransformer interface {
	// Transform consumes the given coins and returns the resulting ones. The
	// sum of the output values always equals the sum of the input ones.
	Transform(coins []*domain.Coin, amounts []uint64) ([]*domain.Coin, error)
	// TransformWithStats is like Transform but also reports how the
	// requested amounts were satisfied.
	TransformWithStats(
		coins []*domain.Coin, amounts []uint64,
	) ([]*domain.Coin, *domain.TransformStats, error)
}
