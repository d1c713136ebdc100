package domain

import (
	"context"

	"github.com/google/uuid"
)

const (
	CoinsAdded CoinEventType = iota
	CoinsUpdated
	CoinsConsumed
)

var (
	coinTypeString = map[CoinEventType]string{
		CoinsAdded:    "CoinsAdded",
		CoinsUpdated:  "CoinsUpdated",
		CoinsConsumed: "CoinsConsumed",
	}
)

type CoinEventType int

func (t CoinEventType) String() string {
	return coinTypeString[t]
}

// CoinEvent holds info about an event occured within the repository.
type CoinEvent struct {
	EventType CoinEventType
	Coins     []CoinInfo
}

// CoinRepository is the abstraction for any kind of database intended to
// persist Coins.
type CoinRepository interface {
	// AddCoins adds the provided coins to the repository by preventing
	// duplicates.
	// Generates a CoinsAdded event if successfull.
	AddCoins(ctx context.Context, coins []*Coin) (int, error)
	// GetCoinsByID returns the coins identified by the given ids. Unknown ids
	// are ignored.
	GetCoinsByID(ctx context.Context, ids []uuid.UUID) ([]*Coin, error)
	// GetAllCoins returns every live coin.
	GetAllCoins(ctx context.Context) ([]*Coin, error)
	// GetCoinsForOwner returns the coins of the given owner. If currency is
	// empty, coins of any currency are returned.
	GetCoinsForOwner(
		ctx context.Context, owner string, currency Currency,
	) ([]*Coin, error)
	// GetBalanceForOwner returns the total value per currency of the coins
	// of the given owner.
	GetBalanceForOwner(ctx context.Context, owner string) (map[Currency]uint64, error)
	// UpdateCoins atomically deletes the consumed coins and upserts the given
	// ones. It fails with ErrCoinNotFound without changing anything if any
	// of the consumed coins does not exist.
	// Generates a CoinsConsumed and a CoinsUpdated event if successfull.
	UpdateCoins(ctx context.Context, consumed []uuid.UUID, coins []*Coin) error
}
