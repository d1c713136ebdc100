package domain

import (
	"context"
)

const (
	TreasuryCapCreated TreasuryEventType = iota
	TreasuryCapUpdated
	TreasuryCapDissolved
)

var (
	treasuryTypeString = map[TreasuryEventType]string{
		TreasuryCapCreated:   "TreasuryCapCreated",
		TreasuryCapUpdated:   "TreasuryCapUpdated",
		TreasuryCapDissolved: "TreasuryCapDissolved",
	}
)

type TreasuryEventType int

func (t TreasuryEventType) String() string {
	return treasuryTypeString[t]
}

// TreasuryEvent holds info about an event occured within the repository.
type TreasuryEvent struct {
	EventType   TreasuryEventType
	Currency    Currency
	TotalSupply uint64
}

// TreasuryRepository is the abstraction for any kind of database intended
// to persist treasury caps and the supply of dissolved ones.
type TreasuryRepository interface {
	// AddTreasuryCap stores a new treasury cap. It fails with
	// ErrCurrencyAlreadyRegistered if the currency already has one, dissolved
	// or not.
	// Generates a TreasuryCapCreated event if successfull.
	AddTreasuryCap(ctx context.Context, treasuryCap *TreasuryCap) error
	// GetTreasuryCap returns the live treasury cap of the given currency.
	// It fails with ErrTreasuryCapDissolved if the cap was dissolved.
	GetTreasuryCap(ctx context.Context, currency Currency) (*TreasuryCap, error)
	// GetSupply returns the supply of the given currency, whether its cap is
	// live or dissolved.
	GetSupply(ctx context.Context, currency Currency) (*Supply, error)
	// ListCurrencies returns every registered currency.
	ListCurrencies(ctx context.Context) ([]Currency, error)
	// UpdateTreasuryCap applies updateFn to the live treasury cap of the given
	// currency and stores the result. Nothing is stored if updateFn fails.
	// Generates a TreasuryCapUpdated, or TreasuryCapDissolved if the
	// returned cap is dissolved, event if successfull.
	UpdateTreasuryCap(
		ctx context.Context, currency Currency,
		updateFn func(t *TreasuryCap) (*TreasuryCap, error),
	) error
}
