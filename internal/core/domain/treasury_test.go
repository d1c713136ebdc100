package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

func TestWitnessRegistry(t *testing.T) {
	t.Parallel()

	registry := domain.NewWitnessRegistry()

	w, err := registry.Claim(currency)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.Equal(t, currency, w.Currency())
	require.True(t, registry.IsClaimed(currency))

	w2, err := registry.Claim(currency)
	require.ErrorIs(t, err, domain.ErrCurrencyAlreadyRegistered)
	require.Nil(t, w2)

	_, err = registry.Claim("not a currency!")
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)

	registry.Release(w)
	require.False(t, registry.IsClaimed(currency))
}

func TestTreasuryCapUniqueness(t *testing.T) {
	t.Parallel()

	registry := domain.NewWitnessRegistry()
	w, err := registry.Claim(currency)
	require.NoError(t, err)

	treasuryCap, err := domain.NewTreasuryCap(w)
	require.NoError(t, err)
	require.NotNil(t, treasuryCap)
	require.Equal(t, currency, treasuryCap.Currency())
	require.True(t, w.IsConsumed())

	// The same witness can't be used twice.
	treasuryCap, err = domain.NewTreasuryCap(w)
	require.ErrorIs(t, err, domain.ErrWitnessConsumed)
	require.Nil(t, treasuryCap)
}

func TestMintBurn(t *testing.T) {
	t.Parallel()

	treasuryCap := newTreasuryCap(t)

	c, err := treasuryCap.Mint(100, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(100), c.Value())
	require.Equal(t, currency, c.Currency())
	require.Equal(t, uint64(100), treasuryCap.TotalSupply())

	split, err := c.Split(40)
	require.NoError(t, err)

	amount, err := treasuryCap.Burn(split)
	require.NoError(t, err)
	require.Equal(t, uint64(40), amount)
	require.Equal(t, uint64(60), treasuryCap.TotalSupply())
	require.True(t, split.IsConsumed())

	_, err = treasuryCap.Burn(split)
	require.ErrorIs(t, err, domain.ErrCoinConsumed)

	_, err = treasuryCap.Mint(math.MaxUint64, owner)
	require.ErrorIs(t, err, domain.ErrOverflow)
	require.Equal(t, uint64(60), treasuryCap.TotalSupply())

	_, err = treasuryCap.Mint(1, "")
	require.ErrorIs(t, err, domain.ErrMissingOwner)

	foreign := domain.NewCoin(domain.Balance{Currency: "USD", Amount: 1}, owner)
	_, err = treasuryCap.Burn(foreign)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	require.False(t, foreign.IsConsumed())

	forged := newCoin(1000)
	_, err = treasuryCap.Burn(forged)
	require.ErrorIs(t, err, domain.ErrSupplyUnderflow)
	kind, _ := domain.KindOf(err)
	require.Equal(t, domain.KindInvariant, kind)
	require.Equal(t, uint64(1000), forged.Value())
}

func TestDissolveTreasuryCap(t *testing.T) {
	t.Parallel()

	treasuryCap := newTreasuryCap(t)
	c, err := treasuryCap.Mint(5, owner)
	require.NoError(t, err)

	supply, err := treasuryCap.Dissolve()
	require.NoError(t, err)
	require.Equal(t, uint64(5), supply.Value())
	require.True(t, treasuryCap.IsDissolved())

	_, err = treasuryCap.Dissolve()
	require.ErrorIs(t, err, domain.ErrTreasuryCapDissolved)
	_, err = treasuryCap.Mint(1, owner)
	require.ErrorIs(t, err, domain.ErrTreasuryCapDissolved)
	_, err = treasuryCap.Burn(c)
	require.ErrorIs(t, err, domain.ErrTreasuryCapDissolved)

	// The bare supply handle keeps working.
	amount, err := supply.DecreaseSupply(domain.Balance{Currency: currency, Amount: 5})
	require.NoError(t, err)
	require.Equal(t, uint64(5), amount)
	require.Zero(t, supply.Value())
}

func newTreasuryCap(t *testing.T) *domain.TreasuryCap {
	w, err := domain.NewWitnessRegistry().Claim(currency)
	require.NoError(t, err)
	treasuryCap, err := domain.NewTreasuryCap(w)
	require.NoError(t, err)
	return treasuryCap
}
