package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

const (
	currency = domain.Currency("SUI")
	owner    = "alice"
)

func newCoin(amount uint64) *domain.Coin {
	return domain.NewCoin(domain.Balance{Currency: currency, Amount: amount}, owner)
}

func TestWrapUnwrapCoin(t *testing.T) {
	t.Parallel()

	c := newCoin(10)
	require.False(t, c.IsConsumed())
	require.Equal(t, uint64(10), c.Value())

	b, err := c.Unwrap()
	require.NoError(t, err)
	require.Equal(t, uint64(10), b.Value())
	require.True(t, c.IsConsumed())
	require.Zero(t, c.Value())

	_, err = c.Unwrap()
	require.ErrorIs(t, err, domain.ErrCoinConsumed)
}

func TestZeroCoin(t *testing.T) {
	t.Parallel()

	c := domain.ZeroCoin(currency, owner)
	require.Zero(t, c.Value())
	require.NoError(t, c.DestroyZero())
	require.True(t, c.IsConsumed())

	c = newCoin(1)
	err := c.DestroyZero()
	require.ErrorIs(t, err, domain.ErrNonZeroCoin)
	require.False(t, c.IsConsumed())
}

func TestTakePut(t *testing.T) {
	t.Parallel()

	balance := domain.Balance{Currency: currency, Amount: 10}

	c, err := domain.Take(&balance, 4, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(4), c.Value())
	require.Equal(t, uint64(6), balance.Value())

	_, err = domain.Take(&balance, 7, owner)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, uint64(6), balance.Value())

	err = domain.Put(&balance, c)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance.Value())
	require.True(t, c.IsConsumed())

	other := domain.NewCoin(domain.Balance{Currency: "USD", Amount: 1}, owner)
	err = domain.Put(&balance, other)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	require.False(t, other.IsConsumed())
}

func TestJoinCoins(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		c, other := newCoin(3), newCoin(4)
		id := c.ID

		require.NoError(t, c.Join(other))
		require.Equal(t, uint64(7), c.Value())
		require.Equal(t, id, c.ID)
		require.True(t, other.IsConsumed())
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()

		c, other := newCoin(math.MaxUint64), newCoin(1)

		err := c.Join(other)
		require.ErrorIs(t, err, domain.ErrOverflow)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		require.Equal(t, domain.KindOverflow, kind)
		require.Equal(t, uint64(math.MaxUint64), c.Value())
		require.Equal(t, uint64(1), other.Value())
		require.False(t, other.IsConsumed())
	})

	t.Run("self", func(t *testing.T) {
		t.Parallel()

		c := newCoin(1)
		require.ErrorIs(t, c.Join(c), domain.ErrDuplicatedCoin)
		require.Equal(t, uint64(1), c.Value())
	})
}

func TestSplitJoinRoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range []uint64{0, 1, 50, 99, 100} {
		c := newCoin(100)
		split, err := c.Split(k)
		require.NoError(t, err)
		require.Equal(t, k, split.Value())
		require.Equal(t, 100-k, c.Value())
		require.Equal(t, owner, split.Owner)
		require.NotEqual(t, c.ID, split.ID)

		require.NoError(t, split.Join(c))
		require.Equal(t, uint64(100), split.Value())
	}

	c := newCoin(100)
	_, err := c.Split(101)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, uint64(100), c.Value())
}

func TestJoinAll(t *testing.T) {
	t.Parallel()

	coins := []*domain.Coin{newCoin(1), newCoin(2), newCoin(3)}
	id := coins[0].ID

	c, err := domain.JoinAll(coins)
	require.NoError(t, err)
	require.Equal(t, id, c.ID)
	require.Equal(t, uint64(6), c.Value())
	require.True(t, coins[1].IsConsumed())
	require.True(t, coins[2].IsConsumed())

	_, err = domain.JoinAll(nil)
	require.ErrorIs(t, err, domain.ErrEmptyCoinList)

	overflowing := []*domain.Coin{newCoin(1), newCoin(2), newCoin(math.MaxUint64)}
	_, err = domain.JoinAll(overflowing)
	require.ErrorIs(t, err, domain.ErrOverflow)
	for i, v := range []uint64{1, 2, math.MaxUint64} {
		require.Equal(t, v, overflowing[i].Value())
		require.False(t, overflowing[i].IsConsumed())
	}
}

func TestDivideIntoN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		value          uint64
		n              uint64
		expectedShares []uint64
		expectedRest   uint64
		expectedErr    error
	}{
		{
			name:           "even",
			value:          9,
			n:              3,
			expectedShares: []uint64{3, 3},
			expectedRest:   3,
		},
		{
			name:           "with remainder",
			value:          10,
			n:              3,
			expectedShares: []uint64{3, 3},
			expectedRest:   4,
		},
		{
			name:           "one",
			value:          10,
			n:              1,
			expectedShares: []uint64{},
			expectedRest:   10,
		},
		{
			name:        "zero",
			value:       10,
			n:           0,
			expectedErr: domain.ErrInvalidSplitCount,
		},
		{
			name:        "too many",
			value:       2,
			n:           3,
			expectedErr: domain.ErrInvalidSplitCount,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newCoin(tt.value)
			coins, err := c.DivideIntoN(tt.n)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Equal(t, tt.value, c.Value())
				return
			}

			require.NoError(t, err)
			shares := make([]uint64, 0, len(coins))
			for _, c := range coins {
				shares = append(shares, c.Value())
			}
			require.Equal(t, tt.expectedShares, shares)
			require.Equal(t, tt.expectedRest, c.Value())
		})
	}
}

func TestSplitAmounts(t *testing.T) {
	t.Parallel()

	c := newCoin(10)
	coins, err := c.SplitAmounts([]uint64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, coins, 3)
	require.Equal(t, uint64(4), c.Value())

	coins, err = c.SplitAmounts([]uint64{2, 3})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Nil(t, coins)
	require.Equal(t, uint64(4), c.Value())

	coins, err = c.SplitAmounts([]uint64{math.MaxUint64, 2})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Nil(t, coins)
	require.Equal(t, uint64(4), c.Value())
}

func TestTransferCoin(t *testing.T) {
	t.Parallel()

	c := newCoin(1)
	require.NoError(t, c.Transfer("bob"))
	require.Equal(t, "bob", c.Owner)
	require.ErrorIs(t, c.Transfer(""), domain.ErrMissingOwner)

	_, err := c.Unwrap()
	require.NoError(t, err)
	require.ErrorIs(t, c.Transfer("carol"), domain.ErrCoinConsumed)
}
