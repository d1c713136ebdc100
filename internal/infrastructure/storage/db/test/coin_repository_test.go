package db_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

const (
	sui = domain.Currency("SUI")
	usd = domain.Currency("USD")
)

func TestCoinRepository(t *testing.T) {
	for name, repoManager := range newRepoManagers(t) {
		repo := repoManager.CoinRepository()
		t.Run(name, func(t *testing.T) {
			testCoinRepository(t, repo)
		})
	}
}

func testCoinRepository(t *testing.T, repo domain.CoinRepository) {
	coins := []*domain.Coin{
		newCoin(sui, 10), newCoin(sui, 20), newCoin(usd, 5),
	}

	t.Run("add_coins and get_coins", func(t *testing.T) {
		count, err := repo.AddCoins(ctx, coins)
		require.NoError(t, err)
		require.Equal(t, len(coins), count)

		count, err = repo.AddCoins(ctx, coins)
		require.NoError(t, err)
		require.Zero(t, count)

		all, err := repo.GetAllCoins(ctx)
		require.NoError(t, err)
		require.Len(t, all, len(coins))

		found, err := repo.GetCoinsByID(ctx, []uuid.UUID{coins[1].ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, coins[1].Info(), found[0].Info())

		found, err = repo.GetCoinsForOwner(ctx, owner, sui)
		require.NoError(t, err)
		require.Len(t, found, 2)

		found, err = repo.GetCoinsForOwner(ctx, owner, "")
		require.NoError(t, err)
		require.Len(t, found, 3)

		found, err = repo.GetCoinsForOwner(ctx, "bob", "")
		require.NoError(t, err)
		require.Empty(t, found)
	})

	t.Run("get_balance_for_owner", func(t *testing.T) {
		balance, err := repo.GetBalanceForOwner(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, map[domain.Currency]uint64{sui: 30, usd: 5}, balance)

		balance, err = repo.GetBalanceForOwner(ctx, "bob")
		require.NoError(t, err)
		require.Empty(t, balance)
	})

	t.Run("update_coins", func(t *testing.T) {
		// Join the 2 SUI coins and give the result to bob.
		joined := coins[0].Clone()
		other := coins[1].Clone()
		require.NoError(t, joined.Join(other))
		require.NoError(t, joined.Transfer("bob"))
		change := domain.NewCoin(domain.Balance{Currency: usd, Amount: 0}, owner)

		err := repo.UpdateCoins(
			ctx, []uuid.UUID{coins[1].ID}, []*domain.Coin{joined, change},
		)
		require.NoError(t, err)

		found, err := repo.GetCoinsByID(ctx, []uuid.UUID{coins[0].ID, coins[1].ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, uint64(30), found[0].Value())
		require.Equal(t, "bob", found[0].Owner)

		balance, err := repo.GetBalanceForOwner(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, map[domain.Currency]uint64{sui: 30}, balance)

		found, err = repo.GetCoinsForOwner(ctx, owner, usd)
		require.NoError(t, err)
		require.Len(t, found, 2)
	})

	t.Run("update_coins atomicity", func(t *testing.T) {
		split := coins[2].Clone()
		_, err := split.Split(2)
		require.NoError(t, err)

		// One consumed coin doesn't exist, nothing must change.
		err = repo.UpdateCoins(
			ctx, []uuid.UUID{coins[2].ID, uuid.New()}, []*domain.Coin{split},
		)
		require.ErrorIs(t, err, domain.ErrCoinNotFound)

		found, err := repo.GetCoinsByID(ctx, []uuid.UUID{coins[2].ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, uint64(5), found[0].Value())

		consumed := coins[2].Clone()
		_, err = consumed.Unwrap()
		require.NoError(t, err)
		err = repo.UpdateCoins(ctx, nil, []*domain.Coin{consumed})
		require.ErrorIs(t, err, domain.ErrCoinConsumed)
	})
}

func newCoin(currency domain.Currency, amount uint64) *domain.Coin {
	return domain.NewCoin(domain.Balance{Currency: currency, Amount: amount}, owner)
}
