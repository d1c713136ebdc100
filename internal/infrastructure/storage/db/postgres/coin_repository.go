package postgresdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

const (
	insertCoinQuery = `INSERT INTO coin (id, owner, currency, amount)
VALUES ($1::uuid, $2, $3, $4::numeric)`
	upsertCoinQuery = `INSERT INTO coin (id, owner, currency, amount)
VALUES ($1::uuid, $2, $3, $4::numeric)
ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, amount = EXCLUDED.amount
RETURNING (xmax <> 0) AS updated`
	deleteCoinQuery = `DELETE FROM coin WHERE id = $1::uuid
RETURNING id::text, owner, currency, amount`
	selectCoinsQuery = `SELECT id::text, owner, currency, amount FROM coin`
)

type coinRepositoryPg struct {
	pgxPool  *pgxpool.Pool
	chLock   *sync.Mutex
	chEvents chan domain.CoinEvent
	closed   bool
}

func NewCoinRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.CoinRepository {
	return newCoinRepositoryPgImpl(pgxPool)
}

func newCoinRepositoryPgImpl(pgxPool *pgxpool.Pool) *coinRepositoryPg {
	return &coinRepositoryPg{
		pgxPool:  pgxPool,
		chLock:   &sync.Mutex{},
		chEvents: make(chan domain.CoinEvent),
	}
}

func (c *coinRepositoryPg) AddCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(coins))

	conn, err := c.pgxPool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	for _, v := range coins {
		if v.IsConsumed() {
			continue
		}
		if _, err := conn.Exec(
			ctx, insertCoinQuery,
			v.ID.String(), v.Owner, v.Currency().String(), amountToNumeric(v.Value()),
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				continue
			}
			return 0, err
		}

		coinsInfo = append(coinsInfo, v.Info())
		count++
	}

	if count > 0 {
		go c.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsAdded,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (c *coinRepositoryPg) GetCoinsByID(
	ctx context.Context, ids []uuid.UUID,
) ([]*domain.Coin, error) {
	if len(ids) == 0 {
		return []*domain.Coin{}, nil
	}

	strIds := make([]string, 0, len(ids))
	for _, id := range ids {
		strIds = append(strIds, id.String())
	}
	found, err := c.queryCoins(
		ctx, selectCoinsQuery+" WHERE id = ANY($1::uuid[])", strIds,
	)
	if err != nil {
		return nil, err
	}

	// Keep the order of the given ids.
	coinsByID := make(map[uuid.UUID]*domain.Coin, len(found))
	for _, coin := range found {
		coinsByID[coin.ID] = coin
	}
	coins := make([]*domain.Coin, 0, len(found))
	for _, id := range ids {
		if coin, ok := coinsByID[id]; ok {
			coins = append(coins, coin)
		}
	}
	return coins, nil
}

func (c *coinRepositoryPg) GetAllCoins(ctx context.Context) ([]*domain.Coin, error) {
	return c.queryCoins(ctx, selectCoinsQuery+" ORDER BY id")
}

func (c *coinRepositoryPg) GetCoinsForOwner(
	ctx context.Context, owner string, currency domain.Currency,
) ([]*domain.Coin, error) {
	if len(currency) > 0 {
		return c.queryCoins(
			ctx, selectCoinsQuery+" WHERE owner = $1 AND currency = $2 ORDER BY id",
			owner, currency.String(),
		)
	}
	return c.queryCoins(
		ctx, selectCoinsQuery+" WHERE owner = $1 ORDER BY id", owner,
	)
}

func (c *coinRepositoryPg) GetBalanceForOwner(
	ctx context.Context, owner string,
) (map[domain.Currency]uint64, error) {
	rows, err := c.pgxPool.Query(
		ctx,
		"SELECT currency, SUM(amount) FROM coin WHERE owner = $1 GROUP BY currency",
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balance := make(map[domain.Currency]uint64)
	for rows.Next() {
		var currency string
		var total decimal.Decimal
		if err := rows.Scan(&currency, &total); err != nil {
			return nil, err
		}
		amount, err := numericToAmount(total)
		if err != nil {
			return nil, err
		}
		balance[domain.Currency(currency)] = amount
	}
	return balance, rows.Err()
}

func (c *coinRepositoryPg) UpdateCoins(
	ctx context.Context, consumed []uuid.UUID, coins []*domain.Coin,
) error {
	for _, v := range coins {
		if v.IsConsumed() {
			return domain.ErrCoinConsumed
		}
	}

	tx, err := c.pgxPool.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback is a no-op once the tx is committed.
	defer tx.Rollback(ctx)

	consumedInfo := make([]domain.CoinInfo, 0, len(consumed))
	for _, id := range consumed {
		coin, err := scanCoin(tx.QueryRow(ctx, deleteCoinQuery, id.String()))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrCoinNotFound
			}
			return err
		}
		consumedInfo = append(consumedInfo, coin.Info())
	}

	addedInfo := make([]domain.CoinInfo, 0)
	updatedInfo := make([]domain.CoinInfo, 0)
	for _, v := range coins {
		var updated bool
		if err := tx.QueryRow(
			ctx, upsertCoinQuery,
			v.ID.String(), v.Owner, v.Currency().String(), amountToNumeric(v.Value()),
		).Scan(&updated); err != nil {
			return err
		}
		if updated {
			updatedInfo = append(updatedInfo, v.Info())
		} else {
			addedInfo = append(addedInfo, v.Info())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if len(consumedInfo) > 0 {
		go c.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsConsumed,
			Coins:     consumedInfo,
		})
	}
	if len(addedInfo) > 0 {
		go c.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsAdded,
			Coins:     addedInfo,
		})
	}
	if len(updatedInfo) > 0 {
		go c.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsUpdated,
			Coins:     updatedInfo,
		})
	}

	return nil
}

func (c *coinRepositoryPg) queryCoins(
	ctx context.Context, query string, args ...interface{},
) ([]*domain.Coin, error) {
	rows, err := c.pgxPool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coins := make([]*domain.Coin, 0)
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, rows.Err()
}

func (c *coinRepositoryPg) publishEvent(event domain.CoinEvent) {
	c.chLock.Lock()
	defer c.chLock.Unlock()

	if c.closed {
		return
	}
	c.chEvents <- event
}

func (c *coinRepositoryPg) close() {
	c.chLock.Lock()
	defer c.chLock.Unlock()

	c.closed = true
	close(c.chEvents)
}

func scanCoin(row pgx.Row) (*domain.Coin, error) {
	var id, owner, currency string
	var amount decimal.Decimal
	if err := row.Scan(&id, &owner, &currency, &amount); err != nil {
		return nil, err
	}

	coinID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid coin id %s: %w", id, err)
	}
	value, err := numericToAmount(amount)
	if err != nil {
		return nil, err
	}

	return &domain.Coin{
		ID:    coinID,
		Owner: owner,
		Balance: domain.Balance{
			Currency: domain.Currency(currency),
			Amount:   value,
		},
	}, nil
}
