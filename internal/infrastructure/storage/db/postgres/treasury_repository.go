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
	insertTreasuryCapQuery = `INSERT INTO treasury_cap (currency, id, total_supply)
VALUES ($1, $2::uuid, $3::numeric)`
	selectTreasuryCapQuery = `SELECT currency, id::text, total_supply
FROM treasury_cap WHERE currency = $1`
	updateTreasuryCapQuery = `UPDATE treasury_cap SET id = $2::uuid, total_supply = $3::numeric
WHERE currency = $1`
)

type treasuryRepositoryPg struct {
	pgxPool  *pgxpool.Pool
	chLock   *sync.Mutex
	chEvents chan domain.TreasuryEvent
	closed   bool
}

func NewTreasuryRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.TreasuryRepository {
	return newTreasuryRepositoryPgImpl(pgxPool)
}

func newTreasuryRepositoryPgImpl(pgxPool *pgxpool.Pool) *treasuryRepositoryPg {
	return &treasuryRepositoryPg{
		pgxPool:  pgxPool,
		chLock:   &sync.Mutex{},
		chEvents: make(chan domain.TreasuryEvent),
	}
}

func (t *treasuryRepositoryPg) AddTreasuryCap(
	ctx context.Context, treasuryCap *domain.TreasuryCap,
) error {
	if _, err := t.pgxPool.Exec(
		ctx, insertTreasuryCapQuery,
		treasuryCap.Currency().String(), treasuryCap.ID.String(),
		amountToNumeric(treasuryCap.TotalSupply()),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrCurrencyAlreadyRegistered
		}
		return err
	}

	go t.publishEvent(domain.TreasuryEvent{
		EventType:   domain.TreasuryCapCreated,
		Currency:    treasuryCap.Currency(),
		TotalSupply: treasuryCap.TotalSupply(),
	})

	return nil
}

func (t *treasuryRepositoryPg) GetTreasuryCap(
	ctx context.Context, currency domain.Currency,
) (*domain.TreasuryCap, error) {
	tc, err := scanTreasuryCap(
		t.pgxPool.QueryRow(ctx, selectTreasuryCapQuery, currency.String()),
	)
	if err != nil {
		return nil, err
	}
	if tc.IsDissolved() {
		return nil, domain.ErrTreasuryCapDissolved
	}
	return tc, nil
}

func (t *treasuryRepositoryPg) GetSupply(
	ctx context.Context, currency domain.Currency,
) (*domain.Supply, error) {
	tc, err := scanTreasuryCap(
		t.pgxPool.QueryRow(ctx, selectTreasuryCapQuery, currency.String()),
	)
	if err != nil {
		return nil, err
	}
	supply := tc.Supply
	return &supply, nil
}

func (t *treasuryRepositoryPg) ListCurrencies(
	ctx context.Context,
) ([]domain.Currency, error) {
	rows, err := t.pgxPool.Query(
		ctx, "SELECT currency FROM treasury_cap ORDER BY currency",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	currencies := make([]domain.Currency, 0)
	for rows.Next() {
		var currency string
		if err := rows.Scan(&currency); err != nil {
			return nil, err
		}
		currencies = append(currencies, domain.Currency(currency))
	}
	return currencies, rows.Err()
}

func (t *treasuryRepositoryPg) UpdateTreasuryCap(
	ctx context.Context, currency domain.Currency,
	updateFn func(*domain.TreasuryCap) (*domain.TreasuryCap, error),
) error {
	tx, err := t.pgxPool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tc, err := scanTreasuryCap(
		tx.QueryRow(ctx, selectTreasuryCapQuery+" FOR UPDATE", currency.String()),
	)
	if err != nil {
		return err
	}
	if tc.IsDissolved() {
		return domain.ErrTreasuryCapDissolved
	}

	updatedTc, err := updateFn(tc)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx, updateTreasuryCapQuery,
		currency.String(), updatedTc.ID.String(),
		amountToNumeric(updatedTc.TotalSupply()),
	); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	eventType := domain.TreasuryCapUpdated
	if updatedTc.IsDissolved() {
		eventType = domain.TreasuryCapDissolved
	}
	go t.publishEvent(domain.TreasuryEvent{
		EventType:   eventType,
		Currency:    currency,
		TotalSupply: updatedTc.TotalSupply(),
	})

	return nil
}

func (t *treasuryRepositoryPg) publishEvent(event domain.TreasuryEvent) {
	t.chLock.Lock()
	defer t.chLock.Unlock()

	if t.closed {
		return
	}
	t.chEvents <- event
}

func (t *treasuryRepositoryPg) close() {
	t.chLock.Lock()
	defer t.chLock.Unlock()

	t.closed = true
	close(t.chEvents)
}

func scanTreasuryCap(row pgx.Row) (*domain.TreasuryCap, error) {
	var currency, id string
	var totalSupply decimal.Decimal
	if err := row.Scan(&currency, &id, &totalSupply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTreasuryCapNotFound
		}
		return nil, err
	}

	capID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury cap id %s: %w", id, err)
	}
	total, err := numericToAmount(totalSupply)
	if err != nil {
		return nil, err
	}

	return &domain.TreasuryCap{
		ID: capID,
		Supply: domain.Supply{
			Currency: domain.Currency(currency),
			Total:    total,
		},
	}, nil
}
