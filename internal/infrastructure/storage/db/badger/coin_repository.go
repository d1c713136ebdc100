package dbbadger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

type coinDTO struct {
	ID       string
	Owner    string `badgerhold:"index"`
	Currency string
	Amount   uint64
}

func newCoinDTO(c *domain.Coin) coinDTO {
	return coinDTO{
		ID:       c.ID.String(),
		Owner:    c.Owner,
		Currency: c.Currency().String(),
		Amount:   c.Value(),
	}
}

func (d coinDTO) toDomain() (*domain.Coin, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid coin id %s: %w", d.ID, err)
	}
	return &domain.Coin{
		ID:    id,
		Owner: d.Owner,
		Balance: domain.Balance{
			Currency: domain.Currency(d.Currency),
			Amount:   d.Amount,
		},
	}, nil
}

type coinRepository struct {
	store     *badgerhold.Store
	chEvents  chan domain.CoinEvent
	lock      *sync.Mutex
	writeLock *sync.Mutex
	closed    bool

	log func(format string, a ...interface{})
}

func NewCoinRepository(store *badgerhold.Store) domain.CoinRepository {
	return newCoinRepository(store)
}

func newCoinRepository(store *badgerhold.Store) *coinRepository {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("coin repository: %s", format)
		log.Debugf(format, a...)
	}
	return &coinRepository{
		store:     store,
		chEvents:  make(chan domain.CoinEvent),
		lock:      &sync.Mutex{},
		writeLock: &sync.Mutex{},
		log:       logFn,
	}
}

func (r *coinRepository) AddCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	return r.addCoins(ctx, coins)
}

func (r *coinRepository) GetCoinsByID(
	_ context.Context, ids []uuid.UUID,
) ([]*domain.Coin, error) {
	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		var dto coinDTO
		if err := r.store.Get(id.String(), &dto); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return nil, err
		}
		c, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}

	return coins, nil
}

func (r *coinRepository) GetAllCoins(_ context.Context) ([]*domain.Coin, error) {
	return r.findCoins(nil)
}

func (r *coinRepository) GetCoinsForOwner(
	_ context.Context, owner string, currency domain.Currency,
) ([]*domain.Coin, error) {
	query := badgerhold.Where("Owner").Eq(owner).Index("Owner")
	if len(currency) > 0 {
		query = query.And("Currency").Eq(currency.String())
	}

	return r.findCoins(query)
}

func (r *coinRepository) GetBalanceForOwner(
	ctx context.Context, owner string,
) (map[domain.Currency]uint64, error) {
	coins, err := r.GetCoinsForOwner(ctx, owner, "")
	if err != nil {
		return nil, err
	}

	balance := make(map[domain.Currency]uint64)
	for _, c := range coins {
		balance[c.Currency()] += c.Value()
	}
	return balance, nil
}

func (r *coinRepository) UpdateCoins(
	_ context.Context, consumed []uuid.UUID, coins []*domain.Coin,
) error {
	for _, c := range coins {
		if c.IsConsumed() {
			return domain.ErrCoinConsumed
		}
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx := r.store.Badger().NewTransaction(true)
	defer tx.Discard()

	consumedInfo := make([]domain.CoinInfo, 0, len(consumed))
	for _, id := range consumed {
		var dto coinDTO
		if err := r.store.TxGet(tx, id.String(), &dto); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrCoinNotFound
			}
			return err
		}
		c, err := dto.toDomain()
		if err != nil {
			return err
		}
		if err := r.store.TxDelete(tx, dto.ID, coinDTO{}); err != nil {
			return err
		}
		consumedInfo = append(consumedInfo, c.Info())
	}

	addedInfo := make([]domain.CoinInfo, 0)
	updatedInfo := make([]domain.CoinInfo, 0)
	for _, c := range coins {
		dto := newCoinDTO(c)

		var prev coinDTO
		err := r.store.TxGet(tx, dto.ID, &prev)
		if err != nil && err != badgerhold.ErrNotFound {
			return err
		}
		if err == nil {
			updatedInfo = append(updatedInfo, c.Info())
		} else {
			addedInfo = append(addedInfo, c.Info())
		}

		if err := r.store.TxUpsert(tx, dto.ID, dto); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if len(consumedInfo) > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsConsumed,
			Coins:     consumedInfo,
		})
	}
	if len(addedInfo) > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsAdded,
			Coins:     addedInfo,
		})
	}
	if len(updatedInfo) > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsUpdated,
			Coins:     updatedInfo,
		})
	}

	return nil
}

func (r *coinRepository) addCoins(
	_ context.Context, coins []*domain.Coin,
) (int, error) {
	tx := r.store.Badger().NewTransaction(true)
	defer tx.Discard()

	count := 0
	coinsInfo := make([]domain.CoinInfo, 0)
	for _, c := range coins {
		if c.IsConsumed() {
			continue
		}
		dto := newCoinDTO(c)
		if err := r.store.TxInsert(tx, dto.ID, dto); err != nil {
			if err == badgerhold.ErrKeyExists {
				continue
			}
			return -1, err
		}
		count++
		coinsInfo = append(coinsInfo, c.Info())
	}

	if err := tx.Commit(); err != nil {
		return -1, err
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsAdded,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) findCoins(query *badgerhold.Query) ([]*domain.Coin, error) {
	var list []coinDTO
	if err := r.store.Find(&list, query); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	coins := make([]*domain.Coin, 0, len(list))
	for _, dto := range list {
		c, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].ID.String() < coins[j].ID.String()
	})
	return coins, nil
}

func (r *coinRepository) publishEvent(event domain.CoinEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.log("publish event %s", event.EventType)
	r.chEvents <- event
}

func (r *coinRepository) reset() {
	if err := r.store.Badger().DropAll(); err != nil {
		r.log("reset: %s", err)
	}
}

func (r *coinRepository) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.closed = true
	r.store.Close()
	close(r.chEvents)
}
