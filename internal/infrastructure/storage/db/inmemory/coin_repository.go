package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

type coinInmemoryStore struct {
	coinsByOwner map[string]map[uuid.UUID]struct{}
	coins        map[uuid.UUID]*domain.Coin
	lock         *sync.RWMutex
}

type coinRepository struct {
	store    *coinInmemoryStore
	chEvents chan domain.CoinEvent
	chLock   *sync.Mutex
	closed   bool
}

func NewCoinRepository() domain.CoinRepository {
	return newCoinRepository()
}

func newCoinRepository() *coinRepository {
	return &coinRepository{
		store: &coinInmemoryStore{
			coinsByOwner: make(map[string]map[uuid.UUID]struct{}),
			coins:        make(map[uuid.UUID]*domain.Coin),
			lock:         &sync.RWMutex{},
		},
		chEvents: make(chan domain.CoinEvent),
		chLock:   &sync.Mutex{},
	}
}

func (r *coinRepository) AddCoins(
	_ context.Context, coins []*domain.Coin,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.addCoins(coins)
}

func (r *coinRepository) GetCoinsByID(
	_ context.Context, ids []uuid.UUID,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}
		coins = append(coins, c.Clone())
	}

	return coins, nil
}

func (r *coinRepository) GetAllCoins(_ context.Context) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	coins := make([]*domain.Coin, 0, len(r.store.coins))
	for _, c := range r.store.coins {
		coins = append(coins, c.Clone())
	}
	sortCoins(coins)
	return coins, nil
}

func (r *coinRepository) GetCoinsForOwner(
	_ context.Context, owner string, currency domain.Currency,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	return r.getCoinsForOwner(owner, currency), nil
}

func (r *coinRepository) GetBalanceForOwner(
	_ context.Context, owner string,
) (map[domain.Currency]uint64, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	balance := make(map[domain.Currency]uint64)
	for _, c := range r.getCoinsForOwner(owner, "") {
		balance[c.Currency()] += c.Value()
	}
	return balance, nil
}

func (r *coinRepository) UpdateCoins(
	_ context.Context, consumed []uuid.UUID, coins []*domain.Coin,
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	for _, id := range consumed {
		if _, ok := r.store.coins[id]; !ok {
			return domain.ErrCoinNotFound
		}
	}
	for _, c := range coins {
		if c.IsConsumed() {
			return domain.ErrCoinConsumed
		}
	}

	consumedInfo := make([]domain.CoinInfo, 0, len(consumed))
	for _, id := range consumed {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}
		consumedInfo = append(consumedInfo, c.Info())
		r.deleteCoin(c)
	}

	addedInfo := make([]domain.CoinInfo, 0)
	updatedInfo := make([]domain.CoinInfo, 0)
	for _, c := range coins {
		if prev, ok := r.store.coins[c.ID]; ok {
			r.deleteCoin(prev)
			updatedInfo = append(updatedInfo, c.Info())
		} else {
			addedInfo = append(addedInfo, c.Info())
		}
		r.insertCoin(c)
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

func (r *coinRepository) addCoins(coins []*domain.Coin) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(coins))
	for _, c := range coins {
		if c.IsConsumed() {
			continue
		}
		if _, ok := r.store.coins[c.ID]; ok {
			continue
		}
		r.insertCoin(c)
		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinsAdded,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) getCoinsForOwner(
	owner string, currency domain.Currency,
) []*domain.Coin {
	ids := r.store.coinsByOwner[owner]
	coins := make([]*domain.Coin, 0, len(ids))
	for id := range ids {
		c := r.store.coins[id]
		if len(currency) > 0 && c.Currency() != currency {
			continue
		}
		coins = append(coins, c.Clone())
	}
	sortCoins(coins)
	return coins
}

func (r *coinRepository) insertCoin(c *domain.Coin) {
	r.store.coins[c.ID] = c.Clone()
	if _, ok := r.store.coinsByOwner[c.Owner]; !ok {
		r.store.coinsByOwner[c.Owner] = make(map[uuid.UUID]struct{})
	}
	r.store.coinsByOwner[c.Owner][c.ID] = struct{}{}
}

func (r *coinRepository) deleteCoin(c *domain.Coin) {
	delete(r.store.coins, c.ID)
	if ids, ok := r.store.coinsByOwner[c.Owner]; ok {
		delete(ids, c.ID)
		if len(ids) == 0 {
			delete(r.store.coinsByOwner, c.Owner)
		}
	}
}

func (r *coinRepository) publishEvent(event domain.CoinEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.chEvents <- event
}

func (r *coinRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.coins = make(map[uuid.UUID]*domain.Coin)
	r.store.coinsByOwner = make(map[string]map[uuid.UUID]struct{})
}

func (r *coinRepository) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.closed = true
	close(r.chEvents)
}

// sortCoins orders coins by id to make listings deterministic.
func sortCoins(coins []*domain.Coin) {
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].ID.String() < coins[j].ID.String()
	})
}
