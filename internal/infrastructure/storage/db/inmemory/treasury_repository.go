package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vulpemventures/coinvault/internal/core/domain"
)

type treasuryInmemoryStore struct {
	treasuryCaps map[domain.Currency]*domain.TreasuryCap
	lock         *sync.RWMutex
}

type treasuryRepository struct {
	store    *treasuryInmemoryStore
	chEvents chan domain.TreasuryEvent
	chLock   *sync.Mutex
	closed   bool
}

func NewTreasuryRepository() domain.TreasuryRepository {
	return newTreasuryRepository()
}

func newTreasuryRepository() *treasuryRepository {
	return &treasuryRepository{
		store: &treasuryInmemoryStore{
			treasuryCaps: make(map[domain.Currency]*domain.TreasuryCap),
			lock:         &sync.RWMutex{},
		},
		chEvents: make(chan domain.TreasuryEvent),
		chLock:   &sync.Mutex{},
	}
}

func (r *treasuryRepository) AddTreasuryCap(
	_ context.Context, treasuryCap *domain.TreasuryCap,
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	currency := treasuryCap.Currency()
	if _, ok := r.store.treasuryCaps[currency]; ok {
		return domain.ErrCurrencyAlreadyRegistered
	}

	tc := *treasuryCap
	r.store.treasuryCaps[currency] = &tc

	go r.publishEvent(domain.TreasuryEvent{
		EventType:   domain.TreasuryCapCreated,
		Currency:    currency,
		TotalSupply: tc.TotalSupply(),
	})

	return nil
}

func (r *treasuryRepository) GetTreasuryCap(
	_ context.Context, currency domain.Currency,
) (*domain.TreasuryCap, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	return r.getTreasuryCap(currency)
}

func (r *treasuryRepository) GetSupply(
	_ context.Context, currency domain.Currency,
) (*domain.Supply, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	tc, ok := r.store.treasuryCaps[currency]
	if !ok {
		return nil, domain.ErrTreasuryCapNotFound
	}
	supply := tc.Supply
	return &supply, nil
}

func (r *treasuryRepository) ListCurrencies(
	_ context.Context,
) ([]domain.Currency, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	currencies := make([]domain.Currency, 0, len(r.store.treasuryCaps))
	for currency := range r.store.treasuryCaps {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i] < currencies[j]
	})
	return currencies, nil
}

func (r *treasuryRepository) UpdateTreasuryCap(
	_ context.Context, currency domain.Currency,
	updateFn func(*domain.TreasuryCap) (*domain.TreasuryCap, error),
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	tc, err := r.getTreasuryCap(currency)
	if err != nil {
		return err
	}

	updatedTc, err := updateFn(tc)
	if err != nil {
		return err
	}

	stored := *updatedTc
	r.store.treasuryCaps[currency] = &stored

	eventType := domain.TreasuryCapUpdated
	if updatedTc.IsDissolved() {
		eventType = domain.TreasuryCapDissolved
	}
	go r.publishEvent(domain.TreasuryEvent{
		EventType:   eventType,
		Currency:    currency,
		TotalSupply: updatedTc.TotalSupply(),
	})

	return nil
}

func (r *treasuryRepository) getTreasuryCap(
	currency domain.Currency,
) (*domain.TreasuryCap, error) {
	tc, ok := r.store.treasuryCaps[currency]
	if !ok {
		return nil, domain.ErrTreasuryCapNotFound
	}
	if tc.IsDissolved() {
		return nil, domain.ErrTreasuryCapDissolved
	}
	clone := *tc
	return &clone, nil
}

func (r *treasuryRepository) publishEvent(event domain.TreasuryEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.chEvents <- event
}

func (r *treasuryRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.treasuryCaps = make(map[domain.Currency]*domain.TreasuryCap)
}

func (r *treasuryRepository) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.closed = true
	close(r.chEvents)
}
