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

// treasuryCapDTO keeps track of dissolved caps as well, with a nil ID, so
// that their currency can never be registered again.
type treasuryCapDTO struct {
	Currency    string
	ID          string
	TotalSupply uint64
}

func newTreasuryCapDTO(tc *domain.TreasuryCap) treasuryCapDTO {
	return treasuryCapDTO{
		Currency:    tc.Currency().String(),
		ID:          tc.ID.String(),
		TotalSupply: tc.TotalSupply(),
	}
}

func (d treasuryCapDTO) toDomain() (*domain.TreasuryCap, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury cap id %s: %w", d.ID, err)
	}
	return &domain.TreasuryCap{
		ID: id,
		Supply: domain.Supply{
			Currency: domain.Currency(d.Currency),
			Total:    d.TotalSupply,
		},
	}, nil
}

type treasuryRepository struct {
	store     *badgerhold.Store
	chEvents  chan domain.TreasuryEvent
	lock      *sync.Mutex
	writeLock *sync.Mutex
	closed    bool

	log func(format string, a ...interface{})
}

func NewTreasuryRepository(store *badgerhold.Store) domain.TreasuryRepository {
	return newTreasuryRepository(store)
}

func newTreasuryRepository(store *badgerhold.Store) *treasuryRepository {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("treasury repository: %s", format)
		log.Debugf(format, a...)
	}
	return &treasuryRepository{
		store:     store,
		chEvents:  make(chan domain.TreasuryEvent),
		lock:      &sync.Mutex{},
		writeLock: &sync.Mutex{},
		log:       logFn,
	}
}

func (r *treasuryRepository) AddTreasuryCap(
	_ context.Context, treasuryCap *domain.TreasuryCap,
) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	dto := newTreasuryCapDTO(treasuryCap)
	if err := r.store.Insert(dto.Currency, dto); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrCurrencyAlreadyRegistered
		}
		return err
	}

	go r.publishEvent(domain.TreasuryEvent{
		EventType:   domain.TreasuryCapCreated,
		Currency:    treasuryCap.Currency(),
		TotalSupply: treasuryCap.TotalSupply(),
	})

	return nil
}

func (r *treasuryRepository) GetTreasuryCap(
	_ context.Context, currency domain.Currency,
) (*domain.TreasuryCap, error) {
	return r.getTreasuryCap(currency)
}

func (r *treasuryRepository) GetSupply(
	_ context.Context, currency domain.Currency,
) (*domain.Supply, error) {
	var dto treasuryCapDTO
	if err := r.store.Get(currency.String(), &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrTreasuryCapNotFound
		}
		return nil, err
	}
	return &domain.Supply{
		Currency: domain.Currency(dto.Currency),
		Total:    dto.TotalSupply,
	}, nil
}

func (r *treasuryRepository) ListCurrencies(
	_ context.Context,
) ([]domain.Currency, error) {
	var list []treasuryCapDTO
	if err := r.store.Find(&list, nil); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	currencies := make([]domain.Currency, 0, len(list))
	for _, dto := range list {
		currencies = append(currencies, domain.Currency(dto.Currency))
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
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tc, err := r.getTreasuryCap(currency)
	if err != nil {
		return err
	}

	updatedTc, err := updateFn(tc)
	if err != nil {
		return err
	}

	dto := newTreasuryCapDTO(updatedTc)
	if err := r.store.Update(dto.Currency, dto); err != nil {
		return err
	}

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
	var dto treasuryCapDTO
	if err := r.store.Get(currency.String(), &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrTreasuryCapNotFound
		}
		return nil, err
	}

	tc, err := dto.toDomain()
	if err != nil {
		return nil, err
	}
	if tc.IsDissolved() {
		return nil, domain.ErrTreasuryCapDissolved
	}
	return tc, nil
}

func (r *treasuryRepository) publishEvent(event domain.TreasuryEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.log("publish event %s", event.EventType)
	r.chEvents <- event
}

func (r *treasuryRepository) reset() {
	if err := r.store.Badger().DropAll(); err != nil {
		r.log("reset: %s", err)
	}
}

func (r *treasuryRepository) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.closed = true
	r.store.Close()
	close(r.chEvents)
}
