package inmemory

import (
	"sync"
	"time"

	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
)

type repoManager struct {
	coinRepository     *coinRepository
	treasuryRepository *treasuryRepository

	coinEventHandlers     *handlerMap
	treasuryEventHandlers *handlerMap
}

func NewRepoManager() ports.RepoManager {
	coinRepo := newCoinRepository()
	treasuryRepo := newTreasuryRepository()

	rm := &repoManager{
		coinRepository:        coinRepo,
		treasuryRepository:    treasuryRepo,
		coinEventHandlers:     newHandlerMap(),
		treasuryEventHandlers: newHandlerMap(),
	}

	go rm.listenToCoinEvents()
	go rm.listenToTreasuryEvents()

	return rm
}

func (rm *repoManager) CoinRepository() domain.CoinRepository {
	return rm.coinRepository
}

func (rm *repoManager) TreasuryRepository() domain.TreasuryRepository {
	return rm.treasuryRepository
}

func (rm *repoManager) RegisterHandlerForCoinEvent(
	eventType domain.CoinEventType, handler ports.CoinEventHandler,
) {
	rm.coinEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) RegisterHandlerForTreasuryEvent(
	eventType domain.TreasuryEventType, handler ports.TreasuryEventHandler,
) {
	rm.treasuryEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) listenToCoinEvents() {
	for event := range rm.coinRepository.chEvents {
		time.Sleep(time.Millisecond)

		if handlers, ok := rm.coinEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.CoinEventHandler)(event)
			}
		}
	}
}

func (rm *repoManager) listenToTreasuryEvents() {
	for event := range rm.treasuryRepository.chEvents {
		time.Sleep(time.Millisecond)

		if handlers, ok := rm.treasuryEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.TreasuryEventHandler)(event)
			}
		}
	}
}

func (rm *repoManager) Reset() {
	rm.coinRepository.reset()
	rm.treasuryRepository.reset()
}

func (rm *repoManager) Close() {
	rm.coinRepository.close()
	rm.treasuryRepository.close()
}

// handlerMap is a util type to prevent race conditions when registering
// or retrieving handlers for events.
type handlerMap struct {
	handlersByEventType map[int][]interface{}
	lock                *sync.RWMutex
}

func newHandlerMap() *handlerMap {
	return &handlerMap{
		handlersByEventType: make(map[int][]interface{}),
		lock:                &sync.RWMutex{},
	}
}

func (m *handlerMap) set(key int, val interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlersByEventType[key] = append(m.handlersByEventType[key], val)
}

func (m *handlerMap) get(key int) ([]interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val, ok := m.handlersByEventType[key]
	return val, ok
}
