package dbbadger

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
)

// repoManager holds all the badgerhold stores and domain repositories
// implementations in a single data structure.
type repoManager struct {
	coinRepository     *coinRepository
	treasuryRepository *treasuryRepository

	coinEventHandlers     *handlerMap
	treasuryEventHandlers *handlerMap
}

// NewRepoManager is the factory for creating a new badger implementation
// of the ports.RepoManager interface.
// It takes care of creating the db files on disk (or in-memory if no baseDbDir
// is provided - to be used only for testing purposes), and opening and closing
// the connection to them.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var coinDir, treasuryDir string
	if len(baseDbDir) > 0 {
		coinDir = filepath.Join(baseDbDir, "coins")
		treasuryDir = filepath.Join(baseDbDir, "treasury")
	}

	coinDb, err := createDb(coinDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening coin db: %w", err)
	}

	treasuryDb, err := createDb(treasuryDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening treasury db: %w", err)
	}

	coinRepo := newCoinRepository(coinDb)
	treasuryRepo := newTreasuryRepository(treasuryDb)

	rm := &repoManager{
		coinRepository:        coinRepo,
		treasuryRepository:    treasuryRepo,
		coinEventHandlers:     newHandlerMap(),
		treasuryEventHandlers: newHandlerMap(),
	}

	go rm.listenToCoinEvents()
	go rm.listenToTreasuryEvents()

	return rm, nil
}

func (d *repoManager) CoinRepository() domain.CoinRepository {
	return d.coinRepository
}

func (d *repoManager) TreasuryRepository() domain.TreasuryRepository {
	return d.treasuryRepository
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

func (d *repoManager) Reset() {
	d.coinRepository.reset()
	d.treasuryRepository.reset()
}

func (d *repoManager) Close() {
	d.coinRepository.close()
	d.treasuryRepository.close()
}

func (rm *repoManager) listenToCoinEvents() {
	for event := range rm.coinRepository.chEvents {
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
		if handlers, ok := rm.treasuryEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.TreasuryEventHandler)(event)
			}
		}
	}
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
					log.Warnf("garbage collector: %s", err)
				}
			}
		}()
	}

	return db, nil
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
