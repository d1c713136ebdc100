package postgresdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	postgresDriver             = "pgx"
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"
	uniqueViolation            = "23505"
)

type repoManager struct {
	pgxPool *pgxpool.Pool

	coinRepository     *coinRepositoryPg
	treasuryRepository *treasuryRepositoryPg

	coinEventHandlers     *handlerMap
	treasuryEventHandlers *handlerMap
}

func NewRepoManager(dbConfig DbConfig) (ports.RepoManager, error) {
	dataSource := insecureDataSourceStr(dbConfig)

	pgxPool, err := connect(dataSource)
	if err != nil {
		return nil, err
	}

	if err = migrateDb(dataSource, dbConfig.MigrationSourceURL); err != nil {
		pgxPool.Close()
		return nil, err
	}

	rm := &repoManager{
		pgxPool:               pgxPool,
		coinRepository:        newCoinRepositoryPgImpl(pgxPool),
		treasuryRepository:    newTreasuryRepositoryPgImpl(pgxPool),
		coinEventHandlers:     newHandlerMap(),
		treasuryEventHandlers: newHandlerMap(),
	}

	go rm.listenToCoinEvents()
	go rm.listenToTreasuryEvents()

	return rm, nil
}

type DbConfig struct {
	DbUser             string
	DbPassword         string
	DbHost             string
	DbPort             int
	DbName             string
	MigrationSourceURL string
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
	if _, err := rm.pgxPool.Exec(
		context.Background(), "TRUNCATE TABLE coin, treasury_cap",
	); err != nil {
		log.WithError(err).Warn("postgres: failed to reset db")
	}
}

func (rm *repoManager) Close() {
	rm.coinRepository.close()
	rm.treasuryRepository.close()

	rm.pgxPool.Close()
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

func connect(dataSource string) (*pgxpool.Pool, error) {
	return pgxpool.Connect(context.Background(), dataSource)
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationSourceUrl,
		postgresDriver,
		d,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// insecureDataSourceStr converts database configuration params to connection string
func insecureDataSourceStr(dbConfig DbConfig) string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		dbConfig.DbUser,
		dbConfig.DbPassword,
		dbConfig.DbHost,
		dbConfig.DbPort,
		dbConfig.DbName,
	)
}
