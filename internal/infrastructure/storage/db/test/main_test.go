package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
	dbbadger "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/coinvault/internal/infrastructure/storage/db/postgres"
)

// Postgres repositories are tested only if this env var is set, against a
// db reachable with the credentials of newRepoManagers.
const pgTestEnv = "COINVAULT_TEST_POSTGRES"

var (
	ctx                   = context.Background()
	owner                 = "alice"
	errSomethingWentWrong = fmt.Errorf("something went wrong")
)

func newRepoManagers(t *testing.T) map[string]ports.RepoManager {
	inmemoryRepoManager := inmemory.NewRepoManager()
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	repoManagers := map[string]ports.RepoManager{
		"inmemory": inmemoryRepoManager,
		"badger":   badgerRepoManager,
	}

	if len(os.Getenv(pgTestEnv)) > 0 {
		pgRepoManager, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
			DbUser:             "root",
			DbPassword:         "secret",
			DbHost:             "127.0.0.1",
			DbPort:             5432,
			DbName:             "coinvault-db-test",
			MigrationSourceURL: "file://../postgres/migration",
		})
		require.NoError(t, err)
		pgRepoManager.Reset()
		repoManagers["postgres"] = pgRepoManager
	}

	for name, repoManager := range repoManagers {
		repoType := name
		coinHandler := func(event domain.CoinEvent) {
			t.Logf(
				"received event from %s repo: {EventType: %s, Coins: %d}\n",
				repoType, event.EventType, len(event.Coins),
			)
		}
		treasuryHandler := func(event domain.TreasuryEvent) {
			t.Logf(
				"received event from %s repo: {EventType: %s, Currency: %s, TotalSupply: %d}\n",
				repoType, event.EventType, event.Currency, event.TotalSupply,
			)
		}
		repoManager.RegisterHandlerForCoinEvent(domain.CoinsAdded, coinHandler)
		repoManager.RegisterHandlerForCoinEvent(domain.CoinsUpdated, coinHandler)
		repoManager.RegisterHandlerForCoinEvent(domain.CoinsConsumed, coinHandler)
		repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapCreated, treasuryHandler)
		repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapUpdated, treasuryHandler)
		repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapDissolved, treasuryHandler)
	}

	t.Cleanup(func() {
		for _, repoManager := range repoManagers {
			repoManager.Close()
		}
	})

	return repoManagers
}
