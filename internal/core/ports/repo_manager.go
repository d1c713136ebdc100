package ports

import (
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

type CoinEventHandler func(event domain.CoinEvent)
type TreasuryEventHandler func(event domain.TreasuryEvent)

// RepoManager is the abstraction for any kind of service intended to manage
// domain repositories implementations of the same concrete type.
type RepoManager interface {
	// CoinRepository returns the coin repository.
	CoinRepository() domain.CoinRepository
	// TreasuryRepository returns the treasury repository.
	TreasuryRepository() domain.TreasuryRepository

	// RegisterHandlerForCoinEvent registers an handler function, executed
	// whenever the given event type occurs.
	RegisterHandlerForCoinEvent(
		eventType domain.CoinEventType, handler CoinEventHandler,
	)
	// RegisterHandlerForTreasuryEvent registers an handler function,
	// executed whenever the given event type occurs.
	RegisterHandlerForTreasuryEvent(
		eventType domain.TreasuryEventType, handler TreasuryEventHandler,
	)

	// Reset brings all the repos to their initial state by deleting any persisted data.
	Reset()

	// Close closes the connection with all concrete repositories
	// implementations.
	Close()
}
