package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
)

// TreasuryService is responsible for operations related to currencies and
// their supply:
//   - Register a new currency, creating its treasury cap.
//   - Mint and burn coins.
//   - Dissolve a treasury cap.
//   - Get the supply of a currency.
//
// Operations on the same currency are serialized. Minting and burning
// update both the treasury cap and the coin repositories; if the coin update
// fails, the supply change is reverted.
type TreasuryService struct {
	repoManager ports.RepoManager
	registry    *domain.WitnessRegistry
	metrics     ports.Metrics

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewTreasuryService(
	repoManager ports.RepoManager, metrics ports.Metrics,
) *TreasuryService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("treasury service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("treasury service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	svc := &TreasuryService{
		repoManager, domain.NewWitnessRegistry(), metricsOrNoop(metrics),
		logFn, warnFn,
	}
	svc.registerHandlerForTreasuryEvents()
	return svc
}

// RegisterCurrency creates the treasury cap for the given currency. A
// currency can be registered only once, even after its cap is dissolved.
func (ts *TreasuryService) RegisterCurrency(
	ctx context.Context, currency domain.Currency,
) (*SupplyInfo, error) {
	if err := currency.Validate(); err != nil {
		return nil, ts.failure("register", err)
	}

	unlock := currencyLocks.Lock(currency.String())
	defer unlock()

	w, err := ts.registry.Claim(currency)
	if err != nil {
		return nil, ts.failure("register", err)
	}

	repo := ts.repoManager.TreasuryRepository()
	if _, err := repo.GetSupply(ctx, currency); err == nil {
		return nil, ts.failure("register", domain.ErrCurrencyAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrTreasuryCapNotFound) {
		ts.registry.Release(w)
		return nil, ts.failure("register", err)
	}

	treasuryCap, err := domain.NewTreasuryCap(w)
	if err != nil {
		ts.registry.Release(w)
		return nil, ts.failure("register", err)
	}

	if err := repo.AddTreasuryCap(ctx, treasuryCap); err != nil {
		if !errors.Is(err, domain.ErrCurrencyAlreadyRegistered) {
			ts.registry.Release(w)
		}
		return nil, ts.failure("register", err)
	}

	ts.log("registered currency %s", currency)
	return &SupplyInfo{Currency: currency}, nil
}

// Mint creates a new coin of the given currency and amount for owner.
func (ts *TreasuryService) Mint(
	ctx context.Context, currency domain.Currency, owner string, amount uint64,
) (*domain.CoinInfo, error) {
	unlock := currencyLocks.Lock(currency.String())
	defer unlock()

	var minted *domain.Coin
	var totalSupply uint64
	if err := ts.repoManager.TreasuryRepository().UpdateTreasuryCap(
		ctx, currency, func(tc *domain.TreasuryCap) (*domain.TreasuryCap, error) {
			c, err := tc.Mint(amount, owner)
			if err != nil {
				return nil, err
			}
			minted = c
			totalSupply = tc.TotalSupply()
			return tc, nil
		},
	); err != nil {
		return nil, ts.failure("mint", err)
	}

	if _, err := ts.repoManager.CoinRepository().AddCoins(
		ctx, []*domain.Coin{minted},
	); err != nil {
		ts.revertMint(ctx, minted.Clone())
		return nil, ts.failure("mint", err)
	}

	ts.metrics.ObserveSupplyChange(currency, amount, 0, totalSupply)
	ts.log("minted %d %s for %s", amount, currency, owner)

	info := minted.Info()
	return &info, nil
}

// Burn destroys the given coin and decreases the supply of its currency by
// its value, which is returned.
func (ts *TreasuryService) Burn(ctx context.Context, id uuid.UUID) (uint64, error) {
	coins, err := ts.repoManager.CoinRepository().GetCoinsByID(
		ctx, []uuid.UUID{id},
	)
	if err != nil {
		return 0, ts.failure("burn", err)
	}
	if len(coins) == 0 {
		return 0, ts.failure("burn", fmt.Errorf("%w: %s", domain.ErrCoinNotFound, id))
	}
	currency := coins[0].Currency()

	unlockCurrency := currencyLocks.Lock(currency.String())
	defer unlockCurrency()
	unlockCoin := coinLocks.Lock(id.String())
	defer unlockCoin()

	// The coin might have changed before getting the lock.
	coins, err = ts.repoManager.CoinRepository().GetCoinsByID(
		ctx, []uuid.UUID{id},
	)
	if err != nil {
		return 0, ts.failure("burn", err)
	}
	if len(coins) == 0 {
		return 0, ts.failure("burn", fmt.Errorf("%w: %s", domain.ErrCoinNotFound, id))
	}
	c := coins[0]

	var burned, totalSupply uint64
	if err := ts.repoManager.TreasuryRepository().UpdateTreasuryCap(
		ctx, currency, func(tc *domain.TreasuryCap) (*domain.TreasuryCap, error) {
			amount, err := tc.Burn(c.Clone())
			if err != nil {
				return nil, err
			}
			burned = amount
			totalSupply = tc.TotalSupply()
			return tc, nil
		},
	); err != nil {
		return 0, ts.failure("burn", err)
	}

	if err := ts.repoManager.CoinRepository().UpdateCoins(
		ctx, []uuid.UUID{id}, nil,
	); err != nil {
		ts.revertBurn(ctx, currency, burned)
		return 0, ts.failure("burn", err)
	}

	ts.metrics.ObserveSupplyChange(currency, 0, burned, totalSupply)
	ts.log("burned %d %s", burned, currency)

	return burned, nil
}

// Dissolve irreversibly turns the treasury cap of the given currency into a
// bare supply. Minting and burning are not possible anymore.
func (ts *TreasuryService) Dissolve(
	ctx context.Context, currency domain.Currency,
) (*SupplyInfo, error) {
	unlock := currencyLocks.Lock(currency.String())
	defer unlock()

	var supply *domain.Supply
	if err := ts.repoManager.TreasuryRepository().UpdateTreasuryCap(
		ctx, currency, func(tc *domain.TreasuryCap) (*domain.TreasuryCap, error) {
			s, err := tc.Dissolve()
			if err != nil {
				return nil, err
			}
			supply = s
			return tc, nil
		},
	); err != nil {
		return nil, ts.failure("dissolve", err)
	}

	ts.log("dissolved treasury cap of %s", currency)
	return &SupplyInfo{currency, supply.Value(), true}, nil
}

func (ts *TreasuryService) GetSupply(
	ctx context.Context, currency domain.Currency,
) (*SupplyInfo, error) {
	repo := ts.repoManager.TreasuryRepository()

	supply, err := repo.GetSupply(ctx, currency)
	if err != nil {
		return nil, err
	}

	dissolved := false
	if _, err := repo.GetTreasuryCap(ctx, currency); err != nil {
		if !errors.Is(err, domain.ErrTreasuryCapDissolved) {
			return nil, err
		}
		dissolved = true
	}

	return &SupplyInfo{currency, supply.Value(), dissolved}, nil
}

// ListCurrencies returns the supply info of every registered currency.
func (ts *TreasuryService) ListCurrencies(ctx context.Context) ([]SupplyInfo, error) {
	currencies, err := ts.repoManager.TreasuryRepository().ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]SupplyInfo, 0, len(currencies))
	for _, currency := range currencies {
		info, err := ts.GetSupply(ctx, currency)
		if err != nil {
			return nil, err
		}
		list = append(list, *info)
	}
	return list, nil
}

func (ts *TreasuryService) revertMint(ctx context.Context, minted *domain.Coin) {
	if err := ts.repoManager.TreasuryRepository().UpdateTreasuryCap(
		ctx, minted.Currency(),
		func(tc *domain.TreasuryCap) (*domain.TreasuryCap, error) {
			if _, err := tc.Burn(minted); err != nil {
				return nil, err
			}
			return tc, nil
		},
	); err != nil {
		log.WithError(err).Errorf(
			"treasury service: failed to revert mint of %d %s, supply is off",
			minted.Value(), minted.Currency(),
		)
	}
}

func (ts *TreasuryService) revertBurn(
	ctx context.Context, currency domain.Currency, amount uint64,
) {
	if err := ts.repoManager.TreasuryRepository().UpdateTreasuryCap(
		ctx, currency, func(tc *domain.TreasuryCap) (*domain.TreasuryCap, error) {
			if _, err := tc.Supply.IncreaseSupply(amount); err != nil {
				return nil, err
			}
			return tc, nil
		},
	); err != nil {
		log.WithError(err).Errorf(
			"treasury service: failed to revert burn of %d %s, supply is off",
			amount, currency,
		)
	}
}

func (ts *TreasuryService) failure(op string, err error) error {
	ts.metrics.ObserveFailure(op, err)
	kind, ok := domain.KindOf(err)
	if !ok {
		ts.warn(err, "%s failed", op)
		return err
	}
	if kind == domain.KindInvariant {
		log.WithError(err).Errorf("treasury service: %s violated an invariant", op)
	}
	return err
}

func (ts *TreasuryService) registerHandlerForTreasuryEvents() {
	handler := func(event domain.TreasuryEvent) {
		ts.log(
			"%s for %s, total supply %d",
			event.EventType, event.Currency, event.TotalSupply,
		)
	}
	ts.repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapCreated, handler)
	ts.repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapUpdated, handler)
	ts.repoManager.RegisterHandlerForTreasuryEvent(domain.TreasuryCapDissolved, handler)
}
