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

// CoinService is responsible for operations related to coins:
//   - Get and list coins, and get balances by owner.
//   - Join and split coins.
//   - Transform a set of coins into coins of requested amounts, optionally
//     sending them to a list of recipients.
//   - Transfer coins to a new owner.
//
// Every operation works on copies of the stored coins and commits the result
// with a single repository update, therefore either all or none of the coins
// involved are changed.
//
// The service registers handlers for every coin event to keep track of them
// in the metrics collector.
type CoinService struct {
	repoManager ports.RepoManager
	selector    ports.CoinSelector
	transformer ports.CoinTransformer
	metrics     ports.Metrics

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewCoinService(
	repoManager ports.RepoManager, selector ports.CoinSelector,
	transformer ports.CoinTransformer, metrics ports.Metrics,
) *CoinService {
	if selector == nil {
		selector = DefaultCoinSelector
	}
	if transformer == nil {
		transformer = DefaultCoinTransformer
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("coin service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("coin service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	svc := &CoinService{
		repoManager, selector, transformer, metricsOrNoop(metrics), logFn, warnFn,
	}
	svc.registerHandlerForCoinEvents()
	return svc
}

func (cs *CoinService) GetCoin(
	ctx context.Context, id uuid.UUID,
) (*domain.CoinInfo, error) {
	coins, err := cs.getCoins(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	info := coins[0].Info()
	return &info, nil
}

// ListCoins returns the coins of the given owner, or all coins if owner is
// empty, optionally filtered by currency.
func (cs *CoinService) ListCoins(
	ctx context.Context, owner string, currency domain.Currency,
) (CoinsInfo, error) {
	if len(owner) > 0 {
		coins, err := cs.repoManager.CoinRepository().GetCoinsForOwner(
			ctx, owner, currency,
		)
		if err != nil {
			return nil, err
		}
		return coinsInfo(coins), nil
	}

	coins, err := cs.repoManager.CoinRepository().GetAllCoins(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*domain.Coin, 0, len(coins))
	for _, c := range coins {
		if len(currency) > 0 && c.Currency() != currency {
			continue
		}
		filtered = append(filtered, c)
	}
	return coinsInfo(filtered), nil
}

func (cs *CoinService) GetBalance(
	ctx context.Context, owner string,
) (map[domain.Currency]uint64, error) {
	if len(owner) == 0 {
		return nil, domain.ErrMissingOwner
	}
	return cs.repoManager.CoinRepository().GetBalanceForOwner(ctx, owner)
}

// Join merges the value of other into the coin identified by id. The
// resulting coin keeps the identity of the first one.
func (cs *CoinService) Join(
	ctx context.Context, id, otherID uuid.UUID,
) (*domain.CoinInfo, error) {
	coins, err := cs.JoinAll(ctx, []uuid.UUID{id, otherID})
	if err != nil {
		return nil, err
	}
	return &coins[0], nil
}

// JoinAll merges all the given coins into the first one.
func (cs *CoinService) JoinAll(
	ctx context.Context, ids []uuid.UUID,
) (CoinsInfo, error) {
	unlock := coinLocks.Lock(uuidsToKeys(ids)...)
	defer unlock()

	coins, err := cs.getCoins(ctx, ids)
	if err != nil {
		return nil, cs.failure("join", err)
	}

	merged, err := domain.JoinAll(coins)
	if err != nil {
		return nil, cs.failure("join", err)
	}

	if err := cs.repoManager.CoinRepository().UpdateCoins(
		ctx, ids[1:], []*domain.Coin{merged},
	); err != nil {
		return nil, cs.failure("join", err)
	}

	cs.log("joined %d coins into %s", len(ids), merged.ID)
	return coinsInfo([]*domain.Coin{merged}), nil
}

// Split moves amount from the given coin into a new one. The updated coin
// is returned first.
func (cs *CoinService) Split(
	ctx context.Context, id uuid.UUID, amount uint64,
) (CoinsInfo, error) {
	return cs.splitCoin(ctx, "split", id, func(c *domain.Coin) ([]*domain.Coin, error) {
		split, err := c.Split(amount)
		if err != nil {
			return nil, err
		}
		return []*domain.Coin{split}, nil
	})
}

// DivideIntoN splits the given coin into n coins of equal value, the
// original one keeping the remainder. The updated coin is returned first.
func (cs *CoinService) DivideIntoN(
	ctx context.Context, id uuid.UUID, n uint64,
) (CoinsInfo, error) {
	return cs.splitCoin(ctx, "divide", id, func(c *domain.Coin) ([]*domain.Coin, error) {
		return c.DivideIntoN(n)
	})
}

// SplitAmounts splits a new coin for every given amount off the given one.
// The updated coin is returned first.
func (cs *CoinService) SplitAmounts(
	ctx context.Context, id uuid.UUID, amounts []uint64,
) (CoinsInfo, error) {
	return cs.splitCoin(ctx, "split_amounts", id, func(c *domain.Coin) ([]*domain.Coin, error) {
		return c.SplitAmounts(amounts)
	})
}

// Transfer changes the owner of the given coin.
func (cs *CoinService) Transfer(
	ctx context.Context, id uuid.UUID, recipient string,
) (*domain.CoinInfo, error) {
	unlock := coinLocks.Lock(id.String())
	defer unlock()

	coins, err := cs.getCoins(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, cs.failure("transfer", err)
	}
	c := coins[0]

	if err := c.Transfer(recipient); err != nil {
		return nil, cs.failure("transfer", err)
	}

	if err := cs.repoManager.CoinRepository().UpdateCoins(
		ctx, nil, []*domain.Coin{c},
	); err != nil {
		return nil, cs.failure("transfer", err)
	}

	info := c.Info()
	return &info, nil
}

// Transform reshapes the given coins into coins matching the requested
// amounts, followed by the surplus ones. See ports.CoinTransformer.
func (cs *CoinService) Transform(
	ctx context.Context, ids []uuid.UUID, amounts []uint64,
) (*TransformResult, error) {
	return cs.transform(ctx, ids, amounts, nil)
}

// TransformForOwner selects the coins of the given owner and currency that
// cover the sum of the amounts and transforms them. If the owner's coins are
// not enough, all of them are transformed.
func (cs *CoinService) TransformForOwner(
	ctx context.Context, owner string, currency domain.Currency, amounts []uint64,
) (*TransformResult, error) {
	if len(owner) == 0 {
		return nil, domain.ErrMissingOwner
	}
	if err := currency.Validate(); err != nil {
		return nil, err
	}

	coins, err := cs.repoManager.CoinRepository().GetCoinsForOwner(
		ctx, owner, currency,
	)
	if err != nil {
		return nil, cs.failure("transform", err)
	}
	if len(coins) == 0 {
		return nil, cs.failure("transform", domain.ErrEmptyCoinList)
	}

	selected := coins
	if total, ok := domain.SumAmounts(amounts); ok {
		selectedCoins, _, err := cs.selector.SelectCoins(coins, total, currency)
		if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
			return nil, cs.failure("transform", err)
		}
		if err == nil {
			selected = selectedCoins
		}
		if len(selected) == 0 {
			selected = coins[:1]
		}
	}

	ids := make([]uuid.UUID, 0, len(selected))
	for _, c := range selected {
		ids = append(ids, c.ID)
	}

	return cs.transform(ctx, ids, amounts, nil)
}

// TransformAndSend transforms the given coins and sends the i-th resulting
// coin to the i-th recipient. Surplus coins stay with their owner. The coins
// must cover the sum of the amounts.
func (cs *CoinService) TransformAndSend(
	ctx context.Context, ids []uuid.UUID, amounts []uint64, recipients []string,
) (*TransformResult, error) {
	if len(recipients) != len(amounts) {
		return nil, cs.failure("send", fmt.Errorf(
			"%w: got %d recipients for %d amounts",
			domain.ErrRecipientsMismatch, len(recipients), len(amounts),
		))
	}
	for _, r := range recipients {
		if len(r) == 0 {
			return nil, cs.failure("send", domain.ErrMissingOwner)
		}
	}
	return cs.transform(ctx, ids, amounts, recipients)
}

func (cs *CoinService) transform(
	ctx context.Context, ids []uuid.UUID, amounts []uint64, recipients []string,
) (*TransformResult, error) {
	op := "transform"
	if recipients != nil {
		op = "send"
	}

	unlock := coinLocks.Lock(uuidsToKeys(ids)...)
	defer unlock()

	coins, err := cs.getCoins(ctx, ids)
	if err != nil {
		return nil, cs.failure(op, err)
	}

	if recipients != nil {
		if err := checkCoverage(coins, amounts); err != nil {
			return nil, cs.failure(op, err)
		}
	}

	var currency domain.Currency
	if len(coins) > 0 {
		currency = coins[0].Currency()
	}

	out, stats, err := cs.transformer.TransformWithStats(coins, amounts)
	if err != nil {
		return nil, cs.failure(op, err)
	}

	for i := range recipients {
		if err := out[i].Transfer(recipients[i]); err != nil {
			return nil, cs.failure(op, err)
		}
	}

	if stats.Regime != domain.RegimeNoop {
		outIds := make(map[uuid.UUID]struct{}, len(out))
		for _, c := range out {
			outIds[c.ID] = struct{}{}
		}
		consumed := make([]uuid.UUID, 0)
		for _, id := range ids {
			if _, ok := outIds[id]; !ok {
				consumed = append(consumed, id)
			}
		}

		if err := cs.repoManager.CoinRepository().UpdateCoins(
			ctx, consumed, out,
		); err != nil {
			return nil, cs.failure(op, err)
		}
	}

	cs.metrics.ObserveTransform(currency, *stats)
	cs.log(
		"transformed %d coins into %d (regime: %s, splits: %d)",
		stats.InputCoins, stats.OutputCoins, stats.Regime, stats.Splits,
	)

	return &TransformResult{coinsInfo(out), *stats}, nil
}

func (cs *CoinService) splitCoin(
	ctx context.Context, op string, id uuid.UUID,
	splitFn func(c *domain.Coin) ([]*domain.Coin, error),
) (CoinsInfo, error) {
	unlock := coinLocks.Lock(id.String())
	defer unlock()

	coins, err := cs.getCoins(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, cs.failure(op, err)
	}
	c := coins[0]

	newCoins, err := splitFn(c)
	if err != nil {
		return nil, cs.failure(op, err)
	}

	updated := append([]*domain.Coin{c}, newCoins...)
	if err := cs.repoManager.CoinRepository().UpdateCoins(
		ctx, nil, updated,
	); err != nil {
		return nil, cs.failure(op, err)
	}

	cs.log("split %d coins off %s", len(newCoins), c.ID)
	return coinsInfo(updated), nil
}

// getCoins returns the stored coins in the same order of the given ids.
func (cs *CoinService) getCoins(
	ctx context.Context, ids []uuid.UUID,
) ([]*domain.Coin, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatedCoin, id)
		}
		seen[id] = struct{}{}
	}

	coins, err := cs.repoManager.CoinRepository().GetCoinsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	coinsByID := make(map[uuid.UUID]*domain.Coin, len(coins))
	for _, c := range coins {
		coinsByID[c.ID] = c
	}
	sorted := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		c, ok := coinsByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrCoinNotFound, id)
		}
		sorted = append(sorted, c)
	}
	return sorted, nil
}

func (cs *CoinService) failure(op string, err error) error {
	cs.metrics.ObserveFailure(op, err)
	kind, ok := domain.KindOf(err)
	if !ok {
		cs.warn(err, "%s failed", op)
		return err
	}
	if kind == domain.KindInvariant {
		log.WithError(err).Errorf("coin service: %s violated an invariant", op)
	}
	return err
}

func (cs *CoinService) registerHandlerForCoinEvents() {
	handler := func(event domain.CoinEvent) {
		cs.metrics.ObserveCoinEvent(event)
		cs.log("%s %d coins", event.EventType, len(event.Coins))
	}
	cs.repoManager.RegisterHandlerForCoinEvent(domain.CoinsAdded, handler)
	cs.repoManager.RegisterHandlerForCoinEvent(domain.CoinsUpdated, handler)
	cs.repoManager.RegisterHandlerForCoinEvent(domain.CoinsConsumed, handler)
}

// checkCoverage makes sure the coins are worth at least the sum of the
// amounts.
func checkCoverage(coins []*domain.Coin, amounts []uint64) error {
	requested, ok := domain.SumAmounts(amounts)
	if !ok {
		return fmt.Errorf("%w: requested amounts overflow", domain.ErrInsufficientFunds)
	}
	var total uint64
	for _, c := range coins {
		sum := total + c.Value()
		if sum < total {
			return nil
		}
		total = sum
	}
	if total < requested {
		return fmt.Errorf(
			"%w: coins worth %d, requested %d",
			domain.ErrInsufficientFunds, total, requested,
		)
	}
	return nil
}

func uuidsToKeys(ids []uuid.UUID) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	return keys
}
