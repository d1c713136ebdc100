package smallestfirst_transformer

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
	priorityqueue "github.com/vulpemventures/coinvault/pkg/priority-queue"
)

// DefaultMaxCoins is the sanity bound on the number of coins and amounts a
// single transformation accepts.
const DefaultMaxCoins = math.MaxInt64

type transformer struct {
	maxCoins uint64
}

// NewSmallestFirstCoinTransformer returns a transformer that always spends
// the smallest available coin first. A zero maxCoins means DefaultMaxCoins.
func NewSmallestFirstCoinTransformer(maxCoins uint64) ports.CoinTransformer {
	if maxCoins == 0 || maxCoins > DefaultMaxCoins {
		maxCoins = DefaultMaxCoins
	}
	return &transformer{maxCoins}
}

func (t *transformer) Transform(
	coins []*domain.Coin, amounts []uint64,
) ([]*domain.Coin, error) {
	out, _, err := t.TransformWithStats(coins, amounts)
	return out, err
}

// TransformWithStats drains the coins into a min priority queue keyed by
// value and, for every amount in order, pops the smallest coins until the
// amount is reached. The one coin overshooting the amount is split, the
// part not needed goes back to the queue. Coins collected for an amount
// are merged into the first of them. A zero amount always gets a zero
// coin, while an amount getting no value before the queue runs out gets
// no coin at all, zero coins popped for it included. Whatever is left in
// the queue is appended as surplus.
//
// Input coins are consumed or resized in place. Preconditions are checked
// before touching them.
func (t *transformer) TransformWithStats(
	coins []*domain.Coin, amounts []uint64,
) ([]*domain.Coin, *domain.TransformStats, error) {
	stats := &domain.TransformStats{
		InputCoins: len(coins),
		Requested:  len(amounts),
	}
	if len(amounts) == 0 {
		stats.Regime = domain.RegimeNoop
		stats.OutputCoins = len(coins)
		return coins, stats, nil
	}

	if err := t.validate(coins, amounts); err != nil {
		return nil, nil, err
	}

	currency := coins[0].Currency()
	owner := coins[0].Owner
	totalIn := sumCoins(coins)
	stats.Regime = regimeOf(totalIn, sumAmounts(amounts))

	entries := make([]priorityqueue.Entry[*domain.Coin], 0, len(coins))
	for _, c := range coins {
		entries = append(entries, priorityqueue.NewEntry(c.Value(), c))
	}
	queue := priorityqueue.New(entries, true)

	out := make([]*domain.Coin, 0, len(amounts)+1)
	var carried *domain.Coin
	for _, amount := range amounts {
		if queue.IsEmpty() && amount > 0 {
			continue
		}

		target := uint256.NewInt(amount)
		accumulated := uint256.NewInt(0)
		toMerge := make([]*domain.Coin, 0)

		for !queue.IsEmpty() && accumulated.Lt(target) {
			value, coin := queue.Pop()

			next := new(uint256.Int).Add(accumulated, uint256.NewInt(value))
			if !next.Gt(target) {
				toMerge = append(toMerge, coin)
				accumulated = next
				continue
			}

			needed, err := remaining(target, accumulated)
			if err != nil {
				return nil, nil, err
			}
			kept, requeued, err := splitCoin(coin, needed)
			if err != nil {
				return nil, nil, err
			}
			stats.Splits++
			queue.Insert(requeued.Value(), requeued)
			toMerge = append(toMerge, kept)
			accumulated = target
		}

		if amount == 0 {
			out = append(out, domain.ZeroCoin(currency, owner))
			stats.Fulfilled++
			continue
		}
		if len(toMerge) == 0 {
			return nil, nil, domain.ErrEmptyMergeSet
		}

		merged, err := domain.JoinAll(toMerge)
		if err != nil {
			return nil, nil, err
		}

		// Only zero coins were left for this amount: it gets no coin and
		// they go with the surplus.
		if accumulated.IsZero() {
			carried = merged
			continue
		}

		out = append(out, merged)
		if accumulated.Eq(target) {
			stats.Fulfilled++
		}
	}

	surplus := queue.Drain()
	if carried != nil {
		surplus = append(surplus, carried)
	}
	stats.SurplusCoins = len(surplus)
	out = append(out, surplus...)
	stats.OutputCoins = len(out)

	if !sumCoins(out).Eq(totalIn) {
		return nil, nil, domain.ErrValueNotConserved
	}

	return out, stats, nil
}

func (t *transformer) validate(coins []*domain.Coin, amounts []uint64) error {
	if uint64(len(coins)) > t.maxCoins {
		return fmt.Errorf(
			"%w: got %d coins, max %d", domain.ErrTooManyCoins, len(coins), t.maxCoins,
		)
	}
	if uint64(len(amounts)) > t.maxCoins {
		return fmt.Errorf(
			"%w: got %d amounts, max %d", domain.ErrTooManyCoins, len(amounts), t.maxCoins,
		)
	}
	if len(coins) == 0 {
		return domain.ErrEmptyCoinList
	}
	return domain.ValidateCoins(coins)
}

// splitCoin splits the coin so that exactly needed goes to the returned
// kept coin and the rest to the requeued one. The smaller of the two
// quantities is always the one split off into a new coin, the original coin
// holding the larger one.
func splitCoin(coin *domain.Coin, needed uint64) (kept, requeued *domain.Coin, err error) {
	surplus := coin.Value() - needed
	if needed <= surplus {
		kept, err = coin.Split(needed)
		return kept, coin, err
	}
	requeued, err = coin.Split(surplus)
	return coin, requeued, err
}

func remaining(target, accumulated *uint256.Int) (uint64, error) {
	if accumulated.Gt(target) {
		return 0, domain.ErrAccumulatorOverflow
	}
	needed := new(uint256.Int).Sub(target, accumulated)
	if !needed.IsUint64() {
		return 0, domain.ErrAccumulatorOverflow
	}
	return needed.Uint64(), nil
}

func regimeOf(totalIn, totalRequested *uint256.Int) domain.TransformRegime {
	switch totalIn.Cmp(totalRequested) {
	case -1:
		return domain.RegimeDeficit
	case 0:
		return domain.RegimeExact
	default:
		return domain.RegimeSurplus
	}
}

func sumCoins(coins []*domain.Coin) *uint256.Int {
	total := uint256.NewInt(0)
	for _, c := range coins {
		total.Add(total, uint256.NewInt(c.Value()))
	}
	return total
}

func sumAmounts(amounts []uint64) *uint256.Int {
	total := uint256.NewInt(0)
	for _, a := range amounts {
		total.Add(total, uint256.NewInt(a))
	}
	return total
}
