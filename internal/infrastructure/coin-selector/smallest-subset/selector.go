package smallestsubset_selector

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/vulpemventures/coinvault/internal/core/domain"
	"github.com/vulpemventures/coinvault/internal/core/ports"
)

// DefaultMaxSelectionSize bounds the number of coins the combinatorial
// search runs over.
const DefaultMaxSelectionSize = 16

var (
	ErrTargetAmountNotReached = fmt.Errorf(
		"%w: not found enough coins to cover target amount", domain.ErrInsufficientFunds,
	)
)

type selector struct {
	maxSelectionSize int
}

// NewSmallestSubsetCoinSelector returns a selector that looks for the
// smallest number of coins covering the target amount. The exhaustive search
// only considers the biggest maxSelectionSize coins, if it fails, coins are
// picked greedily from the biggest one.
func NewSmallestSubsetCoinSelector(maxSelectionSize int) ports.CoinSelector {
	if maxSelectionSize <= 0 {
		maxSelectionSize = DefaultMaxSelectionSize
	}
	return &selector{maxSelectionSize}
}

func (s *selector) SelectCoins(
	coins []*domain.Coin, targetAmount uint64, targetCurrency domain.Currency,
) ([]*domain.Coin, uint64, error) {
	targetCoins := make([]*domain.Coin, 0, len(coins))
	for _, c := range coins {
		if c.IsConsumed() || c.Currency() != targetCurrency {
			continue
		}
		targetCoins = append(targetCoins, c)
	}
	if targetAmount == 0 {
		return []*domain.Coin{}, 0, nil
	}

	sort.SliceStable(targetCoins, func(i, j int) bool {
		return targetCoins[i].Value() > targetCoins[j].Value()
	})

	candidates := targetCoins
	if len(candidates) > s.maxSelectionSize {
		candidates = candidates[:s.maxSelectionSize]
	}
	values := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value())
	}

	indexes := getBestCombination(values, targetAmount)
	if len(indexes) <= 0 {
		indexes = greedySelection(targetCoins, targetAmount)
		candidates = targetCoins
	}
	if len(indexes) <= 0 {
		return nil, 0, ErrTargetAmountNotReached
	}

	selectedCoins := make([]*domain.Coin, 0, len(indexes))
	totalAmount := uint64(0)
	for _, i := range indexes {
		totalAmount = saturatingAdd(totalAmount, candidates[i].Value())
		selectedCoins = append(selectedCoins, candidates[i])
	}

	change := totalAmount - targetAmount
	return selectedCoins, change, nil
}

// greedySelection picks coins, sorted by descending value, until the target
// amount is covered.
func greedySelection(coins []*domain.Coin, target uint64) []int {
	total := uint64(0)
	indexes := make([]int, 0)
	for i, c := range coins {
		total = saturatingAdd(total, c.Value())
		indexes = append(indexes, i)
		if total >= target {
			return indexes
		}
	}
	return nil
}

// getBestCombination attempts to select as less items as possible
// covering the given target amount, and returns their indexes.
// The strategy here is to try finding exactly 1 item covering the given target
// amount or, otherwise, progressively increase the number of items until
// finding a combination that satisfies the criteria.
// If a combination exceeds the target amount, it is returned straightaway if
// its total amount is lower than 10 times the target one.
// Otherwise, if no combination satisfies this last criteria, the very first
// one found is returned.
func getBestCombination(items []uint64, target uint64) []int {
	limit := target * 10
	if target > math.MaxUint64/10 {
		limit = math.MaxUint64
	}

	var firstCovering, best []int
	for size := 1; size <= len(items); size++ {
		visitCombinations(len(items), size, func(combo []int) bool {
			total := sum(items, combo)
			if total < target {
				return true
			}
			if firstCovering == nil {
				firstCovering = append([]int{}, combo...)
			}
			if total <= limit {
				best = append([]int{}, combo...)
				return false
			}
			return true
		})
		if best != nil {
			return best
		}
	}

	return firstCovering
}

// visitCombinations calls visit for every combination of size indexes out of
// [0, n) in lexicographic order, until visit returns false.
func visitCombinations(n, size int, visit func([]int) bool) {
	combination := make([]int, 0, size)

	var walk func(offset int) bool
	walk = func(offset int) bool {
		if len(combination) == size {
			return visit(combination)
		}
		for i := offset; i <= n-(size-len(combination)); i++ {
			combination = append(combination, i)
			if !walk(i + 1) {
				return false
			}
			combination = combination[:len(combination)-1]
		}
		return true
	}
	walk(0)
}

func sum(items []uint64, indexes []int) uint64 {
	var total uint64
	for _, i := range indexes {
		total = saturatingAdd(total, items[i])
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	total, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return total
}
