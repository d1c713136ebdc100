package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CoinInfo is a light view of a coin, used in events and listings.
type CoinInfo struct {
	ID       uuid.UUID
	Owner    string
	Currency Currency
	Amount   uint64
}

func (i CoinInfo) String() string {
	return fmt.Sprintf("{%s: %d %s}", i.ID, i.Amount, i.Currency)
}

// Coin is a uniquely identified, single-owner object wrapping a Balance.
// Once unwrapped (joined into another coin, burned, put into a balance) the
// coin is consumed: its identity is discarded and every further operation
// on it fails with ErrCoinConsumed.
type Coin struct {
	ID      uuid.UUID
	Owner   string
	Balance Balance
}

// NewCoin wraps the given balance into a brand new coin.
func NewCoin(balance Balance, owner string) *Coin {
	return &Coin{
		ID:      uuid.New(),
		Owner:   owner,
		Balance: balance,
	}
}

// ZeroCoin returns a new coin of the given currency with zero value.
func ZeroCoin(currency Currency, owner string) *Coin {
	return NewCoin(ZeroBalance(currency), owner)
}

// Take splits amount out of the given balance into a new coin.
func Take(balance *Balance, amount uint64, owner string) (*Coin, error) {
	b, err := balance.Split(amount)
	if err != nil {
		return nil, err
	}
	return NewCoin(b, owner), nil
}

// Put merges the coin's value into the given balance and consumes the coin.
func Put(balance *Balance, c *Coin) error {
	if c.IsConsumed() {
		return ErrCoinConsumed
	}
	if err := balance.Join(c.Balance); err != nil {
		return err
	}
	c.consume()
	return nil
}

// IsConsumed returns whether the coin identity has been discarded.
func (c *Coin) IsConsumed() bool {
	return c.ID == uuid.Nil
}

// Value returns the amount held by the coin.
func (c *Coin) Value() uint64 {
	return c.Balance.Value()
}

func (c *Coin) Currency() Currency {
	return c.Balance.Currency
}

// Info returns a light view of the current coin.
func (c *Coin) Info() CoinInfo {
	return CoinInfo{c.ID, c.Owner, c.Balance.Currency, c.Balance.Amount}
}

// Clone returns a deep copy of the coin, identity included.
func (c *Coin) Clone() *Coin {
	clone := *c
	return &clone
}

// Unwrap consumes the coin and returns its balance.
func (c *Coin) Unwrap() (Balance, error) {
	if c.IsConsumed() {
		return Balance{}, ErrCoinConsumed
	}
	b := c.Balance
	c.consume()
	return b, nil
}

// DestroyZero consumes a coin with zero value.
func (c *Coin) DestroyZero() error {
	if c.IsConsumed() {
		return ErrCoinConsumed
	}
	if c.Value() != 0 {
		return wrapf(ErrNonZeroCoin, "coin %s holds %d", c.ID, c.Value())
	}
	c.consume()
	return nil
}

// Transfer moves the coin ownership to the given owner.
func (c *Coin) Transfer(owner string) error {
	if c.IsConsumed() {
		return ErrCoinConsumed
	}
	if len(owner) == 0 {
		return ErrMissingOwner
	}
	c.Owner = owner
	return nil
}

// Join merges other into the coin. other is consumed, the coin identity is
// preserved. Neither coin changes on failure.
func (c *Coin) Join(other *Coin) error {
	if c.IsConsumed() || other.IsConsumed() {
		return ErrCoinConsumed
	}
	if c == other || c.ID == other.ID {
		return wrapf(ErrDuplicatedCoin, "cannot join coin %s with itself", c.ID)
	}
	if err := c.Balance.Join(other.Balance); err != nil {
		return err
	}
	other.consume()
	return nil
}

// Split removes amount from the coin into a new one with the same owner.
func (c *Coin) Split(amount uint64) (*Coin, error) {
	if c.IsConsumed() {
		return nil, ErrCoinConsumed
	}
	return Take(&c.Balance, amount, c.Owner)
}

// DivideIntoN splits the coin into n coins: n-1 new ones holding
// floor(value/n) each, the remainder staying in the current coin.
func (c *Coin) DivideIntoN(n uint64) ([]*Coin, error) {
	if c.IsConsumed() {
		return nil, ErrCoinConsumed
	}
	if n == 0 || n > c.Value() {
		return nil, wrapf(
			ErrInvalidSplitCount, "got %d for coin value %d", n, c.Value(),
		)
	}

	share := c.Value() / n
	coins := make([]*Coin, 0, n-1)
	for i := uint64(0); i < n-1; i++ {
		coin, err := c.Split(share)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, nil
}

// SplitAmounts splits one new coin out of the current one for every given
// amount, in order. The coin is left untouched if the amounts exceed its
// value.
func (c *Coin) SplitAmounts(amounts []uint64) ([]*Coin, error) {
	if c.IsConsumed() {
		return nil, ErrCoinConsumed
	}

	total, ok := SumAmounts(amounts)
	if !ok {
		return nil, wrapf(ErrInsufficientFunds, "requested amounts overflow")
	}
	if total > c.Value() {
		return nil, wrapf(
			ErrInsufficientFunds, "requested %d, available %d", total, c.Value(),
		)
	}

	coins := make([]*Coin, 0, len(amounts))
	for _, amount := range amounts {
		coin, err := c.Split(amount)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, nil
}

// JoinAll merges every coin into the first one, which is returned. Coins are
// popped from the tail of the list. The first coin identity survives the
// merge, all the others are consumed. No coin changes on failure.
func JoinAll(coins []*Coin) (*Coin, error) {
	if len(coins) == 0 {
		return nil, ErrEmptyCoinList
	}
	if err := ValidateCoins(coins); err != nil {
		return nil, err
	}
	values := make([]uint64, 0, len(coins))
	for _, c := range coins {
		values = append(values, c.Value())
	}
	if _, ok := SumAmounts(values); !ok {
		return nil, wrapf(ErrOverflow, "joining %d coins", len(coins))
	}

	first := coins[0]
	for rest := coins[1:]; len(rest) > 0; rest = rest[:len(rest)-1] {
		if err := first.Join(rest[len(rest)-1]); err != nil {
			return nil, err
		}
	}
	return first, nil
}

func (c *Coin) consume() {
	c.ID = uuid.Nil
	c.Balance.Amount = 0
}

// ValidateCoins makes sure all coins are live, distinct and of the same
// currency.
func ValidateCoins(coins []*Coin) error {
	seen := make(map[uuid.UUID]struct{}, len(coins))
	for _, c := range coins {
		if c.IsConsumed() {
			return ErrCoinConsumed
		}
		if c.Currency() != coins[0].Currency() {
			return wrapf(
				ErrCurrencyMismatch, "%s != %s", c.Currency(), coins[0].Currency(),
			)
		}
		if _, ok := seen[c.ID]; ok {
			return wrapf(ErrDuplicatedCoin, "coin %s", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// SumAmounts returns the sum of the given amounts and whether it fits
// MaxAmount.
func SumAmounts(amounts []uint64) (uint64, bool) {
	var total uint64
	for _, a := range amounts {
		if a > MaxAmount-total {
			return 0, false
		}
		total += a
	}
	return total, true
}

