package domain

import (
	"math"
)

// MaxAmount is the max value a Balance, a Coin or a Supply can hold.
const MaxAmount = uint64(math.MaxUint64)

// Balance is the raw amount container beneath a Coin. It can only be
// manipulated through Split and Join, which preserve the total value.
type Balance struct {
	Currency Currency
	Amount   uint64
}

func ZeroBalance(currency Currency) Balance {
	return Balance{Currency: currency}
}

// Value returns the amount held by the balance.
func (b *Balance) Value() uint64 {
	return b.Amount
}

// Split takes the given amount out of the balance into a new one.
func (b *Balance) Split(amount uint64) (Balance, error) {
	if amount > b.Amount {
		return Balance{}, wrapf(
			ErrInsufficientFunds, "requested %d, available %d", amount, b.Amount,
		)
	}
	b.Amount -= amount
	return Balance{b.Currency, amount}, nil
}

// Join adds other's amount to the balance. Nothing changes on failure.
func (b *Balance) Join(other Balance) error {
	if b.Currency != other.Currency {
		return wrapf(ErrCurrencyMismatch, "%s != %s", b.Currency, other.Currency)
	}
	if other.Amount > MaxAmount-b.Amount {
		return wrapf(ErrOverflow, "%d + %d", b.Amount, other.Amount)
	}
	b.Amount += other.Amount
	return nil
}

// Supply tracks the total value in circulation for one currency.
type Supply struct {
	Currency Currency
	Total    uint64
}

// NewSupply consumes the witness and returns an empty supply counter for
// its currency.
func NewSupply(w *Witness) (*Supply, error) {
	if w == nil {
		return nil, ErrWitnessConsumed
	}
	if err := w.consume(); err != nil {
		return nil, err
	}
	return &Supply{Currency: w.Currency()}, nil
}

// Value returns the total value in circulation.
func (s *Supply) Value() uint64 {
	return s.Total
}

// IncreaseSupply bumps the counter and returns a balance of the same amount.
func (s *Supply) IncreaseSupply(amount uint64) (Balance, error) {
	if amount > MaxAmount-s.Total {
		return Balance{}, wrapf(ErrOverflow, "supply %d + %d", s.Total, amount)
	}
	s.Total += amount
	return Balance{s.Currency, amount}, nil
}

// DecreaseSupply destroys the given balance and lowers the counter by its
// amount, which is returned.
func (s *Supply) DecreaseSupply(b Balance) (uint64, error) {
	if b.Currency != s.Currency {
		return 0, wrapf(ErrCurrencyMismatch, "%s != %s", b.Currency, s.Currency)
	}
	if b.Amount > s.Total {
		return 0, wrapf(ErrSupplyUnderflow, "supply %d - %d", s.Total, b.Amount)
	}
	s.Total -= b.Amount
	return b.Amount, nil
}
