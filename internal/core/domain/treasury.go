package domain

import (
	"github.com/google/uuid"
)

// TreasuryCap is the only object allowed to mint and burn coins of its
// currency. There is at most one per currency, guaranteed by the one-time
// witness consumed at creation.
type TreasuryCap struct {
	ID     uuid.UUID
	Supply Supply
}

// NewTreasuryCap consumes the given witness and returns the treasury cap for
// its currency.
func NewTreasuryCap(w *Witness) (*TreasuryCap, error) {
	supply, err := NewSupply(w)
	if err != nil {
		return nil, err
	}
	return &TreasuryCap{uuid.New(), *supply}, nil
}

func (t *TreasuryCap) Currency() Currency {
	return t.Supply.Currency
}

// IsDissolved returns whether the cap was turned into a bare supply.
func (t *TreasuryCap) IsDissolved() bool {
	return t.ID == uuid.Nil
}

// TotalSupply returns the value of all live coins of the cap's currency.
func (t *TreasuryCap) TotalSupply() uint64 {
	return t.Supply.Value()
}

// Mint creates a coin worth amount and increases the supply accordingly.
func (t *TreasuryCap) Mint(amount uint64, owner string) (*Coin, error) {
	if t.IsDissolved() {
		return nil, ErrTreasuryCapDissolved
	}
	if len(owner) == 0 {
		return nil, ErrMissingOwner
	}
	balance, err := t.Supply.IncreaseSupply(amount)
	if err != nil {
		return nil, err
	}
	return NewCoin(balance, owner), nil
}

// Burn destroys the coin and decreases the supply by its value, which is
// returned. The coin is left untouched on failure.
func (t *TreasuryCap) Burn(c *Coin) (uint64, error) {
	if t.IsDissolved() {
		return 0, ErrTreasuryCapDissolved
	}
	if c.IsConsumed() {
		return 0, ErrCoinConsumed
	}
	amount, err := t.Supply.DecreaseSupply(c.Balance)
	if err != nil {
		return 0, err
	}
	c.consume()
	return amount, nil
}

// Dissolve irreversibly turns the cap into a bare supply handle, to hand off
// supply control to a different authorization scheme.
func (t *TreasuryCap) Dissolve() (*Supply, error) {
	if t.IsDissolved() {
		return nil, ErrTreasuryCapDissolved
	}
	supply := t.Supply
	t.ID = uuid.Nil
	return &supply, nil
}
