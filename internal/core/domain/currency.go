package domain

import (
	"regexp"
	"sync"
)

const maxCurrencyLen = 64

var currencyRegexp = regexp.MustCompile(`^[A-Za-z0-9_:.\-]+$`)

// Currency identifies a fungible asset type at runtime. Every operation
// mixing two values checks that their currencies match.
type Currency string

func (c Currency) Validate() error {
	if len(c) == 0 || len(c) > maxCurrencyLen || !currencyRegexp.MatchString(string(c)) {
		return wrapf(ErrInvalidCurrency, "got %q", string(c))
	}
	return nil
}

func (c Currency) String() string {
	return string(c)
}

// Witness is the one-time authorization token for a currency. It can be
// obtained at most once per currency from a WitnessRegistry and is consumed
// by the first call that uses it.
type Witness struct {
	currency Currency
	consumed bool
	lock     *sync.Mutex
}

func (w *Witness) Currency() Currency {
	return w.currency
}

// IsConsumed returns whether the witness has already been used.
func (w *Witness) IsConsumed() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.consumed
}

func (w *Witness) consume() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.consumed {
		return ErrWitnessConsumed
	}
	w.consumed = true
	return nil
}

// WitnessRegistry hands out witnesses, one per currency for the whole
// lifetime of the registry.
type WitnessRegistry struct {
	claimed map[Currency]struct{}
	lock    *sync.Mutex
}

func NewWitnessRegistry() *WitnessRegistry {
	return &WitnessRegistry{
		claimed: make(map[Currency]struct{}),
		lock:    &sync.Mutex{},
	}
}

// Claim returns the one-time witness for the given currency. A second claim
// for the same currency fails with ErrCurrencyAlreadyRegistered.
func (r *WitnessRegistry) Claim(currency Currency) (*Witness, error) {
	if err := currency.Validate(); err != nil {
		return nil, err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.claimed[currency]; ok {
		return nil, wrapf(ErrCurrencyAlreadyRegistered, "%s", currency)
	}
	r.claimed[currency] = struct{}{}
	return &Witness{currency: currency, lock: &sync.Mutex{}}, nil
}

// Release gives back the claim of a witness whose treasury cap never left
// the caller, for example because persisting it failed. The released
// witness stays consumed, a new Claim returns a fresh one.
func (r *WitnessRegistry) Release(w *Witness) {
	if w == nil {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.claimed, w.currency)
}

// IsClaimed returns whether a witness was already handed out for currency.
func (r *WitnessRegistry) IsClaimed(currency Currency) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.claimed[currency]
	return ok
}
