package domain

import (
	"errors"
	"fmt"
)

const (
	// KindPrecondition marks a call rejected before any mutation because
	// of bad input (witness, split count, vector lengths, currency).
	KindPrecondition ErrorKind = iota
	// KindInsufficientFunds marks a split or take asking for more than
	// what is available.
	KindInsufficientFunds
	// KindOverflow marks a sum exceeding the max representable amount.
	KindOverflow
	// KindInvariant marks a logic defect. It should be unreachable.
	KindInvariant
)

var (
	errorKindString = map[ErrorKind]string{
		KindPrecondition:      "precondition",
		KindInsufficientFunds: "insufficient funds",
		KindOverflow:          "overflow",
		KindInvariant:         "invariant violation",
	}
)

type ErrorKind int

func (k ErrorKind) String() string {
	return errorKindString[k]
}

// Error is the typed failure returned by every domain operation.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{kind, msg}
}

// KindOf returns the kind of the first domain error found in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

var (
	ErrInvalidCurrency = newError(
		KindPrecondition, "currency must be 1-64 chars among [A-Za-z0-9_:.-]",
	)
	ErrCurrencyMismatch          = newError(KindPrecondition, "currency mismatch")
	ErrCurrencyAlreadyRegistered = newError(KindPrecondition, "currency already registered")
	ErrWitnessConsumed           = newError(KindPrecondition, "one-time witness already consumed")
	ErrTreasuryCapDissolved      = newError(KindPrecondition, "treasury cap already dissolved")
	ErrCoinConsumed              = newError(KindPrecondition, "coin already consumed")
	ErrNonZeroCoin               = newError(KindPrecondition, "coin value must be zero")
	ErrEmptyCoinList             = newError(KindPrecondition, "coin list must not be empty")
	ErrDuplicatedCoin            = newError(KindPrecondition, "coin list contains duplicates")
	ErrInvalidSplitCount         = newError(
		KindPrecondition, "split count must be in range [1, coin value]",
	)
	ErrTooManyCoins       = newError(KindPrecondition, "too many coins")
	ErrRecipientsMismatch = newError(
		KindPrecondition, "recipients and amounts must have the same length",
	)
	ErrMissingOwner        = newError(KindPrecondition, "missing coin owner")
	ErrCoinNotFound        = newError(KindPrecondition, "coin not found")
	ErrTreasuryCapNotFound = newError(KindPrecondition, "treasury cap not found")

	ErrInsufficientFunds = newError(KindInsufficientFunds, "insufficient funds")

	ErrOverflow = newError(KindOverflow, "amount exceeds max representable value")

	ErrSupplyUnderflow     = newError(KindInvariant, "supply underflow")
	ErrEmptyMergeSet       = newError(KindInvariant, "empty merge set")
	ErrAccumulatorOverflow = newError(KindInvariant, "accumulator overflow")
	ErrValueNotConserved   = newError(KindInvariant, "value not conserved")
)

// wrapf decorates a domain sentinel with call details while keeping it
// reachable by errors.Is and KindOf.
func wrapf(err *Error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, a...))
}
