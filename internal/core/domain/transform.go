package domain

const (
	// RegimeNoop is reported when no amount was requested.
	RegimeNoop TransformRegime = iota
	// RegimeDeficit is reported when the input value is lower than the sum
	// of the requested amounts.
	RegimeDeficit
	// RegimeExact is reported when the input value matches the sum of the
	// requested amounts.
	RegimeExact
	// RegimeSurplus is reported when some input value is left after all
	// requested amounts are satisfied.
	RegimeSurplus
)

var (
	regimeString = map[TransformRegime]string{
		RegimeNoop:    "noop",
		RegimeDeficit: "deficit",
		RegimeExact:   "exact",
		RegimeSurplus: "surplus",
	}
)

type TransformRegime int

func (r TransformRegime) String() string {
	return regimeString[r]
}

func (r TransformRegime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// TransformStats summarizes a coin transformation.
type TransformStats struct {
	Regime      TransformRegime
	InputCoins  int
	OutputCoins int
	// Requested is the number of requested amounts, Fulfilled the number of
	// them matched by an output coin of exactly that value. A partially
	// covered amount is not fulfilled.
	Requested int
	Fulfilled int
	// SurplusCoins is the number of leftover coins appended to the output.
	// In the deficit regime they can only hold zero value.
	SurplusCoins int
	// Splits is the number of coins split to match an amount.
	Splits int
}
