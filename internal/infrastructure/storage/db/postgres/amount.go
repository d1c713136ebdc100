package postgresdb

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(20, 0) since BIGINT can't hold every uint64.

func amountToNumeric(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}

func numericToAmount(value decimal.Decimal) (uint64, error) {
	if value.IsNegative() || !value.IsInteger() {
		return 0, fmt.Errorf("invalid amount %s", value)
	}
	amount := value.BigInt()
	if !amount.IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds max uint64", value)
	}
	return amount.Uint64(), nil
}
