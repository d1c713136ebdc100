package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "   ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}

func parseCoinID(str string) (uuid.UUID, error) {
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid coin id %q: %s", str, err)
	}
	return id, nil
}

func parseCoinIDs(strs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(strs))
	for _, str := range strs {
		id, err := parseCoinID(str)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseAmounts(strs []string) ([]uint64, error) {
	amounts := make([]uint64, 0, len(strs))
	for _, str := range strs {
		amount, err := parseAmount(str)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

// parseAmount converts a decimal string into base units, scaling it by the
// --decimals flag.
func parseAmount(str string) (uint64, error) {
	str = strings.TrimSpace(str)
	d, err := decimal.NewFromString(str)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %s", str, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", str)
	}

	d = d.Shift(int32(decimals))
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf(
			"invalid amount %q: more than %d decimal places", str, decimals,
		)
	}
	amount := d.BigInt()
	if !amount.IsUint64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", str)
	}
	return amount.Uint64(), nil
}
