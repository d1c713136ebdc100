package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		expected uint64
		wantErr  bool
	}{
		{name: "integer", amount: "100", expected: 100},
		{name: "zero", amount: "0", expected: 0},
		{name: "max", amount: "18446744073709551615", expected: 18446744073709551615},
		{name: "scaled", amount: "1.5", decimals: 8, expected: 150000000},
		{name: "scaled integer", amount: " 2 ", decimals: 2, expected: 200},
		{name: "too many decimals", amount: "1.5", wantErr: true},
		{name: "negative", amount: "-1", wantErr: true},
		{name: "out of range", amount: "18446744073709551616", wantErr: true},
		{name: "scaled out of range", amount: "18446744073709551615", decimals: 1, wantErr: true},
		{name: "not a number", amount: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decimals = tt.decimals
			t.Cleanup(func() { decimals = 0 })

			amount, err := parseAmount(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, amount)
		})
	}
}

func TestParseCoinIDs(t *testing.T) {
	t.Parallel()

	ids, err := parseCoinIDs([]string{
		"5d6f3c1e-8a0b-4b8e-9a6f-2f8d7c1b0a11",
		"0b0c9a4e-3d2f-4e1a-8b7c-6a5d4c3b2a10",
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	_, err = parseCoinIDs([]string{"not-an-id"})
	require.Error(t, err)
}
