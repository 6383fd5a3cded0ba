package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"valid integer", "100", false},
		{"valid decimal", "10.50", false},
		{"tiny", "0.000001", false},
		{"empty", "", true},
		{"zero", "0", true},
		{"negative", "-5", true},
		{"not a number", "abc", true},
		{"trailing garbage", "10.5x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := ValidateAmount(tt.amount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec.IsPositive())
		})
	}
}

func TestValidateAddress(t *testing.T) {
	valid := "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1"
	assert.NoError(t, ValidateAddress(valid))

	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"no prefix", valid[2:]},
		{"too short", "0xE4d365"},
		{"too long", valid + "ff"},
		{"non-hex", "0xZZd365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateAddress(tt.address))
		})
	}
}

func TestValidateTxHash(t *testing.T) {
	valid := "0x" + "ab12" + "0000000000000000000000000000000000000000000000000000000000" + "ef"
	require.Len(t, valid, 66)
	assert.NoError(t, ValidateTxHash(valid))

	assert.Error(t, ValidateTxHash(""))
	assert.Error(t, ValidateTxHash(valid[2:]))
	assert.Error(t, ValidateTxHash(valid[:40]))
	assert.Error(t, ValidateTxHash("0x"+"zz"+valid[4:]))
}

func TestParseAmountWithDecimals(t *testing.T) {
	got, err := ParseAmountWithDecimals("10.50", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_500_000), got)

	got, err = ParseAmountWithDecimals("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), got)

	// More fractional digits than the token carries.
	_, err = ParseAmountWithDecimals("0.0000001", 6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal places")

	_, err = ParseAmountWithDecimals("-1", 6)
	assert.Error(t, err)
}

func TestFormatAmountFromBigInt(t *testing.T) {
	assert.Equal(t, "10.5", FormatAmountFromBigInt(big.NewInt(10_500_000), 6))
	assert.Equal(t, "0.000001", FormatAmountFromBigInt(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatAmountFromBigInt(big.NewInt(0), 6))
}
