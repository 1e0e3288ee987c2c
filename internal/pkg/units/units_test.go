package units

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToSmallestUnit(t *testing.T) {
	cases := map[string]string{
		"2.5":                  "2500000000000000000",
		"3.0":                  "3000000000000000000",
		"0":                    "0",
		" 1 ":                  "1000000000000000000",
		"0.000000000000000001": "1",
		"123456.789":           "123456789000000000000000",
	}
	for in, want := range cases {
		got, err := ToSmallestUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestToSmallestUnit_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "-1", "-0.5", "1.2.3", "0.0000000000000000001", "1e80",
		"1e2000000000", "1e2147483647", "5e-2000000000", "2e59", "1e60"} {
		_, err := ToSmallestUnit(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestToSmallestUnit_ExponentForms(t *testing.T) {
	got, err := ToSmallestUnit("0e-2000000000")
	require.NoError(t, err)
	assert.Equal(t, "0", got.String())

	got, err = ToSmallestUnit("15e-1")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", got.String())

	got, err = ToSmallestUnit("1e59")
	require.NoError(t, err)
	assert.Equal(t, 78, len(got.String()))

	got, err = ToSmallestUnit("1e60")
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, got)
}

func TestToPositiveSmallestUnit_RejectsZero(t *testing.T) {
	_, err := ToPositiveSmallestUnit("0.0")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestToDecimalUnit(t *testing.T) {
	s, err := ToDecimalUnit(big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, "0", s)

	wei, _ := new(big.Int).SetString("3500000000000000000", 10)
	s, err = ToDecimalUnit(wei)
	require.NoError(t, err)
	assert.Equal(t, "3.5", s)

	_, err = ToDecimalUnit(big.NewInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ToDecimalUnit(nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ToDecimalUnit(new(big.Int).Lsh(big.NewInt(1), 256))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRoundTrip_DecimalIsExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		whole := rapid.Uint64().Draw(t, "whole")
		frac := rapid.Uint64Range(0, 999_999_999_999_999_999).Draw(t, "frac")
		scale := rapid.IntRange(0, Decimals).Draw(t, "scale")

		// frac / 10^scale keeps at most Decimals fractional digits.
		d := decimal.NewFromBigInt(new(big.Int).SetUint64(whole), 0).
			Add(decimal.NewFromBigInt(new(big.Int).SetUint64(frac), int32(-Decimals)).Truncate(int32(scale)))

		wei, err := ToSmallestUnit(d.String())
		if err != nil {
			t.Fatalf("ToSmallestUnit(%s): %v", d.String(), err)
		}
		back, err := ToDecimalUnit(wei)
		if err != nil {
			t.Fatalf("ToDecimalUnit(%s): %v", wei, err)
		}
		got, err := decimal.NewFromString(back)
		if err != nil {
			t.Fatalf("parse %q: %v", back, err)
		}
		if !got.Equal(d) {
			t.Fatalf("round trip %s -> %s -> %s", d.String(), wei, back)
		}
	})
}

func TestRoundTrip_WeiIsExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "raw")
		wei := new(big.Int).SetBytes(raw)

		s, err := ToDecimalUnit(wei)
		if err != nil {
			t.Fatalf("ToDecimalUnit(%s): %v", wei, err)
		}
		back, err := ToSmallestUnit(s)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%s): %v", s, err)
		}
		if back.Cmp(wei) != 0 {
			t.Fatalf("round trip %s -> %s -> %s", wei, s, back)
		}
	})
}
