// Package units converts between decimal ether amounts and integer wei.
package units

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits between the display unit and the ledger unit.
const Decimals = 18

var ErrInvalidAmount = errors.New("Invalid amount")

// maxUint256 is the largest amount a ledger word can carry.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// maxDigits is the decimal width of maxUint256.
var maxDigits = int64(len(maxUint256.String()))

// ToSmallestUnit parses a decimal ether string into wei. Amounts with more than
// Decimals fractional digits are rejected instead of rounded.
func ToSmallestUnit(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if d.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	// Bound the magnitude from the exponent before any big.Int work: "1e2000000000" parses.
	exp := int64(d.Exponent()) + Decimals
	digits := int64(d.NumDigits())
	if exp >= 0 && digits+exp > maxDigits {
		return nil, ErrInvalidAmount
	}
	if exp < 0 && -exp >= digits {
		return nil, ErrInvalidAmount
	}
	wei := d.Shift(Decimals)
	if !wei.IsInteger() {
		return nil, ErrInvalidAmount
	}
	out := wei.BigInt()
	if out.Cmp(maxUint256) > 0 {
		return nil, ErrInvalidAmount
	}
	return out, nil
}

// ToDecimalUnit renders wei as the shortest exact decimal ether string.
func ToDecimalUnit(wei *big.Int) (string, error) {
	if wei == nil || wei.Sign() < 0 || wei.Cmp(maxUint256) > 0 {
		return "", ErrInvalidAmount
	}
	return decimal.NewFromBigInt(wei, -Decimals).String(), nil
}

// MustDecimal is ToDecimalUnit for values already known to be ledger-representable.
// Invalid input renders as "0".
func MustDecimal(wei *big.Int) string {
	s, err := ToDecimalUnit(wei)
	if err != nil {
		return "0"
	}
	return s
}

// ToPositiveSmallestUnit is ToSmallestUnit that also rejects zero.
func ToPositiveSmallestUnit(amount string) (*big.Int, error) {
	wei, err := ToSmallestUnit(amount)
	if err != nil {
		return nil, err
	}
	if wei.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	return wei, nil
}
