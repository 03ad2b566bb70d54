package dashboard

import (
	"errors"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// DefaultDecimals is the number of decimals of an ERC-20 style token.
const DefaultDecimals = 18

var (
	ErrInvalidAmount  = errors.New("amount is not a decimal number")
	ErrAmountOverflow = errors.New("amount does not fit in uint256")
)

// ParseAmount converts a decimal token amount such as "1.5" into the token's
// smallest unit. Fractional digits beyond decimals are truncated. Signs other
// than a leading '+' and exponent notation are rejected. The result may be
// zero; callers decide whether zero is acceptable.
func ParseAmount(input string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return nil, ErrInvalidAmount
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, ErrInvalidAmount
	}
	if whole == "" && frac == "" {
		return nil, ErrInvalidAmount
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, ErrInvalidAmount
	}

	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
