package dashboard

import (
	"math/big"
	"strings"
)

// PenaltyPercent is the share of pending rewards shown as the unstake
// penalty. It is not read from the contract.
const PenaltyPercent = 10

// PenaltyPlaces is the number of fractional digits of the displayed penalty.
const PenaltyPlaces = 4

// FormatUnits renders an amount in the token's smallest unit as a decimal
// string with trailing fractional zeros removed. nil renders as "0".
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}

	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	whole, rem := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))

	out := whole.String()
	if rem.Sign() != 0 {
		frac := rem.String()
		frac = strings.Repeat("0", decimals-len(frac)) + frac
		out += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatFixed renders v (smallest unit) with exactly places fractional
// digits, rounding half up.
func FormatFixed(v *big.Int, decimals, places int) string {
	if v == nil {
		v = new(big.Int)
	}

	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	var scaled *big.Int
	if places >= decimals {
		scaled = new(big.Int).Mul(abs, pow10(places-decimals))
	} else {
		div := pow10(decimals - places)
		scaled = new(big.Int).Add(abs, new(big.Int).Rsh(div, 1))
		scaled.Quo(scaled, div)
	}

	return fixedString(scaled, places, neg && scaled.Sign() != 0)
}

func fixedString(scaled *big.Int, places int, neg bool) string {
	digits := scaled.String()
	if places > 0 {
		if len(digits) <= places {
			digits = strings.Repeat("0", places-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-places] + "." + digits[len(digits)-places:]
	}
	if neg {
		digits = "-" + digits
	}
	return digits
}

// Penalty renders the estimated unstake penalty: PenaltyPercent of pending
// rewards with PenaltyPlaces fractional digits. Absent or zero rewards render
// as "0".
func Penalty(rewards *big.Int, decimals int) string {
	if rewards == nil || rewards.Sign() == 0 {
		return "0"
	}
	// rewards * percent / 100, rounded to PenaltyPlaces in one step
	num := new(big.Int).Mul(rewards, big.NewInt(PenaltyPercent))
	num.Mul(num, pow10(PenaltyPlaces))
	den := new(big.Int).Mul(big.NewInt(100), pow10(decimals))

	neg := num.Sign() < 0
	num.Abs(num)
	num.Add(num, new(big.Int).Rsh(den, 1))
	num.Quo(num, den)

	return fixedString(num, PenaltyPlaces, neg && num.Sign() != 0)
}
