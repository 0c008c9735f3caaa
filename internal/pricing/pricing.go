package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a non-negative US dollar value held in cents.
type Amount int64

const (
	// Deposit is the fixed partial payment accepted for table reservations.
	Deposit Amount = 5000

	// surchargePercent is tax and service applied on top of a table's minimum spend.
	surchargePercent = 36

	// TokensPerDollar is the conversion rate between USD and in-app tokens.
	TokensPerDollar = 100
)

var ErrNegativeAmount = errors.New("amount must not be negative")

// FromDollars converts a dollar value to cents, rounding half away from zero.
func FromDollars(d float64) Amount {
	return Amount(math.Round(d * 100))
}

// ParseAmount parses a decimal dollar string such as "1360.00".
func ParseAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if f < 0 {
		return 0, ErrNegativeAmount
	}
	return FromDollars(f), nil
}

func (a Amount) Dollars() float64 {
	return float64(a) / 100
}

func (a Amount) Mul(n int) Amount {
	return a * Amount(n)
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a dollar number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*a = FromDollars(f)
	return nil
}

// Surcharge is the tax and service portion for a table minimum spend.
func Surcharge(minSpend Amount) Amount {
	if minSpend <= 0 {
		return 0
	}
	return (minSpend*surchargePercent + 50) / 100
}

// TableTotal is the minimum spend plus its surcharge.
func TableTotal(minSpend Amount) Amount {
	return minSpend + Surcharge(minSpend)
}

// Tokens converts a USD amount to its token equivalent.
func Tokens(usd Amount) int64 {
	if usd <= 0 {
		return 0
	}
	return int64(usd) * TokensPerDollar / 100
}
