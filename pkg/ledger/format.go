package ledger

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// cryptoCodes are shown with satoshi-level precision instead of a currency format.
var cryptoCodes = map[string]bool{
	"BTC": true,
	"ETH": true,
}

// FormatAmount renders an amount for display. Crypto assets get 8 fractional digits and a
// trailing code, codes go-money knows use its currency format, and anything else falls back to
// 2 fractional digits and a trailing code. So do amounts too large for go-money.
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if cryptoCodes[code] {
		return amount.StringFixed(8) + " " + code
	}
	if cur := money.GetCurrency(code); cur != nil {
		// go-money counts minor units in an int64
		if minor := amount.Shift(int32(cur.Fraction)).Round(0); minor.BigInt().IsInt64() {
			return cur.Formatter().Format(minor.IntPart())
		}
	}
	return amount.StringFixed(2) + " " + code
}
