package cli

import (
	"fmt"
	"strings"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
)

// toBaseUnits converts a decimal token amount such as "12.5" to base units.
func toBaseUnits(s string) (string, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > ledger.Decimals {
		return "", fmt.Errorf("amount %q has more than %d decimals", s, ledger.Decimals)
	}
	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", ledger.Decimals-len(frac)), "0")
	if digits == "" {
		digits = "0"
	}
	v, err := ledger.ParseAmount(digits)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	return v.Dec(), nil
}

// formatTokens renders a base-unit amount as tokens, trimming trailing zeros.
func formatTokens(base string) string {
	v, err := ledger.ParseAmount(base)
	if err != nil {
		return base
	}
	dec := v.Dec()
	if len(dec) <= ledger.Decimals {
		dec = strings.Repeat("0", ledger.Decimals-len(dec)+1) + dec
	}
	whole, frac := dec[:len(dec)-ledger.Decimals], strings.TrimRight(dec[len(dec)-ledger.Decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
