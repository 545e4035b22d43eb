package market

import (
	"fmt"
	"strings"
)

// Symbol carries the instrument metadata the simulator needs: the minimum
// price increment and the account value of one tick for one contract.
type Symbol struct {
	Name      string
	TickSize  float64
	TickValue float64
}

// Symbols is the known futures roots.
var Symbols = map[string]Symbol{
	"ES":  {Name: "ES", TickSize: 0.25, TickValue: 12.50},
	"MES": {Name: "MES", TickSize: 0.25, TickValue: 1.25},
	"NQ":  {Name: "NQ", TickSize: 0.25, TickValue: 5.00},
	"MNQ": {Name: "MNQ", TickSize: 0.25, TickValue: 0.50},
	"YM":  {Name: "YM", TickSize: 1.00, TickValue: 5.00},
	"MYM": {Name: "MYM", TickSize: 1.00, TickValue: 0.50},
	"RTY": {Name: "RTY", TickSize: 0.10, TickValue: 5.00},
	"CL":  {Name: "CL", TickSize: 0.01, TickValue: 10.00},
	"GC":  {Name: "GC", TickSize: 0.10, TickValue: 10.00},
}

// monthCodes are the CME contract month letters.
const monthCodes = "FGHJKMNQUVXZ"

// NormalizeSymbol maps a raw symbol string to its Symbol metadata. It accepts
// a bare root ("es", "ES") or a dated contract ("ESZ4", "ESZ24") and resolves
// both to the root. All symbol inputs go through here exactly once, at
// construction time.
func NormalizeSymbol(raw string) (Symbol, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Symbol{}, fmt.Errorf("empty symbol")
	}
	if sym, ok := Symbols[s]; ok {
		return sym, nil
	}

	// Strip a trailing contract month + year, e.g. ESZ4 or ESZ24.
	trimmed := strings.TrimRight(s, "0123456789")
	if len(trimmed) > 1 && len(trimmed) < len(s) {
		if strings.ContainsRune(monthCodes, rune(trimmed[len(trimmed)-1])) {
			if sym, ok := Symbols[trimmed[:len(trimmed)-1]]; ok {
				return sym, nil
			}
		}
	}

	return Symbol{}, fmt.Errorf("unknown symbol %q", raw)
}
