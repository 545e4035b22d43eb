package sim

import "github.com/shopspring/decimal"

// Balance is the account effect of one closed trade: the chained open and
// close balances plus the intrabar extremes observed while the trade ran.
type Balance struct {
	Open     float64
	Close    float64
	High     float64
	Low      float64
	GainLoss float64
}

// round2 fixes every externally observable number to 2 decimals. Results
// chain across many trades, so this is a determinism contract rather than
// display formatting.
func round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// excursions returns the signed favorable and adverse price moves recorded
// over the life of the trade. favorable >= 0 and adverse <= 0 for any trade
// whose extremes straddle entry.
func (t *Trade) excursions() (favorable, adverse float64) {
	sign := t.Direction.Sign()
	if t.Direction == Long {
		return sign * (t.HighPrice - t.EntryPrice), sign * (t.LowPrice - t.EntryPrice)
	}
	return sign * (t.LowPrice - t.EntryPrice), sign * (t.HighPrice - t.EntryPrice)
}

// BalanceImpact computes the running-balance effect of the trade. It is
// defined only for closed trades: for an open trade it reports ok=false (a
// no-data sentinel, deliberately not an error). High and low reflect the
// maximum favorable and adverse excursions off the recorded extremes, not
// just entry and exit. The per-contract fee lands in the close and gain/loss
// only.
func (t *Trade) BalanceImpact(balanceOpen float64, contracts int, contractValue, contractFee float64) (Balance, bool) {
	if t.IsOpen {
		return Balance{}, false
	}

	c := float64(contracts)
	fav, adv := t.excursions()
	gain := t.Direction.Sign()*(t.ExitPrice-t.EntryPrice)*contractValue*c - contractFee*c

	return Balance{
		Open:     round2(balanceOpen),
		Close:    round2(balanceOpen + gain),
		High:     round2(balanceOpen + fav*contractValue*c),
		Low:      round2(balanceOpen + adv*contractValue*c),
		GainLoss: round2(gain),
	}, true
}
