package sim

import "math"

// Drawdown is the trailing-drawdown effect of one closed trade. Close and
// High are capped at the drawdown limit; the portion of the computed high
// above the limit is reported as TrailIncrease, the upward ratchet of the
// trailing risk limit.
type Drawdown struct {
	Open          float64
	Close         float64
	High          float64
	Low           float64
	TrailIncrease float64
}

// DrawdownImpact mirrors BalanceImpact against a trailing risk limit. Like
// BalanceImpact it reports ok=false for an open trade.
//
// Known limitation: when a multi-contract trade crosses the limit mid-trade
// the TrailIncrease value interacts inconsistently with subsequent chained
// trades. The formula is kept as-is for compatibility with existing runs.
func (t *Trade) DrawdownImpact(drawdownOpen, drawdownLimit float64, contracts int, contractValue, contractFee float64) (Drawdown, bool) {
	if t.IsOpen {
		return Drawdown{}, false
	}

	c := float64(contracts)
	fav, adv := t.excursions()
	gain := t.Direction.Sign()*(t.ExitPrice-t.EntryPrice)*contractValue*c - contractFee*c

	high := drawdownOpen + fav*contractValue*c
	trail := 0.0
	if high > drawdownLimit {
		trail = high - drawdownLimit
		high = drawdownLimit
	}

	return Drawdown{
		Open:          round2(drawdownOpen),
		Close:         round2(math.Min(drawdownOpen+gain, drawdownLimit)),
		High:          round2(high),
		Low:           round2(drawdownOpen + adv*contractValue*c),
		TrailIncrease: round2(trail),
	}, true
}
