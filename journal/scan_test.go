package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTradesClean(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-a", "bt-1", base)))
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-a", "bt-1", base.Add(30*time.Minute))))

	report, err := j.ScanTrades(ctx, "bt-1")
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, "bt-1", report.BtID)
}

func TestScanTradesDuplicate(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	// Same symbol and open time under two different series.
	base := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-a", "bt-1", base)))
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-b", "bt-1", base)))

	report, err := j.ScanTrades(ctx, "bt-1")
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueDuplicate, report.Issues[0].Kind)
	assert.Equal(t, "ES", report.Issues[0].Symbol)
	assert.Equal(t, 2, report.Checked)
}

func TestScanTradesBarOverlap(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	// Two trades of one series opening inside the same 30m bar.
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-a", "bt-1",
		time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC))))
	require.NoError(t, j.StoreTrade(ctx, tradeRec(t, "ts-a", "bt-1",
		time.Date(2024, 3, 4, 9, 47, 0, 0, time.UTC))))

	report, err := j.ScanTrades(ctx, "bt-1")
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueBarOverlap, report.Issues[0].Kind)
	assert.Equal(t, "ts-a", report.Issues[0].TsID)
	assert.Contains(t, report.Issues[0].Detail, "09:30:00")
}

func TestScanTradesBadRecord(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	rec := tradeRec(t, "ts-a", "bt-1", time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC))
	rec.OpenTime = "yesterday-ish"
	require.NoError(t, j.StoreTrade(ctx, rec))

	report, err := j.ScanTrades(ctx, "bt-1")
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueBadRecord, report.Issues[0].Kind)
	assert.False(t, report.Clean())
}
