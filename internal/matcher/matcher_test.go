package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/orderindex"
)

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func newIndex() *orderindex.Index {
	return orderindex.New([]domain.Order{
		{ID: "OD123", TrackingNumbers: []string{"TH999"}, TotalAmount: amount(1500)},
		{ID: "OD200", TrackingNumbers: []string{"TH200"}, TotalAmount: amount(800)},
		{ID: "OD300", TrackingNumbers: []string{"TH300"}},
	})
}

func TestMatcher_Matched(t *testing.T) {
	out := NewMatcher(DefaultTolerance).Match([]domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH999", Amount: decimal.NewFromInt(1500)},
	}, newIndex())

	require.Len(t, out.Results, 1)
	r := out.Results[0]
	assert.Equal(t, domain.Matched, r.Status)
	assert.Equal(t, "OD123", *r.MatchedOrderID)
	assert.True(t, r.Diff.IsZero())
}

func TestMatcher_AmountMismatch(t *testing.T) {
	out := NewMatcher(DefaultTolerance).Match([]domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH999", Amount: decimal.NewFromInt(1400)},
	}, newIndex())

	r := out.Results[0]
	assert.Equal(t, domain.AmountMismatch, r.Status)
	assert.True(t, r.Diff.Equal(decimal.NewFromInt(100)))
}

func TestMatcher_UnmatchedInFile(t *testing.T) {
	out := NewMatcher(DefaultTolerance).Match([]domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH777", Amount: decimal.NewFromInt(500)},
	}, newIndex())

	r := out.Results[0]
	assert.Equal(t, domain.UnmatchedInFile, r.Status)
	assert.Nil(t, r.MatchedOrderID)
	assert.True(t, r.Diff.IsZero())
}

func TestMatcher_ToleranceBoundary(t *testing.T) {
	m := NewMatcher(DefaultTolerance)
	idx := newIndex()

	within := m.Match([]domain.ImportRecord{{SourceRow: 1, ExternalRef: "OD123", Amount: decimal.RequireFromString("1499.01")}}, idx)
	assert.Equal(t, domain.Matched, within.Results[0].Status)

	atLimit := m.Match([]domain.ImportRecord{{SourceRow: 1, ExternalRef: "OD123", Amount: decimal.NewFromInt(1501)}}, idx)
	assert.Equal(t, domain.AmountMismatch, atLimit.Results[0].Status)
	assert.True(t, atLimit.Results[0].Diff.Equal(decimal.NewFromInt(-1)))
}

func TestMatcher_MissingOrderTotalCountsAsZero(t *testing.T) {
	out := NewMatcher(DefaultTolerance).Match([]domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH300", Amount: decimal.NewFromInt(10)},
	}, newIndex())

	assert.Equal(t, domain.AmountMismatch, out.Results[0].Status)
	assert.True(t, out.Results[0].Diff.Equal(decimal.NewFromInt(-10)))
}

func TestMatcher_OrderAndUnmatchedInSystem(t *testing.T) {
	records := []domain.ImportRecord{
		{SourceRow: 4, ExternalRef: "TH777", Amount: decimal.NewFromInt(1)},
		{SourceRow: 2, ExternalRef: "TH999", Amount: decimal.NewFromInt(1500)},
		{SourceRow: 9, ExternalRef: "OD123", Amount: decimal.NewFromInt(1500)},
	}

	out := NewMatcher(DefaultTolerance).Match(records, newIndex())

	require.Len(t, out.Results, 3)
	assert.Equal(t, 4, out.Results[0].Record.SourceRow)
	assert.Equal(t, 2, out.Results[1].Record.SourceRow)
	assert.Equal(t, 9, out.Results[2].Record.SourceRow)
	assert.Equal(t, 0, out.Results[1].DuplicateOfRow)
	assert.Equal(t, 2, out.Results[2].DuplicateOfRow)

	require.Len(t, out.UnmatchedInSystem, 2)
	assert.Equal(t, "OD200", *out.UnmatchedInSystem[0].MatchedOrderID)
	assert.Equal(t, "OD300", *out.UnmatchedInSystem[1].MatchedOrderID)
	assert.True(t, out.UnmatchedInSystem[0].Diff.Equal(decimal.NewFromInt(800)))
}

func TestMatcher_Deterministic(t *testing.T) {
	records := []domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH999", Amount: decimal.NewFromInt(1400)},
		{SourceRow: 2, ExternalRef: "TH200", Amount: decimal.NewFromInt(800)},
	}
	m := NewMatcher(DefaultTolerance)
	idx := newIndex()

	assert.Equal(t, m.Match(records, idx), m.Match(records, idx))
}

func TestTotals(t *testing.T) {
	out := NewMatcher(DefaultTolerance).Match([]domain.ImportRecord{
		{SourceRow: 1, ExternalRef: "TH999", Amount: decimal.NewFromInt(1400)},
		{SourceRow: 2, ExternalRef: "TH200", Amount: decimal.NewFromInt(900)},
		{SourceRow: 3, ExternalRef: "NOPE", Amount: decimal.NewFromInt(5)},
	}, newIndex())

	totals := Totals(out, 2)

	assert.Equal(t, 3, totals.TotalRecords)
	assert.Equal(t, 2, totals.AmountMismatch)
	assert.Equal(t, 1, totals.UnmatchedInFile)
	assert.Equal(t, 1, totals.UnmatchedInSystem)
	assert.Equal(t, 2, totals.Rejected)
	assert.True(t, totals.TotalDiff.Equal(decimal.NewFromInt(200)))
}
