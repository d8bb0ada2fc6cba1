package matcher

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// DefaultTolerance absorbs rounding between the order total and a reported amount.
var DefaultTolerance = decimal.NewFromInt(1)

// OrderLookup resolves external references against an order snapshot.
// orderindex.Index implements it.
type OrderLookup interface {
	Lookup(ref string) *domain.Order
	Orders() []domain.Order
}

// Matcher pairs import records with orders. It holds no state between calls.
type Matcher struct {
	tolerance decimal.Decimal
}

func NewMatcher(tolerance decimal.Decimal) *Matcher {
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	return &Matcher{tolerance: tolerance}
}

// Output contains the per-record results in input order and the orders that
// no record referenced.
type Output struct {
	Results           []domain.MatchResult
	UnmatchedInSystem []domain.MatchResult
}

// Match performs the two-phase reconciliation: classify every record against
// the lookup, then collect the orders left unreferenced.
func (m *Matcher) Match(records []domain.ImportRecord, index OrderLookup) *Output {
	logger.GetLogger().WithFields(logrus.Fields{
		"record_count": len(records),
		"order_count":  len(index.Orders()),
		"tolerance":    m.tolerance.String(),
	}).Debug("Starting match")

	output := &Output{
		Results:           make([]domain.MatchResult, 0, len(records)),
		UnmatchedInSystem: make([]domain.MatchResult, 0),
	}

	referenced := make(map[string]bool)
	firstRowByOrder := make(map[string]int)

	for i := range records {
		record := records[i]
		result := m.classify(&record, index.Lookup(record.ExternalRef))

		if result.MatchedOrderID != nil {
			orderID := *result.MatchedOrderID
			referenced[orderID] = true
			if first, seen := firstRowByOrder[orderID]; seen {
				result.DuplicateOfRow = first
			} else {
				firstRowByOrder[orderID] = record.SourceRow
			}
		}

		output.Results = append(output.Results, result)
	}

	for _, order := range index.Orders() {
		if referenced[order.ID] {
			continue
		}
		orderID := order.ID
		amount := order.Amount()
		output.UnmatchedInSystem = append(output.UnmatchedInSystem, domain.MatchResult{
			MatchedOrderID: &orderID,
			OrderAmount:    &amount,
			Status:         domain.UnmatchedInSystem,
			Diff:           amount,
		})
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"results":             len(output.Results),
		"unmatched_in_system": len(output.UnmatchedInSystem),
	}).Debug("Match completed")

	return output
}

// classify applies the tolerance rule: |order total - amount| < tolerance is a match.
func (m *Matcher) classify(record *domain.ImportRecord, order *domain.Order) domain.MatchResult {
	if order == nil {
		return domain.MatchResult{
			Record: record,
			Status: domain.UnmatchedInFile,
			Diff:   decimal.Zero,
		}
	}

	orderID := order.ID
	amount := order.Amount()
	diff := amount.Sub(record.Amount)

	status := domain.AmountMismatch
	if diff.Abs().LessThan(m.tolerance) {
		status = domain.Matched
	}

	return domain.MatchResult{
		Record:         record,
		MatchedOrderID: &orderID,
		OrderAmount:    &amount,
		Status:         status,
		Diff:           diff,
	}
}

// Totals counts results per status. TotalDiff sums the absolute diffs of
// amount mismatches.
func Totals(output *Output, rejected int) domain.ReconcileTotals {
	totals := domain.ReconcileTotals{
		TotalRecords:      len(output.Results),
		UnmatchedInSystem: len(output.UnmatchedInSystem),
		Rejected:          rejected,
		TotalDiff:         decimal.Zero,
	}

	for _, r := range output.Results {
		switch r.Status {
		case domain.Matched:
			totals.Matched++
		case domain.AmountMismatch:
			totals.AmountMismatch++
			totals.TotalDiff = totals.TotalDiff.Add(r.Diff.Abs())
		case domain.UnmatchedInFile:
			totals.UnmatchedInFile++
		}
	}

	return totals
}
