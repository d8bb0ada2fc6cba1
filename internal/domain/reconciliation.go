package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRecord is one normalized row of an uploaded or pasted file.
type ImportRecord struct {
	SourceRow   int             `json:"source_row"`
	ExternalRef string          `json:"external_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
}

// MatchStatus represents the reconciliation match status
type MatchStatus string

const (
	Matched           MatchStatus = "MATCHED"
	AmountMismatch    MatchStatus = "AMOUNT_MISMATCH"
	UnmatchedInFile   MatchStatus = "UNMATCHED_IN_FILE"
	UnmatchedInSystem MatchStatus = "UNMATCHED_IN_SYSTEM"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case Matched, AmountMismatch, UnmatchedInFile, UnmatchedInSystem:
		return true
	}
	return false
}

// MatchResult pairs an import record with an order. Record is nil for
// UnmatchedInSystem results, whose Diff is the full order amount.
type MatchResult struct {
	Record          *ImportRecord    `json:"record,omitempty"`
	MatchedOrderID  *string          `json:"matched_order_id,omitempty"`
	OrderAmount     *decimal.Decimal `json:"order_amount,omitempty"`
	Status          MatchStatus      `json:"status"`
	Diff            decimal.Decimal  `json:"diff"`
	DuplicateOfRow  int              `json:"duplicate_of_row,omitempty"`
	AlreadyVerified bool             `json:"already_verified"`
}

// VerifiedReturnRecord is one append-only ledger entry.
type VerifiedReturnRecord struct {
	ID             int64           `json:"id" db:"id"`
	CompanyID      int64           `json:"company_id" db:"company_id"`
	OrderID        string          `json:"order_id" db:"order_id"`
	VerifiedAmount decimal.Decimal `json:"return_amount" db:"return_amount"`
	Note           string          `json:"note" db:"note"`
	BatchID        string          `json:"batch_id" db:"batch_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// StatementRow is a single transfer line of a bank statement.
type StatementRow struct {
	ID            int64           `json:"id" db:"id"`
	BatchID       int64           `json:"batch_id" db:"batch_id"`
	RowNo         int             `json:"row_no" db:"row_no"`
	Reference     string          `json:"reference" db:"reference"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	TransferredAt time.Time       `json:"transferred_at" db:"transferred_at"`
}

// TransferRange is the closed interval covered by a statement batch.
type TransferRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// StatementBatch is one ingested bank statement, stored once per session.
type StatementBatch struct {
	ID            int64          `json:"id" db:"id"`
	DocumentNo    string         `json:"document_no" db:"document_no"`
	CompanyID     int64          `json:"company_id" db:"company_id"`
	BankAccountID int64          `json:"bank_account_id" db:"bank_account_id"`
	CreatedBy     int64          `json:"created_by" db:"created_by"`
	Notes         string         `json:"notes,omitempty" db:"notes"`
	TransferRange TransferRange  `json:"transfer_range"`
	Rows          []StatementRow `json:"rows"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// ReconcileTotals summarises one match run.
type ReconcileTotals struct {
	TotalRecords      int             `json:"total_records"`
	Matched           int             `json:"matched"`
	AmountMismatch    int             `json:"amount_mismatch"`
	UnmatchedInFile   int             `json:"unmatched_in_file"`
	UnmatchedInSystem int             `json:"unmatched_in_system"`
	Rejected          int             `json:"rejected"`
	TotalDiff         decimal.Decimal `json:"total_diff"`
}

// MatchReport is the reviewable output of a reconciliation session.
type MatchReport struct {
	SessionID         string            `json:"session_id"`
	Results           []MatchResult     `json:"results"`
	UnmatchedInSystem []MatchResult     `json:"unmatched_in_system"`
	ValidationErrors  []ValidationError `json:"validation_errors"`
	Totals            ReconcileTotals   `json:"totals"`
}
