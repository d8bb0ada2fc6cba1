package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// NormalizeResult holds the accepted records in source order plus one
// validation error per rejected row.
type NormalizeResult struct {
	Records []domain.ImportRecord   `json:"records"`
	Errors  []domain.ValidationError `json:"errors"`
}

// ImportNormalizer turns pasted text or spreadsheet rows of the form
// "externalRef, amount[, note]" into import records.
type ImportNormalizer struct {
	skipHeader bool
}

func NewImportNormalizer(skipHeader bool) *ImportNormalizer {
	return &ImportNormalizer{skipHeader: skipHeader}
}

// a note made only of digits after a comma split is the tail of an amount
// like 1,500
var numericNote = regexp.MustCompile(`^\d+(\.\d+)?$`)

// NormalizeText splits raw text into lines. A line containing a tab is split
// on tabs, otherwise on commas, so tab separated input may carry amounts with
// thousands separators. A comma line whose third field is a bare number is
// rejected rather than guessed at.
func (n *ImportNormalizer) NormalizeText(text string) *NormalizeResult {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	rows := make([][]string, len(lines))
	commaSplit := make(map[int]bool)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, "\t") {
			rows[i] = strings.Split(line, "\t")
		} else {
			rows[i] = strings.Split(line, ",")
			commaSplit[i] = true
		}
	}

	return n.normalize(rows, commaSplit)
}

// NormalizeRows normalizes already split rows. Row numbers in the result are
// 1-based positions in rows, blank rows included, so they point back at the
// operator's file.
func (n *ImportNormalizer) NormalizeRows(rows [][]string) *NormalizeResult {
	return n.normalize(rows, nil)
}

func (n *ImportNormalizer) normalize(rows [][]string, commaSplit map[int]bool) *NormalizeResult {
	result := &NormalizeResult{
		Records: make([]domain.ImportRecord, 0, len(rows)),
		Errors:  make([]domain.ValidationError, 0),
	}

	headerSkipped := !n.skipHeader
	for i, fields := range rows {
		rowNo := i + 1
		if isBlank(fields) {
			continue
		}
		if !headerSkipped {
			headerSkipped = true
			continue
		}

		var (
			record *domain.ImportRecord
			verr   *domain.ValidationError
		)
		if commaSplit[i] {
			verr = checkSplitAmount(fields, rowNo)
		}
		if verr == nil {
			record, verr = parseImportRow(fields, rowNo)
		}
		if verr != nil {
			logger.GetLogger().WithField("row", rowNo).WithField("code", verr.Code).Warn("Rejected import row")
			result.Errors = append(result.Errors, *verr)
			continue
		}
		result.Records = append(result.Records, *record)
	}

	return result
}

func parseImportRow(fields []string, rowNo int) (*domain.ImportRecord, *domain.ValidationError) {
	if len(fields) < 2 {
		return nil, &domain.ValidationError{
			Row:     rowNo,
			Field:   "row",
			Code:    domain.CodeInvalidFormat,
			Message: "expected at least 2 columns: reference, amount",
			Value:   strings.Join(fields, ","),
		}
	}

	ref := strings.TrimSpace(fields[0])
	if ref == "" {
		return nil, &domain.ValidationError{
			Row:     rowNo,
			Field:   "external_ref",
			Code:    domain.CodeRequired,
			Message: "reference is required",
		}
	}

	amount, err := ParseAmount(fields[1])
	if err != nil {
		return nil, &domain.ValidationError{
			Row:     rowNo,
			Field:   "amount",
			Code:    domain.CodeInvalidAmount,
			Message: "amount is not a number",
			Value:   strings.TrimSpace(fields[1]),
		}
	}

	record := &domain.ImportRecord{
		SourceRow:   rowNo,
		ExternalRef: ref,
		Amount:      amount,
	}
	if len(fields) > 2 {
		record.Note = strings.TrimSpace(strings.Join(fields[2:], ","))
	}
	return record, nil
}

func checkSplitAmount(fields []string, rowNo int) *domain.ValidationError {
	if len(fields) < 3 || !numericNote.MatchString(strings.TrimSpace(fields[2])) {
		return nil
	}
	return &domain.ValidationError{
		Row:     rowNo,
		Field:   "amount",
		Code:    domain.CodeInvalidAmount,
		Message: "amount looks split by a thousands separator; use tabs between columns",
		Value:   strings.TrimSpace(strings.Join(fields[1:], ",")),
	}
}

// ParseAmount strips thousands separators, currency marks and spaces before
// parsing a decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "", "฿", "", "THB", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

// ReadSpreadsheetRows loads the rows of an .xlsx sheet. An empty sheet name
// selects the first sheet.
func ReadSpreadsheetRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
