package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// column aliases accepted in a statement header
var statementColumns = map[string][]string{
	"reference":      {"reference", "ref", "trx_ref_id", "tracking_number"},
	"amount":         {"amount", "credit"},
	"transferred_at": {"transferred_at", "transfer_date", "date"},
}

// StatementParser streams bank statement CSV rows in batches.
type StatementParser struct {
	location *time.Location
}

func NewStatementParser(location *time.Location) *StatementParser {
	if location == nil {
		location = time.UTC
	}
	return &StatementParser{location: location}
}

// Parse reads the CSV in streaming mode and hands rows to callback in batches
// of batchSize. Malformed rows are skipped and returned as validation errors;
// a callback error aborts the parse.
func (p *StatementParser) Parse(r io.Reader, batchSize int, callback func([]domain.StatementRow) error) ([]domain.ValidationError, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to read statement header")
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columnMap, err := mapStatementColumns(header)
	if err != nil {
		return nil, err
	}

	var rejected []domain.ValidationError
	batch := make([]domain.StatementRow, 0, batchSize)
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read statement row, skipping")
			rejected = append(rejected, domain.ValidationError{
				Row: lineNumber, Field: "row", Code: domain.CodeInvalidFormat, Message: err.Error(),
			})
			continue
		}
		if isBlank(record) {
			continue
		}

		row, verr := p.parseRecord(record, columnMap, lineNumber)
		if verr != nil {
			logger.GetLogger().WithField("line", lineNumber).WithField("code", verr.Code).Warn("Failed to parse statement row, skipping")
			rejected = append(rejected, *verr)
			continue
		}

		batch = append(batch, *row)

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return rejected, err
			}
			batch = make([]domain.StatementRow, 0, batchSize)
		}
	}

	// Process remaining items
	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return rejected, err
		}
	}

	return rejected, nil
}

func (p *StatementParser) parseRecord(record []string, columnMap map[string]int, lineNumber int) (*domain.StatementRow, *domain.ValidationError) {
	for field, idx := range columnMap {
		if idx >= len(record) {
			return nil, &domain.ValidationError{
				Row: lineNumber, Field: field, Code: domain.CodeInvalidFormat, Message: "incomplete record",
			}
		}
	}

	reference := strings.TrimSpace(record[columnMap["reference"]])
	if reference == "" {
		return nil, &domain.ValidationError{
			Row: lineNumber, Field: "reference", Code: domain.CodeRequired, Message: "reference is required",
		}
	}

	amountStr := strings.TrimSpace(record[columnMap["amount"]])
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, &domain.ValidationError{
			Row: lineNumber, Field: "amount", Code: domain.CodeInvalidAmount, Message: "amount is not a number", Value: amountStr,
		}
	}

	dateStr := strings.TrimSpace(record[columnMap["transferred_at"]])
	transferredAt, err := ParseDate(dateStr, p.location)
	if err != nil {
		return nil, &domain.ValidationError{
			Row: lineNumber, Field: "transferred_at", Code: domain.CodeInvalidFormat, Message: err.Error(), Value: dateStr,
		}
	}

	return &domain.StatementRow{
		RowNo:         lineNumber,
		Reference:     reference,
		Amount:        amount,
		TransferredAt: transferredAt,
	}, nil
}

func mapStatementColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, col := range header {
		positions[strings.ToLower(strings.TrimSpace(col))] = i
	}

	columnMap := make(map[string]int, len(statementColumns))
	for field, aliases := range statementColumns {
		for _, alias := range aliases {
			if idx, ok := positions[alias]; ok {
				columnMap[field] = idx
				break
			}
		}
		if _, ok := columnMap[field]; !ok {
			return nil, fmt.Errorf("invalid CSV format: missing required column %q", field)
		}
	}
	return columnMap, nil
}

// ParseDate tries the formats seen in bank exports, interpreting zone-less
// values in loc.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"02/01/2006",
		"02/01/2006 15:04",
		"2006/01/02",
	}

	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return t, nil
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
