package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/ledger"
	"recon-ledger/internal/matcher"
	"recon-ledger/internal/parser"
	"recon-ledger/internal/repository"
	"recon-ledger/pkg/logger"
)

const maxDocumentRetries = 5

type StatementInput struct {
	CompanyID     int64
	BankAccountID int64
	UserID        int64
	Text          string
	Notes         string
}

type StatementResult struct {
	Batch  *domain.StatementBatch `json:"batch"`
	Report *domain.MatchReport    `json:"report"`
}

type StatementService interface {
	Ingest(ctx context.Context, in StatementInput) (*StatementResult, error)
	Get(ctx context.Context, companyID, id int64) (*domain.StatementBatch, error)
}

type statementService struct {
	session       *sessionMatcher
	statementRepo repository.StatementRepository
	directory     repository.DirectoryRepository
	parser        *parser.StatementParser
	location      *time.Location
	batchSize     int
	now           func() time.Time
}

func NewStatementService(
	orderRepo repository.OrderRepository,
	ledgerRepo repository.LedgerRepository,
	statementRepo repository.StatementRepository,
	directory repository.DirectoryRepository,
	m *matcher.Matcher,
	location *time.Location,
	batchSize int,
) StatementService {
	return &statementService{
		session:       newSessionMatcher(orderRepo, ledger.New(ledgerRepo, true), m),
		statementRepo: statementRepo,
		directory:     directory,
		parser:        parser.NewStatementParser(location),
		location:      location,
		batchSize:     batchSize,
		now:           time.Now,
	}
}

// Ingest stores a bank statement as one batch under a fresh document number
// and matches its rows against the company's orders.
func (s *statementService) Ingest(ctx context.Context, in StatementInput) (*StatementResult, error) {
	if err := requireCompany(in.CompanyID); err != nil {
		return nil, err
	}

	account, err := s.directory.GetBankAccount(ctx, in.CompanyID, in.BankAccountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ValidationError{
			Field: "bank_account_id", Code: domain.CodeNotAccepted, Message: "bank account does not belong to the company",
			Value: fmt.Sprint(in.BankAccountID),
		}
	}
	if err != nil {
		return nil, err
	}

	if err := checkOperator(ctx, s.directory, in.CompanyID, in.UserID); err != nil {
		return nil, err
	}

	var rows []domain.StatementRow
	rejected, err := s.parser.Parse(strings.NewReader(in.Text), s.batchSize, func(batch []domain.StatementRow) error {
		rows = append(rows, batch...)
		return nil
	})
	if err != nil {
		return nil, domain.ValidationError{Field: "text", Code: domain.CodeInvalidFormat, Message: err.Error()}
	}
	if len(rows) == 0 {
		if len(rejected) > 0 {
			return nil, domain.ValidationErrors(rejected)
		}
		return nil, domain.ValidationError{Field: "text", Code: domain.CodeRequired, Message: "statement has no rows"}
	}

	batch := &domain.StatementBatch{
		CompanyID:     in.CompanyID,
		BankAccountID: account.ID,
		CreatedBy:     in.UserID,
		Notes:         in.Notes,
		TransferRange: transferRange(rows),
		Rows:          rows,
	}
	if err := s.create(ctx, batch, account); err != nil {
		return nil, err
	}

	records := make([]domain.ImportRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.ImportRecord{SourceRow: row.RowNo, ExternalRef: row.Reference, Amount: row.Amount}
	}

	report, err := s.session.match(ctx, in.CompanyID, nil, records, rejected)
	if err != nil {
		return nil, err
	}

	return &StatementResult{Batch: batch, Report: report}, nil
}

// create retries with the next sequence when another batch took the number.
func (s *statementService) create(ctx context.Context, batch *domain.StatementBatch, account *domain.BankAccount) error {
	prefix := DocumentPrefix(account, s.now().In(s.location))

	seq, err := s.statementRepo.NextDocumentSequence(ctx, prefix)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxDocumentRetries; attempt++ {
		batch.DocumentNo = fmt.Sprintf("%s-%03d", prefix, seq)
		err = s.statementRepo.CreateBatch(ctx, batch)
		if err == nil {
			logger.GetLogger().WithFields(logrus.Fields{
				"document_no": batch.DocumentNo,
				"company_id":  batch.CompanyID,
				"rows":        len(batch.Rows),
			}).Info("Statement batch created")
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateDocument) {
			return err
		}
		seq++
	}

	return fmt.Errorf("no free document number for %s: %w", prefix, err)
}

func (s *statementService) Get(ctx context.Context, companyID, id int64) (*domain.StatementBatch, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	return s.statementRepo.GetBatch(ctx, companyID, id)
}

// DocumentPrefix builds "<bank number alnum>-<YYYYMMDD>", falling back to
// BANK<id> when the account number has no letters or digits.
func DocumentPrefix(account *domain.BankAccount, day time.Time) string {
	code := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return -1
	}, account.BankNumber)
	if code == "" {
		code = fmt.Sprintf("BANK%d", account.ID)
	}
	return code + "-" + day.Format("20060102")
}

func transferRange(rows []domain.StatementRow) domain.TransferRange {
	r := domain.TransferRange{From: rows[0].TransferredAt, To: rows[0].TransferredAt}
	for _, row := range rows[1:] {
		if row.TransferredAt.Before(r.From) {
			r.From = row.TransferredAt
		}
		if row.TransferredAt.After(r.To) {
			r.To = row.TransferredAt
		}
	}
	return r
}

// checkOperator requires an active user of the same company.
func checkOperator(ctx context.Context, directory repository.DirectoryRepository, companyID, userID int64) error {
	user, err := directory.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && (user.CompanyID != companyID || !user.Active)) {
		return domain.ValidationError{
			Field: "user_id", Code: domain.CodeNotAccepted, Message: "user is not an active operator of the company", Value: fmt.Sprint(userID),
		}
	}
	return err
}
