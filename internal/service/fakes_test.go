package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
	"recon-ledger/internal/repository"
)

type fakeOrders struct {
	orders []domain.Order
	onList func()
}

func (f *fakeOrders) ListByCompany(_ context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error) {
	if f.onList != nil {
		f.onList()
	}
	allowed := make(map[domain.OrderStatus]bool)
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []domain.Order
	for _, o := range f.orders {
		if o.CompanyID == companyID && (len(allowed) == 0 || allowed[o.OrderStatus]) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ExistingIDs(_ context.Context, companyID int64, ids []string) (map[string]bool, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[string]bool)
	for _, o := range f.orders {
		if o.CompanyID == companyID && want[o.ID] {
			out[o.ID] = true
		}
	}
	return out, nil
}

func (f *fakeOrders) GetByID(_ context.Context, companyID int64, orderID string) (*domain.Order, error) {
	for _, o := range f.orders {
		if o.CompanyID == companyID && o.ID == orderID {
			o := o
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
}

type fakeLedger struct {
	mu      sync.Mutex
	records []domain.VerifiedReturnRecord
}

func (f *fakeLedger) InsertBatch(ctx context.Context, records []domain.VerifiedReturnRecord) ([]domain.VerifiedReturnRecord, error) {
	out := make([]domain.VerifiedReturnRecord, len(records))
	for i := range records {
		rec := records[i]
		if err := f.Insert(ctx, &rec); err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func (f *fakeLedger) Insert(_ context.Context, record *domain.VerifiedReturnRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeLedger) VerifiedOrderIDs(_ context.Context, companyID int64, orderIDs []string) (map[string]bool, error) {
	want := make(map[string]bool)
	for _, id := range orderIDs {
		want[id] = true
	}
	out := make(map[string]bool)
	for _, r := range f.records {
		if r.CompanyID == companyID && want[r.OrderID] {
			out[r.OrderID] = true
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByBatch(_ context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error) {
	var out []domain.VerifiedReturnRecord
	for _, r := range f.records {
		if r.CompanyID == companyID && r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByOrder(_ context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error) {
	var out []domain.VerifiedReturnRecord
	for _, r := range f.records {
		if r.CompanyID == companyID && r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListCreatedBetween(_ context.Context, companyID int64, from, to time.Time) ([]domain.VerifiedReturnRecord, error) {
	var out []domain.VerifiedReturnRecord
	for _, r := range f.records {
		if r.CompanyID == companyID && !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAttempts struct {
	attempts []domain.CollectionAttempt
}

func (f *fakeAttempts) ListByOrder(_ context.Context, orderID string) ([]domain.CollectionAttempt, error) {
	var out []domain.CollectionAttempt
	for _, a := range f.attempts {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.CollectionAttempt, error) {
	out := make(map[string][]domain.CollectionAttempt)
	for _, id := range orderIDs {
		list, _ := f.ListByOrder(ctx, id)
		if len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

func (f *fakeAttempts) Append(ctx context.Context, attempt *domain.CollectionAttempt, expected *int64) error {
	list, _ := f.ListByOrder(ctx, attempt.OrderID)
	c := debtcase.Derive(domain.Order{ID: attempt.OrderID}, list, time.Now())
	if (c.LatestAttemptID == nil) != (expected == nil) || (expected != nil && *c.LatestAttemptID != *expected) {
		return domain.NewStateConflict(attempt.OrderID, "case changed since it was loaded")
	}
	attempt.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeAttempts) MarkReopened(_ context.Context, orderID string, attemptID, userID int64, at time.Time) error {
	for i := range f.attempts {
		if f.attempts[i].ID == attemptID && f.attempts[i].OrderID == orderID && f.attempts[i].IsComplete {
			f.attempts[i].IsComplete = false
			f.attempts[i].ReopenedAt = &at
			f.attempts[i].ReopenedBy = &userID
			return nil
		}
	}
	return domain.NewStateConflict(orderID, "already reopened")
}

type fakeStatements struct {
	taken   map[string]bool
	batches []*domain.StatementBatch
}

func (f *fakeStatements) CreateBatch(_ context.Context, batch *domain.StatementBatch) error {
	if f.taken[batch.DocumentNo] {
		return repository.ErrDuplicateDocument
	}
	if f.taken == nil {
		f.taken = make(map[string]bool)
	}
	f.taken[batch.DocumentNo] = true
	batch.ID = int64(len(f.batches) + 1)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStatements) NextDocumentSequence(_ context.Context, prefix string) (int, error) {
	n := 0
	for _, b := range f.batches {
		if strings.HasPrefix(b.DocumentNo, prefix+"-") {
			n++
		}
	}
	return n + 1, nil
}

func (f *fakeStatements) GetBatch(_ context.Context, companyID, id int64) (*domain.StatementBatch, error) {
	for _, b := range f.batches {
		if b.CompanyID == companyID && b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("statement batch %d: %w", id, domain.ErrNotFound)
}

type fakeDirectory struct {
	users    map[int64]domain.User
	accounts map[int64]domain.BankAccount
}

func (f *fakeDirectory) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (f *fakeDirectory) GetBankAccount(_ context.Context, companyID, id int64) (*domain.BankAccount, error) {
	a, ok := f.accounts[id]
	if !ok || a.CompanyID != companyID {
		return nil, fmt.Errorf("bank account %d: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

// fakeCache versions entries per company the way the redis cache does.
type fakeCache struct {
	entries       map[string]*domain.Summary
	versions      map[int64]int64
	invalidations int
}

func cacheKey(q domain.SummaryQuery, ver int64) string {
	return fmt.Sprintf("%d:v%d:%d:%d:%s", q.CompanyID, ver, q.Year, q.Month, q.Status)
}

func (f *fakeCache) Get(_ context.Context, q domain.SummaryQuery) (*domain.Summary, int64, error) {
	ver := f.versions[q.CompanyID]
	return f.entries[cacheKey(q, ver)], ver, nil
}

func (f *fakeCache) Set(_ context.Context, q domain.SummaryQuery, ver int64, s *domain.Summary) error {
	if f.entries == nil {
		f.entries = make(map[string]*domain.Summary)
	}
	f.entries[cacheKey(q, ver)] = s
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, companyID int64) error {
	if f.versions == nil {
		f.versions = make(map[int64]int64)
	}
	f.versions[companyID]++
	f.invalidations++
	return nil
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[int64]domain.User{
			9:  {ID: 9, CompanyID: 1, FirstName: "Ann", Active: true},
			10: {ID: 10, CompanyID: 1, FirstName: "Ben", Active: false},
			11: {ID: 11, CompanyID: 2, FirstName: "Cid", Active: true},
		},
		accounts: map[int64]domain.BankAccount{
			5: {ID: 5, CompanyID: 1, Bank: "KBank", BankNumber: "123-4-56789-0"},
			6: {ID: 6, CompanyID: 1, Bank: "Cash", BankNumber: "--"},
			7: {ID: 7, CompanyID: 2, Bank: "SCB", BankNumber: "999"},
		},
	}
}
