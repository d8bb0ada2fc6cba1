package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
	"recon-ledger/internal/service"
	"recon-ledger/pkg/response"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type handlers struct {
	recon     *mockReconciliationService
	statement *mockStatementService
	debt      *mockDebtService
	summary   *mockSummaryService
	router    *gin.Engine
}

func setup() *handlers {
	h := &handlers{
		recon:     new(mockReconciliationService),
		statement: new(mockStatementService),
		debt:      new(mockDebtService),
		summary:   new(mockSummaryService),
		router:    gin.New(),
	}

	rh := NewReconciliationHandler(h.recon)
	sh := NewStatementHandler(h.statement)
	dh := NewDebtHandler(h.debt)
	smh := NewSummaryHandler(h.summary)

	v1 := h.router.Group("/api/v1")
	v1.POST("/reconcile/match", rh.Match)
	v1.POST("/reconcile/confirm", rh.Confirm)
	v1.GET("/reconcile/pending", rh.Pending)
	v1.GET("/reconcile/batches/:batch_id", rh.BatchRecords)
	v1.GET("/reconcile/orders/:order_id/records", rh.OrderRecords)
	v1.POST("/statements", sh.Create)
	v1.GET("/statements/:id", sh.Get)
	v1.GET("/debt/cases", dh.List)
	v1.GET("/debt/cases/export", dh.Export)
	v1.GET("/debt/cases/:order_id", dh.Get)
	v1.POST("/debt/cases/:order_id/attempts", dh.RecordAttempt)
	v1.POST("/debt/cases/:order_id/close", dh.Close)
	v1.POST("/debt/cases/:order_id/reopen", dh.Reopen)
	v1.GET("/summary", smh.Get)
	return h
}

func (h *handlers) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestMatch_JSON(t *testing.T) {
	h := setup()
	report := &domain.MatchReport{SessionID: "s-1"}
	h.recon.On("Match", mock.Anything, service.MatchInput{
		CompanyID:     1,
		Text:          "TRK1,100",
		SkipHeader:    true,
		OrderStatuses: []domain.OrderStatus{domain.OrderReturned},
	}).Return(report, nil)

	w := h.do(http.MethodPost, "/api/v1/reconcile/match", map[string]interface{}{
		"company_id":     1,
		"text":           "TRK1,100",
		"skip_header":    true,
		"order_statuses": []string{"Returned"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	h.recon.AssertExpectations(t)
}

func TestMatch_MissingCompany(t *testing.T) {
	h := setup()

	w := h.do(http.MethodPost, "/api/v1/reconcile/match", map[string]interface{}{"text": "TRK1,100"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	h.recon.AssertNotCalled(t, "Match", mock.Anything, mock.Anything)
}

func multipartRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("company_id", "1"))
	require.NoError(t, mw.WriteField("skip_header", "true"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/match", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMatch_UploadCSV(t *testing.T) {
	h := setup()
	h.recon.On("Match", mock.Anything, service.MatchInput{
		CompanyID:  1,
		Text:       "ref,amount\nTRK1,100\n",
		SkipHeader: true,
	}).Return(&domain.MatchReport{}, nil)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, multipartRequest(t, "returns.csv", "ref,amount\nTRK1,100\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	h.recon.AssertExpectations(t)
}

func TestMatch_UploadRejectsUnknownExtension(t *testing.T) {
	h := setup()

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, multipartRequest(t, "returns.pdf", "x"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestConfirm_BuildsAcceptances(t *testing.T) {
	h := setup()
	h.recon.On("Confirm", mock.Anything, mock.MatchedBy(func(in service.ConfirmInput) bool {
		if in.CompanyID != 1 || in.BatchID != "b-1" || len(in.Acceptances) != 2 {
			return false
		}
		first, second := in.Acceptances[0], in.Acceptances[1]
		return first.Result.Status == domain.Matched &&
			*first.Result.MatchedOrderID == "OD1" &&
			first.Result.Record.Amount.Equal(decimal.RequireFromString("100.50")) &&
			second.Result.MatchedOrderID == nil &&
			second.ManualOrderID == "OD2"
	})).Return(&service.ConfirmResult{BatchID: "b-1"}, nil)

	w := h.do(http.MethodPost, "/api/v1/reconcile/confirm", map[string]interface{}{
		"company_id": 1,
		"batch_id":   "b-1",
		"rows": []map[string]interface{}{
			{"source_row": 1, "external_ref": "TRK1", "amount": "100.50", "status": "MATCHED", "matched_order_id": "OD1"},
			{"source_row": 2, "external_ref": "???", "amount": "20", "status": "UNMATCHED_IN_FILE", "manual_order_id": " OD2 "},
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	h.recon.AssertExpectations(t)
}

func TestConfirm_RejectsUnknownStatusAndAmount(t *testing.T) {
	h := setup()

	for _, row := range []map[string]interface{}{
		{"amount": "100", "status": "MAYBE"},
		{"amount": "abc", "status": "MATCHED"},
	} {
		w := h.do(http.MethodPost, "/api/v1/reconcile/confirm", map[string]interface{}{
			"company_id": 1,
			"rows":       []map[string]interface{}{row},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
	h.recon.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestConfirm_PartialFailure(t *testing.T) {
	h := setup()
	perr := &domain.PersistenceError{
		Written:  []domain.VerifiedReturnRecord{{OrderID: "OD1"}},
		FailedAt: 1,
		OrderID:  "OD2",
		Err:      errors.New("connection reset"),
	}
	h.recon.On("Confirm", mock.Anything, mock.Anything).Return(nil, perr)

	w := h.do(http.MethodPost, "/api/v1/reconcile/confirm", map[string]interface{}{
		"company_id": 1,
		"rows":       []map[string]interface{}{{"amount": "1", "status": "MATCHED", "matched_order_id": "OD1"}},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PERSISTENCE_ERROR", resp.Error.Code)
	assert.NotNil(t, resp.Data)
}

func TestConfirm_ValidationErrorsFromService(t *testing.T) {
	h := setup()
	h.recon.On("Confirm", mock.Anything, mock.Anything).Return(nil, domain.ValidationErrors{
		{Row: 2, Field: "manual_order_id", Code: domain.CodeRequired, Message: "manual order id is required"},
	})

	w := h.do(http.MethodPost, "/api/v1/reconcile/confirm", map[string]interface{}{
		"company_id": 1,
		"rows":       []map[string]interface{}{{"amount": "1", "status": "UNMATCHED_IN_FILE"}},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "manual_order_id")
}

func TestPending(t *testing.T) {
	h := setup()
	h.recon.On("Pending", mock.Anything, int64(1), []domain.OrderStatus{domain.OrderReturned, domain.OrderCancelled}).
		Return([]domain.Order{{ID: "OD1"}}, nil)

	w := h.do(http.MethodGet, "/api/v1/reconcile/pending?company_id=1&order_status=Returned,Cancelled", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/v1/reconcile/pending", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	h.recon.AssertNumberOfCalls(t, "Pending", 1)
}

func TestBatchRecords_NotFound(t *testing.T) {
	h := setup()
	h.recon.On("BatchRecords", mock.Anything, int64(1), "missing").Return(nil, domain.ErrNotFound)

	w := h.do(http.MethodGet, "/api/v1/reconcile/batches/missing?company_id=1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchRecords_RequiresCompany(t *testing.T) {
	h := setup()

	w := h.do(http.MethodGet, "/api/v1/reconcile/batches/b-1", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	h.recon.AssertNotCalled(t, "BatchRecords", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderRecords(t *testing.T) {
	h := setup()
	h.recon.On("OrderRecords", mock.Anything, int64(1), "OD1").
		Return([]domain.VerifiedReturnRecord{{OrderID: "OD1"}}, nil)

	w := h.do(http.MethodGet, "/api/v1/reconcile/orders/OD1/records?company_id=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	h.recon.AssertExpectations(t)
}

func TestStatementCreate(t *testing.T) {
	h := setup()
	h.statement.On("Ingest", mock.Anything, service.StatementInput{
		CompanyID: 1, BankAccountID: 5, UserID: 9, Text: "reference,amount,date\n", Notes: "march",
	}).Return(&service.StatementResult{Batch: &domain.StatementBatch{DocumentNo: "1234567890-20260301-001"}}, nil)

	w := h.do(http.MethodPost, "/api/v1/statements", map[string]interface{}{
		"company_id": 1, "bank_account_id": 5, "user_id": 9, "text": "reference,amount,date\n", "notes": "march",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	h.statement.AssertExpectations(t)
}

func TestStatementGet_InvalidID(t *testing.T) {
	h := setup()

	w := h.do(http.MethodGet, "/api/v1/statements/abc?company_id=1", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	h.statement.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestDebtList_MapsFilter(t *testing.T) {
	h := setup()
	h.debt.On("ListCases", mock.Anything, int64(1), debtcase.Filter{
		Status:         domain.CaseClosed,
		MinDaysOverdue: 30,
		Tracking:       debtcase.TrackingNever,
		OrderID:        "od1",
	}).Return([]domain.DebtCase{}, nil)

	w := h.do(http.MethodGet, "/api/v1/debt/cases?company_id=1&status=completed&min_days_overdue=30&tracking=never&order_id=od1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	h.debt.AssertExpectations(t)
}

func TestDebtList_RejectsUnknownTracking(t *testing.T) {
	h := setup()

	w := h.do(http.MethodGet, "/api/v1/debt/cases?company_id=1&tracking=sometimes", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDebtExport(t *testing.T) {
	h := setup()
	h.debt.On("Export", mock.Anything, int64(1), debtcase.Filter{}, mock.Anything).Return(nil)

	w := h.do(http.MethodGet, "/api/v1/debt/cases/export?company_id=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "debt-cases-1-")
	assert.Equal(t, "xlsx", w.Body.String())
}

func TestDebtRecordAttempt_Conflict(t *testing.T) {
	h := setup()
	expected := int64(7)
	h.debt.On("RecordAttempt", mock.Anything, int64(1), debtcase.NewAttempt{
		OrderID:          "OD1",
		UserID:           9,
		AmountCollected:  decimal.RequireFromString("50"),
		ResultStatus:     domain.ResultPartialPayment,
		ExpectedLatestID: &expected,
	}).Return(nil, domain.NewStateConflict("OD1", "latest attempt changed"))

	w := h.do(http.MethodPost, "/api/v1/debt/cases/OD1/attempts", map[string]interface{}{
		"company_id":                 1,
		"user_id":                    9,
		"amount_collected":           "50",
		"result_status":              "PartialPayment",
		"expected_latest_attempt_id": 7,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STATE_CONFLICT", resp.Error.Code)
	h.debt.AssertExpectations(t)
}

func TestDebtRecordAttempt_UnknownResultStatus(t *testing.T) {
	h := setup()

	w := h.do(http.MethodPost, "/api/v1/debt/cases/OD1/attempts", map[string]interface{}{
		"company_id": 1, "user_id": 9, "amount_collected": "0", "result_status": "Ghosted",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDebtCloseAndReopen(t *testing.T) {
	h := setup()
	h.debt.On("Close", mock.Anything, int64(1), "OD1", int64(9), "paid in cash", (*int64)(nil)).
		Return(&domain.DebtCase{OrderID: "OD1", Status: domain.CaseClosed}, nil)
	h.debt.On("Reopen", mock.Anything, int64(1), "OD1", int64(9), (*int64)(nil)).
		Return(&domain.DebtCase{OrderID: "OD1", Status: domain.CaseActive}, nil)

	w := h.do(http.MethodPost, "/api/v1/debt/cases/OD1/close", map[string]interface{}{
		"company_id": 1, "user_id": 9, "note": "paid in cash",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/api/v1/debt/cases/OD1/reopen", map[string]interface{}{
		"company_id": 1, "user_id": 9,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	h.debt.AssertExpectations(t)
}

func TestDebtGet_NotFound(t *testing.T) {
	h := setup()
	h.debt.On("GetCase", mock.Anything, int64(1), "OD404").Return(nil, domain.ErrNotFound)

	w := h.do(http.MethodGet, "/api/v1/debt/cases/OD404?company_id=1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummary(t *testing.T) {
	h := setup()
	h.summary.On("Summarize", mock.Anything, domain.SummaryQuery{
		CompanyID: 1, Month: 3, Year: 2026, Status: domain.ScopeActive,
	}).Return(&domain.Summary{CompanyID: 1}, nil)

	w := h.do(http.MethodGet, "/api/v1/summary?company_id=1&month=3&year=2026&status=active", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/v1/summary?company_id=1&month=13&year=2026&status=active", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(http.MethodGet, "/api/v1/summary?company_id=1&month=3&year=2026&status=pending", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	h.summary.AssertNumberOfCalls(t, "Summarize", 1)
}
