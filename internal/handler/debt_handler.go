package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
	"recon-ledger/internal/service"
	"recon-ledger/pkg/logger"
	"recon-ledger/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DebtHandler struct {
	service service.DebtService
}

func NewDebtHandler(service service.DebtService) *DebtHandler {
	return &DebtHandler{service: service}
}

type CaseQuery struct {
	CompanyID      int64  `form:"company_id" binding:"required,gt=0"`
	Status         string `form:"status" binding:"omitempty,period_status"`
	MinDaysOverdue int    `form:"min_days_overdue" binding:"gte=0"`
	Tracking       string `form:"tracking" binding:"omitempty,oneof=never tracked"`
	OrderID        string `form:"order_id"`
}

func (q CaseQuery) filter() debtcase.Filter {
	f := debtcase.Filter{
		MinDaysOverdue: q.MinDaysOverdue,
		Tracking:       q.Tracking,
		OrderID:        q.OrderID,
	}
	switch domain.SummaryScope(q.Status) {
	case domain.ScopeActive:
		f.Status = domain.CaseActive
	case domain.ScopeCompleted:
		f.Status = domain.CaseClosed
	}
	return f
}

type AttemptRequest struct {
	CompanyID        int64  `json:"company_id" binding:"required,gt=0"`
	UserID           int64  `json:"user_id" binding:"required,gt=0"`
	AmountCollected  string `json:"amount_collected" binding:"required,decimal"`
	ResultStatus     string `json:"result_status" binding:"required,result_status"`
	Note             string `json:"note"`
	IsComplete       bool   `json:"is_complete"`
	ExpectedLatestID *int64 `json:"expected_latest_attempt_id"`
}

type CloseRequest struct {
	CompanyID        int64  `json:"company_id" binding:"required,gt=0"`
	UserID           int64  `json:"user_id" binding:"required,gt=0"`
	Note             string `json:"note"`
	ExpectedLatestID *int64 `json:"expected_latest_attempt_id"`
}

type ReopenRequest struct {
	CompanyID        int64  `json:"company_id" binding:"required,gt=0"`
	UserID           int64  `json:"user_id" binding:"required,gt=0"`
	ExpectedLatestID *int64 `json:"expected_latest_attempt_id"`
}

// List godoc
// @Summary List debt cases
// @Tags debt
// @Produce json
// @Param company_id query int true "Company ID"
// @Param status query string false "active or completed"
// @Param min_days_overdue query int false "Minimum days overdue"
// @Param tracking query string false "never or tracked"
// @Param order_id query string false "Order ID substring"
// @Success 200 {object} response.Response{data=[]domain.DebtCase}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/debt/cases [get]
func (h *DebtHandler) List(c *gin.Context) {
	var q CaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	cases, err := h.service.ListCases(c.Request.Context(), q.CompanyID, q.filter())
	if err != nil {
		respondError(c, err, "Failed to list debt cases")
		return
	}

	response.Success(c, http.StatusOK, "Debt cases retrieved successfully", cases)
}

// Export godoc
// @Summary Export debt cases as a spreadsheet
// @Tags debt
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param company_id query int true "Company ID"
// @Param status query string false "active or completed"
// @Param min_days_overdue query int false "Minimum days overdue"
// @Param tracking query string false "never or tracked"
// @Param order_id query string false "Order ID substring"
// @Success 200 {file} file
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/debt/cases/export [get]
func (h *DebtHandler) Export(c *gin.Context) {
	var q CaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	// Buffered so a failed export can still answer with a JSON error.
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), q.CompanyID, q.filter(), &buf); err != nil {
		respondError(c, err, "Failed to export debt cases")
		return
	}

	filename := fmt.Sprintf("debt-cases-%d-%s.xlsx", q.CompanyID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Get godoc
// @Summary Get a debt case with its attempt history
// @Tags debt
// @Produce json
// @Param order_id path string true "Order ID"
// @Param company_id query int true "Company ID"
// @Success 200 {object} response.Response{data=domain.DebtCase}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/debt/cases/{order_id} [get]
func (h *DebtHandler) Get(c *gin.Context) {
	companyID, err := queryCompanyID(c)
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	debtCase, err := h.service.GetCase(c.Request.Context(), companyID, c.Param("order_id"))
	if err != nil {
		respondError(c, err, "Failed to get debt case")
		return
	}

	response.Success(c, http.StatusOK, "Debt case retrieved successfully", debtCase)
}

// RecordAttempt godoc
// @Summary Record a collection attempt
// @Tags debt
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID"
// @Param request body AttemptRequest true "Attempt"
// @Success 201 {object} response.Response{data=domain.DebtCase}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/debt/cases/{order_id}/attempts [post]
func (h *DebtHandler) RecordAttempt(c *gin.Context) {
	var req AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	amount, _ := decimal.NewFromString(req.AmountCollected)
	orderID := c.Param("order_id")

	debtCase, err := h.service.RecordAttempt(c.Request.Context(), req.CompanyID, debtcase.NewAttempt{
		OrderID:          orderID,
		UserID:           req.UserID,
		AmountCollected:  amount,
		ResultStatus:     domain.ResultStatus(req.ResultStatus),
		Note:             req.Note,
		IsComplete:       req.IsComplete,
		ExpectedLatestID: req.ExpectedLatestID,
	})
	if err != nil {
		respondError(c, err, "Failed to record attempt")
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"order_id":      orderID,
		"user_id":       req.UserID,
		"result_status": req.ResultStatus,
		"case_status":   debtCase.Status,
	}).Info("Collection attempt recorded")

	response.Success(c, http.StatusCreated, "Attempt recorded successfully", debtCase)
}

// Close godoc
// @Summary Close a debt case as fully collected
// @Tags debt
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID"
// @Param request body CloseRequest true "Close"
// @Success 200 {object} response.Response{data=domain.DebtCase}
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/debt/cases/{order_id}/close [post]
func (h *DebtHandler) Close(c *gin.Context) {
	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	debtCase, err := h.service.Close(c.Request.Context(), req.CompanyID, c.Param("order_id"), req.UserID, req.Note, req.ExpectedLatestID)
	if err != nil {
		respondError(c, err, "Failed to close debt case")
		return
	}

	response.Success(c, http.StatusOK, "Debt case closed successfully", debtCase)
}

// Reopen godoc
// @Summary Reopen a closed debt case
// @Tags debt
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID"
// @Param request body ReopenRequest true "Reopen"
// @Success 200 {object} response.Response{data=domain.DebtCase}
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/debt/cases/{order_id}/reopen [post]
func (h *DebtHandler) Reopen(c *gin.Context) {
	var req ReopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	debtCase, err := h.service.Reopen(c.Request.Context(), req.CompanyID, c.Param("order_id"), req.UserID, req.ExpectedLatestID)
	if err != nil {
		respondError(c, err, "Failed to reopen debt case")
		return
	}

	response.Success(c, http.StatusOK, "Debt case reopened successfully", debtCase)
}
