package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/ledger"
	"recon-ledger/internal/parser"
	"recon-ledger/internal/service"
	"recon-ledger/pkg/logger"
	"recon-ledger/pkg/response"
)

const maxUploadBytes = 10 << 20

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

type MatchRequest struct {
	CompanyID     int64    `json:"company_id" binding:"required,gt=0"`
	Text          string   `json:"text" binding:"required"`
	SkipHeader    bool     `json:"skip_header"`
	OrderStatuses []string `json:"order_statuses"`
}

type ConfirmRow struct {
	SourceRow      int    `json:"source_row"`
	ExternalRef    string `json:"external_ref"`
	Amount         string `json:"amount" binding:"required,decimal"`
	Note           string `json:"note"`
	Status         string `json:"status" binding:"required,match_status"`
	MatchedOrderID string `json:"matched_order_id"`
	ManualOrderID  string `json:"manual_order_id"`
}

type ConfirmRequest struct {
	CompanyID int64        `json:"company_id" binding:"required,gt=0"`
	BatchID   string       `json:"batch_id"`
	Rows      []ConfirmRow `json:"rows" binding:"required,min=1,dive"`
}

// Match godoc
// @Summary Match an import against orders
// @Description Match pasted text (JSON body) or an uploaded .csv, .txt or .xlsx file (multipart, field "file") against the company's orders
// @Tags reconciliation
// @Accept json,mpfd
// @Produce json
// @Param request body MatchRequest false "Pasted import"
// @Param company_id formData int false "Company ID (multipart)"
// @Param skip_header formData bool false "Skip the first non-blank row (multipart)"
// @Param order_statuses formData string false "Comma separated order statuses (multipart)"
// @Param file formData file false "Import file (multipart)"
// @Success 200 {object} response.Response{data=domain.MatchReport}
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/match [post]
func (h *ReconciliationHandler) Match(c *gin.Context) {
	var in service.MatchInput
	var err error

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = h.matchInputFromForm(c)
	} else {
		var req MatchRequest
		if err = c.ShouldBindJSON(&req); err != nil {
			logger.GetLogger().WithError(err).Error("Invalid request")
			response.ValidationError(c, err.Error())
			return
		}
		in = service.MatchInput{
			CompanyID:     req.CompanyID,
			Text:          req.Text,
			SkipHeader:    req.SkipHeader,
			OrderStatuses: orderStatuses(strings.Join(req.OrderStatuses, ",")),
		}
	}
	if err != nil {
		respondError(c, err, "Invalid upload")
		return
	}

	report, err := h.service.Match(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Match failed")
		return
	}

	response.Success(c, http.StatusOK, "Match completed successfully", report)
}

func (h *ReconciliationHandler) matchInputFromForm(c *gin.Context) (service.MatchInput, error) {
	var in service.MatchInput

	companyID, err := strconv.ParseInt(c.PostForm("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		return in, domain.ValidationError{Field: "company_id", Code: domain.CodeRequired, Message: "company_id must be a positive integer"}
	}
	in.CompanyID = companyID
	in.SkipHeader, _ = strconv.ParseBool(c.PostForm("skip_header"))
	in.OrderStatuses = orderStatuses(c.PostForm("order_statuses"))

	header, err := c.FormFile("file")
	if err != nil {
		return in, domain.ValidationError{Field: "file", Code: domain.CodeRequired, Message: "file is required"}
	}
	if header.Size > maxUploadBytes {
		return in, domain.ValidationError{Field: "file", Code: domain.CodeNotAccepted, Message: "file is too large"}
	}

	file, err := header.Open()
	if err != nil {
		return in, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		rows, err := parser.ReadSpreadsheetRows(file, "")
		if err != nil {
			return in, domain.ValidationError{Field: "file", Code: domain.CodeInvalidFormat, Message: err.Error()}
		}
		in.Rows = rows
	case ".csv", ".txt":
		data, err := io.ReadAll(file)
		if err != nil {
			return in, fmt.Errorf("failed to read upload: %w", err)
		}
		in.Text = string(data)
	default:
		return in, domain.ValidationError{Field: "file", Code: domain.CodeNotAccepted, Message: "only .csv, .txt and .xlsx files are accepted", Value: header.Filename}
	}

	return in, nil
}

// Confirm godoc
// @Summary Confirm matched rows into the ledger
// @Description Write verified return records for the accepted rows of a match session
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ConfirmRequest true "Accepted rows"
// @Success 201 {object} response.Response{data=service.ConfirmResult}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/confirm [post]
func (h *ReconciliationHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	acceptances := make([]ledger.Acceptance, 0, len(req.Rows))
	for _, row := range req.Rows {
		acceptances = append(acceptances, row.acceptance())
	}

	result, err := h.service.Confirm(c.Request.Context(), service.ConfirmInput{
		CompanyID:   req.CompanyID,
		BatchID:     req.BatchID,
		Acceptances: acceptances,
	})
	if err != nil {
		respondError(c, err, "Confirm failed")
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"company_id": req.CompanyID,
		"batch_id":   result.BatchID,
		"records":    len(result.Records),
	}).Info("Ledger batch confirmed")

	response.Success(c, http.StatusCreated, "Records confirmed successfully", result)
}

func (r ConfirmRow) acceptance() ledger.Acceptance {
	amount, _ := decimal.NewFromString(r.Amount)
	result := domain.MatchResult{
		Record: &domain.ImportRecord{
			SourceRow:   r.SourceRow,
			ExternalRef: r.ExternalRef,
			Amount:      amount,
			Note:        r.Note,
		},
		Status: domain.MatchStatus(r.Status),
	}
	if r.MatchedOrderID != "" {
		id := r.MatchedOrderID
		result.MatchedOrderID = &id
	}
	return ledger.Acceptance{Result: result, ManualOrderID: strings.TrimSpace(r.ManualOrderID)}
}

// Pending godoc
// @Summary List orders without a ledger record
// @Tags reconciliation
// @Produce json
// @Param company_id query int true "Company ID"
// @Param order_status query string false "Comma separated order statuses"
// @Success 200 {object} response.Response{data=[]domain.Order}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/pending [get]
func (h *ReconciliationHandler) Pending(c *gin.Context) {
	companyID, err := queryCompanyID(c)
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	orders, err := h.service.Pending(c.Request.Context(), companyID, orderStatuses(c.Query("order_status")))
	if err != nil {
		respondError(c, err, "Failed to list pending orders")
		return
	}

	response.Success(c, http.StatusOK, "Pending orders retrieved successfully", orders)
}

// BatchRecords godoc
// @Summary Get the records of a confirmed batch
// @Tags reconciliation
// @Produce json
// @Param batch_id path string true "Batch ID"
// @Param company_id query int true "Company ID"
// @Success 200 {object} response.Response{data=[]domain.VerifiedReturnRecord}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/batches/{batch_id} [get]
func (h *ReconciliationHandler) BatchRecords(c *gin.Context) {
	companyID, err := queryCompanyID(c)
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}
	batchID := c.Param("batch_id")

	records, err := h.service.BatchRecords(c.Request.Context(), companyID, batchID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_id", batchID).Error("Failed to get batch")
		respondError(c, err, "Failed to get batch")
		return
	}

	response.Success(c, http.StatusOK, "Batch retrieved successfully", records)
}

// OrderRecords godoc
// @Summary Get the ledger records of an order
// @Tags reconciliation
// @Produce json
// @Param order_id path string true "Order ID"
// @Param company_id query int true "Company ID"
// @Success 200 {object} response.Response{data=[]domain.VerifiedReturnRecord}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile/orders/{order_id}/records [get]
func (h *ReconciliationHandler) OrderRecords(c *gin.Context) {
	companyID, err := queryCompanyID(c)
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	records, err := h.service.OrderRecords(c.Request.Context(), companyID, c.Param("order_id"))
	if err != nil {
		respondError(c, err, "Failed to get order records")
		return
	}

	response.Success(c, http.StatusOK, "Order records retrieved successfully", records)
}
