package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recon-ledger/internal/service"
	"recon-ledger/pkg/logger"
	"recon-ledger/pkg/response"
)

type StatementHandler struct {
	service service.StatementService
}

func NewStatementHandler(service service.StatementService) *StatementHandler {
	return &StatementHandler{service: service}
}

type StatementRequest struct {
	CompanyID     int64  `json:"company_id" binding:"required,gt=0"`
	BankAccountID int64  `json:"bank_account_id" binding:"required,gt=0"`
	UserID        int64  `json:"user_id" binding:"required,gt=0"`
	Text          string `json:"text" binding:"required"`
	Notes         string `json:"notes"`
}

// Create godoc
// @Summary Ingest a bank statement
// @Description Store a bank statement CSV as a numbered batch and match its rows against the company's orders
// @Tags statements
// @Accept json
// @Produce json
// @Param request body StatementRequest true "Statement upload"
// @Success 201 {object} response.Response{data=service.StatementResult}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/statements [post]
func (h *StatementHandler) Create(c *gin.Context) {
	var req StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), service.StatementInput{
		CompanyID:     req.CompanyID,
		BankAccountID: req.BankAccountID,
		UserID:        req.UserID,
		Text:          req.Text,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err, "Statement ingest failed")
		return
	}

	response.Success(c, http.StatusCreated, "Statement stored successfully", result)
}

// Get godoc
// @Summary Get a statement batch
// @Tags statements
// @Produce json
// @Param id path int true "Batch ID"
// @Param company_id query int true "Company ID"
// @Success 200 {object} response.Response{data=domain.StatementBatch}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/statements/{id} [get]
func (h *StatementHandler) Get(c *gin.Context) {
	companyID, err := queryCompanyID(c)
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	batch, err := h.service.Get(c.Request.Context(), companyID, id)
	if err != nil {
		respondError(c, err, "Failed to get statement")
		return
	}

	response.Success(c, http.StatusOK, "Statement retrieved successfully", batch)
}
