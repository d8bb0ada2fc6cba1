package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/service"
	"recon-ledger/pkg/response"
)

type SummaryHandler struct {
	service service.SummaryService
}

func NewSummaryHandler(service service.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

type SummaryRequest struct {
	CompanyID int64  `form:"company_id" binding:"required,gt=0"`
	Month     int    `form:"month" binding:"required,min=1,max=12"`
	Year      int    `form:"year" binding:"required,min=2000,max=9999"`
	Status    string `form:"status" binding:"required,period_status"`
}

// Get godoc
// @Summary Monthly debt and verification summary
// @Tags summary
// @Produce json
// @Param company_id query int true "Company ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Param status query string true "active or completed"
// @Success 200 {object} response.Response{data=domain.Summary}
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/summary [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), domain.SummaryQuery{
		CompanyID: req.CompanyID,
		Month:     req.Month,
		Year:      req.Year,
		Status:    domain.SummaryScope(req.Status),
	})
	if err != nil {
		respondError(c, err, "Failed to build summary")
		return
	}

	response.Success(c, http.StatusOK, "Summary retrieved successfully", summary)
}
