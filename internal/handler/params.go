package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recon-ledger/internal/domain"
)

func queryCompanyID(c *gin.Context) (int64, error) {
	raw := c.Query("company_id")
	if raw == "" {
		return 0, domain.ValidationError{Field: "company_id", Code: domain.CodeRequired, Message: "company_id is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: "company_id", Code: domain.CodeInvalidValue, Message: "company_id must be a positive integer", Value: raw}
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Code: domain.CodeInvalidValue, Message: fmt.Sprintf("%s must be a positive integer", name), Value: raw}
	}
	return id, nil
}

// orderStatuses reads a comma separated order_status list. Unknown names are
// passed through; they simply match nothing.
func orderStatuses(raw string) []domain.OrderStatus {
	var statuses []domain.OrderStatus
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, domain.OrderStatus(s))
		}
	}
	return statuses
}
