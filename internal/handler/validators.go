package handler

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"recon-ledger/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags used in request bindings:
// decimal, period_status, match_status and result_status.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}

	var err error
	registerOnce.Do(func() {
		for tag, fn := range map[string]validator.Func{
			"decimal":       validateDecimal,
			"period_status": validatePeriodStatus,
			"match_status":  validateMatchStatus,
			"result_status": validateResultStatus,
		} {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

func validatePeriodStatus(fl validator.FieldLevel) bool {
	return domain.SummaryScope(fl.Field().String()).Valid()
}

func validateMatchStatus(fl validator.FieldLevel) bool {
	return domain.MatchStatus(fl.Field().String()).Valid()
}

func validateResultStatus(fl validator.FieldLevel) bool {
	return domain.ResultStatus(fl.Field().String()).Valid()
}
