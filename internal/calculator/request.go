package calculator

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcalc/internal/common"
	"github.com/noah-isme/taxcalc/internal/tax"
)

type deductionsRequest struct {
	Section80C decimal.Decimal `json:"section80C" validate:"gte=0,lte=150000"`
	Section80D decimal.Decimal `json:"section80D" validate:"gte=0"`
}

type computeRequest struct {
	SalaryIncome     decimal.Decimal   `json:"salaryIncome" validate:"gte=0"`
	OtherIncome      decimal.Decimal   `json:"otherIncome" validate:"gte=0"`
	Regime           string            `json:"regime"`
	Deductions       deductionsRequest `json:"deductions"`
	HRAExemption     decimal.Decimal   `json:"hraExemption" validate:"gte=0"`
	HomeLoanInterest decimal.Decimal   `json:"homeLoanInterest" validate:"gte=0"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// NewValidator returns a validator that checks decimal amounts numerically and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toInputs validates req and converts it. With withRegime unset the regime
// field is ignored and RegimeNew is filled in; otherwise an empty regime
// selects the new regime.
func (req computeRequest) toInputs(v *validator.Validate, withRegime bool) (tax.TaxInputs, error) {
	if err := v.Struct(req); err != nil {
		return tax.TaxInputs{}, validationError(err)
	}
	if details := req.checkAmounts(); len(details) > 0 {
		return tax.TaxInputs{}, failedFields(details, nil)
	}
	regime := tax.RegimeNew
	if withRegime && strings.TrimSpace(req.Regime) != "" {
		parsed, err := tax.ParseRegime(req.Regime)
		if err != nil {
			return tax.TaxInputs{}, common.NewAppError("INVALID_REGIME", "regime must be old or new", http.StatusBadRequest, err)
		}
		regime = parsed
	}
	return tax.TaxInputs{
		SalaryIncome: req.SalaryIncome,
		OtherIncome:  req.OtherIncome,
		Regime:       regime,
		Deductions: tax.Deductions{
			Section80C: req.Deductions.Section80C,
			Section80D: req.Deductions.Section80D,
		},
		HRAExemption:     req.HRAExemption,
		HomeLoanInterest: req.HomeLoanInterest,
	}, nil
}

// checkAmounts repeats the bound checks on the exact decimals. The validator
// compares float64 copies, which round values like 150000.000000000001 onto
// the bound.
func (req computeRequest) checkAmounts() []FieldError {
	var details []FieldError
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"salaryIncome", req.SalaryIncome},
		{"otherIncome", req.OtherIncome},
		{"deductions.section80C", req.Deductions.Section80C},
		{"deductions.section80D", req.Deductions.Section80D},
		{"hraExemption", req.HRAExemption},
		{"homeLoanInterest", req.HomeLoanInterest},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			details = append(details, FieldError{Field: a.field, Rule: "gte", Param: "0"})
		}
	}
	if limit := tax.Section80CLimit(); req.Deductions.Section80C.GreaterThan(limit) {
		details = append(details, FieldError{Field: "deductions.section80C", Rule: "lte", Param: limit.String()})
	}
	return details
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return common.NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field: trimNamespace(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failedFields(details, err)
}

func failedFields(details []FieldError, cause error) *common.AppError {
	appErr := common.NewAppError("VALIDATION_FAILED", fmt.Sprintf("%d field(s) failed validation", len(details)), http.StatusBadRequest, cause)
	appErr.Details = details
	return appErr
}

// trimNamespace drops the root struct name: "computeRequest.deductions.section80C"
// becomes "deductions.section80C".
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
