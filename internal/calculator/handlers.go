package calculator

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/taxcalc/internal/common"
	"github.com/noah-isme/taxcalc/internal/format"
	"github.com/noah-isme/taxcalc/internal/tax"
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
	Currency  *format.Currency
}

// Handler exposes the calculator over JSON.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	currency format.Currency
}

// NewHandler constructs a Handler, filling in a default validator and currency.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{svc: cfg.Service, validate: cfg.Validator, currency: format.Default}
	if h.validate == nil {
		h.validate = NewValidator()
	}
	if cfg.Currency != nil {
		h.currency = *cfg.Currency
	}
	return h
}

// Compute returns the breakdown for the submitted figures.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "calculator service not configured", nil)
		return
	}
	in, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	b, err := h.svc.Compute(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":      b,
		"formatted": h.currency.Map(b),
	})
}

// Compare returns breakdowns under both regimes and the cheaper one.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "calculator service not configured", nil)
		return
	}
	in, ok := h.decode(w, r, false)
	if !ok {
		return
	}
	c, err := h.svc.Compare(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": c,
		"formatted": map[string]any{
			"old":     h.currency.Map(c.Old),
			"new":     h.currency.Map(c.New),
			"savings": h.currency.Amount(c.Savings),
		},
	})
}

// Regimes lists the slab schedules.
func (h *Handler) Regimes(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": tax.Schedules()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, withRegime bool) (tax.TaxInputs, bool) {
	var req computeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return tax.TaxInputs{}, false
	}
	in, err := req.toInputs(h.validate, withRegime)
	if err != nil {
		h.writeError(w, err)
		return tax.TaxInputs{}, false
	}
	return in, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, tax.ErrUnknownRegime):
		common.JSONError(w, http.StatusBadRequest, "INVALID_REGIME", err.Error(), nil)
	case errors.Is(err, tax.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to compute tax", nil)
	}
}
