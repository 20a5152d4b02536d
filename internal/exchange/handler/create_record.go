package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"fxgate/internal/auth"
	"fxgate/internal/domain"
	"fxgate/internal/exchange"
	"fxgate/internal/validation"

	"github.com/sirupsen/logrus"
)

type CreateRecordResponse struct {
	CurrencyCode string `json:"currency_code" example:"USD"`
	Rate         string `json:"rate" example:"41.09"`
}

var rejectionDetails = map[exchange.RejectReason]string{
	exchange.ReasonInsufficientBalance: "Insufficient balance.",
	exchange.ReasonRateUnavailable:     "Invalid currency code or API error.",
}

// CreateRecord godoc
// @Summary Exchange one credit for a rate
// @Description Spends one unit of balance to look up the rate of a currency into the target currency
// @Tags Exchange
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body exchange.CreateRecordRequest true "Currency code"
// @Success 200 {object} CreateRecordResponse
// @Failure 400 {object} errorResponse "insufficient balance or no rate"
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse "no balance for user"
// @Failure 500 {object} errorResponse
// @Router /currency [post]
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1024)
	var req exchange.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON parse error.")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, fieldErrs)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "CreateRecord"}).Error("request validation failed")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	out, err := h.exchanger.Exchange(r.Context(), userID, req.CurrencyCode)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			writeError(w, http.StatusNotFound, "There's no balance for such user")
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "CreateRecord", "user_id": userID, "currency_code": req.CurrencyCode}).Error("exchange failed")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	if !out.Committed() {
		writeError(w, http.StatusBadRequest, rejectionDetails[out.Reason])
		return
	}

	writeJSON(w, http.StatusOK, CreateRecordResponse{
		CurrencyCode: out.CurrencyCode,
		Rate:         out.Rate.StringFixed(domain.RatePlaces),
	})
}
