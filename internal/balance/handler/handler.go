package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fxgate/internal/auth"
	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BalanceGetter interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (domain.Balance, error)
}

type Handler struct {
	service BalanceGetter
}

func NewBalanceHandler(service BalanceGetter) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type GetBalanceResponse struct {
	Balance int `json:"balance" example:"999"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// GetBalance godoc
// @Summary Get balance
// @Description Remaining exchange credits of the current user
// @Tags Balance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} GetBalanceResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /balance [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Authentication credentials were not provided."})
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Detail: "There's no balance for such user"})
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetBalance", "user_id": userID}).Error("couldn't load balance")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Something went wrong."})
		return
	}

	writeJSON(w, http.StatusOK, GetBalanceResponse{Balance: balance.Amount})
}
