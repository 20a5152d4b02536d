package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"fxgate/internal/domain"
	"fxgate/internal/exchange"
	"fxgate/internal/validation"

	"github.com/google/uuid"
)

type Exchanger interface {
	Exchange(ctx context.Context, userID uuid.UUID, code string) (exchange.Outcome, error)
}

type HistoryLister interface {
	ListHistory(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter, page domain.PageRequest) (domain.HistoryPage, error)
}

type Handler struct {
	validator *validation.Validator
	exchanger Exchanger
	history   HistoryLister
}

func NewExchangeHandler(v *validation.Validator, exchanger Exchanger, history HistoryLister) *Handler {
	return &Handler{validator: v, exchanger: exchanger, history: history}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, errorResponse{Detail: detail})
}
