package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fxgate/internal/account"
	"fxgate/internal/validation"

	"github.com/sirupsen/logrus"
)

type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (account.TokenPair, error)
	ObtainToken(ctx context.Context, email, password string) (account.TokenPair, error)
	Refresh(ctx context.Context, rawRefresh string) (string, error)
	Logout(ctx context.Context, rawRefresh string) error
}

type Handler struct {
	validator *validation.Validator
	service   AccountService
}

func NewAccountHandler(v *validation.Validator, service AccountService) *Handler {
	return &Handler{validator: v, service: service}
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

type TokenPairResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, errorResponse{Detail: detail})
}

func writeInvalidToken(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Token is invalid or expired", Code: "token_not_valid"})
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes the
// error response itself and returns false when the request can't go on.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if !decodeJSON(w, r, dst) {
		return false
	}
	return h.validate(w, name, dst)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "JSON parse error.")
		return false
	}
	return true
}

func (h *Handler) validate(w http.ResponseWriter, name string, dst any) bool {
	err := h.validator.Struct(dst)
	if err == nil {
		return true
	}
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return false
	}
	logrus.WithError(err).WithFields(logrus.Fields{"handler": name}).Error("request validation failed")
	writeError(w, http.StatusInternalServerError, "Something went wrong.")
	return false
}
