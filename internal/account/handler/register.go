package handler

import (
	"errors"
	"net/http"

	"fxgate/internal/account"
	"fxgate/internal/domain"
	"fxgate/internal/validation"

	"github.com/sirupsen/logrus"
)

// Register godoc
// @Summary Register a user
// @Description Creates the account with a starting balance and returns a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body account.RegisterRequest true "New user"
// @Success 201 {object} TokenPairResponse
// @Failure 400 {object} map[string][]string
// @Failure 429 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if !h.decodeAndValidateRegister(w, r, &req) {
		return
	}

	pair, err := h.service.Register(r.Context(), req.Input())
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			writeJSON(w, http.StatusBadRequest, validation.FieldErrors{
				"email": {"user with this email address already exists."},
			})
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "Register"}).Error("user wasn't registered")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusCreated, TokenPairResponse{Refresh: pair.Refresh, Access: pair.Access})
}

func (h *Handler) decodeAndValidateRegister(w http.ResponseWriter, r *http.Request, req *account.RegisterRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if !decodeJSON(w, r, req) {
		return false
	}
	req.Normalize()
	return h.validate(w, "Register", req)
}
