package handler

import (
	"errors"
	"net/http"

	"fxgate/internal/account"
	"fxgate/internal/domain"

	"github.com/sirupsen/logrus"
)

// ObtainToken godoc
// @Summary Obtain a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body account.TokenRequest true "Credentials"
// @Success 200 {object} TokenPairResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /auth/token [post]
func (h *Handler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req account.TokenRequest
	if !h.decodeAndValidate(w, r, "ObtainToken", &req) {
		return
	}

	pair, err := h.service.ObtainToken(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "No active account found with the given credentials")
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "ObtainToken"}).Error("token wasn't issued")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusOK, TokenPairResponse{Refresh: pair.Refresh, Access: pair.Access})
}

type RefreshResponse struct {
	Access string `json:"access"`
}

// RefreshToken godoc
// @Summary Refresh an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body account.RefreshRequest true "Refresh token"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errorResponse
// @Router /auth/token/refresh [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req account.RefreshRequest
	if !h.decodeAndValidate(w, r, "RefreshToken", &req) {
		return
	}

	access, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeInvalidToken(w)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "RefreshToken"}).Error("token wasn't refreshed")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{Access: access})
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags Auth
// @Accept json
// @Param request body account.RefreshRequest true "Refresh token"
// @Success 204
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errorResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req account.RefreshRequest
	if !h.decodeAndValidate(w, r, "Logout", &req) {
		return
	}

	if err := h.service.Logout(r.Context(), req.Refresh); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeInvalidToken(w)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "Logout"}).Error("session wasn't revoked")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
