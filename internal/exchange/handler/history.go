package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fxgate/internal/auth"
	"fxgate/internal/domain"
	"fxgate/internal/exchange"
	"fxgate/internal/validation"

	"github.com/sirupsen/logrus"
)

type RecordResponse struct {
	User         string    `json:"user" example:"77b5d9f5-0569-47e3-aee2-f659d59fbd97"`
	CurrencyCode string    `json:"currency_code" example:"USD"`
	Rate         string    `json:"rate" example:"41.09"`
	CreatedAt    time.Time `json:"created_at" example:"2024-03-14T10:00:00Z"`
}

type HistoryResponse struct {
	Count       int              `json:"count" example:"8"`
	Next        *string          `json:"next"`
	Previous    *string          `json:"previous"`
	TotalPages  int              `json:"total_pages" example:"4"`
	CurrentPage int              `json:"current_page" example:"1"`
	Results     []RecordResponse `json:"results"`
}

// History godoc
// @Summary List exchange history
// @Description Paginated exchange records of the current user, newest first
// @Tags Exchange
// @Produce json
// @Security BearerAuth
// @Param currency_code query string false "Currency code"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse "invalid page"
// @Failure 500 {object} errorResponse
// @Router /history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	values := r.URL.Query()
	query := exchange.HistoryQuery{
		CurrencyCode: values.Get("currency_code"),
		StartDate:    values.Get("start_date"),
		EndDate:      values.Get("end_date"),
		Page:         values.Get("page"),
		PageSize:     values.Get("page_size"),
	}

	filter, err := query.Filter(h.validator)
	if err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, fieldErrs)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "History"}).Error("query validation failed")
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	pageReq, err := query.PageRequest()
	if err != nil {
		writeError(w, http.StatusNotFound, "Invalid page.")
		return
	}

	page, err := h.history.ListHistory(r.Context(), userID, filter, pageReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPage):
			writeError(w, http.StatusNotFound, "Invalid page.")
		case errors.Is(err, domain.ErrInvalidQuery):
			writeJSON(w, http.StatusBadRequest, validation.FieldErrors{
				"date_range": {"Start date must be before or equal to end date."},
			})
		default:
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "History", "user_id": userID}).Error("history query failed")
			writeError(w, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	res := HistoryResponse{
		Count:       page.Count,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Results:     make([]RecordResponse, 0, len(page.Records)),
	}
	if page.HasNext() {
		res.Next = pageURL(r, page.CurrentPage+1)
	}
	if page.HasPrevious() {
		res.Previous = pageURL(r, page.CurrentPage-1)
	}
	for _, rec := range page.Records {
		res.Results = append(res.Results, RecordResponse{
			User:         rec.UserID.String(),
			CurrencyCode: rec.CurrencyCode,
			Rate:         rec.Rate.StringFixed(domain.RatePlaces),
			CreatedAt:    rec.CreatedAt.UTC(),
		})
	}

	writeJSON(w, http.StatusOK, res)
}

// pageURL rebuilds the absolute request URL with page replaced.
func pageURL(r *http.Request, page int) *string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	s := u.String()
	return &s
}
