package exchange

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fxgate/internal/domain"
	"fxgate/internal/validation"
)

const dateLayout = "2006-01-02"

type CreateRecordRequest struct {
	CurrencyCode string `json:"currency_code" validate:"required,max=10"`
}

// Normalize trims and upper-cases the currency code.
func (r *CreateRecordRequest) Normalize() {
	r.CurrencyCode = strings.ToUpper(strings.TrimSpace(r.CurrencyCode))
}

type HistoryQuery struct {
	CurrencyCode string `query:"currency_code" validate:"omitempty,max=10,alphanum"`
	StartDate    string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page         string `query:"page" validate:"-"`
	PageSize     string `query:"page_size" validate:"-"`
}

// Filter validates the query and converts it into a store filter.
// Errors are validation.FieldErrors keyed by query parameter.
func (q HistoryQuery) Filter(v *validation.Validator) (domain.HistoryFilter, error) {
	q.CurrencyCode = strings.ToUpper(strings.TrimSpace(q.CurrencyCode))
	q.StartDate = strings.TrimSpace(q.StartDate)
	q.EndDate = strings.TrimSpace(q.EndDate)

	fieldErrs := validation.FieldErrors{}
	if err := v.Struct(q); err != nil {
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			return domain.HistoryFilter{}, err
		}
		fieldErrs = fe
	}
	if len(fieldErrs) > 0 {
		return domain.HistoryFilter{}, fieldErrs
	}

	filter := domain.HistoryFilter{CurrencyCode: q.CurrencyCode}
	// a date range applies only when both ends are given
	if q.StartDate != "" && q.EndDate != "" {
		start, _ := time.Parse(dateLayout, q.StartDate)
		end, _ := time.Parse(dateLayout, q.EndDate)
		if start.After(end) {
			return domain.HistoryFilter{}, validation.FieldErrors{
				"date_range": {"Start date must be before or equal to end date."},
			}
		}
		filter.DateRange = &domain.DateRange{Start: start, End: end}
	}
	return filter, nil
}

// PageRequest parses page and page_size. A malformed page is domain.ErrInvalidPage;
// a malformed page_size falls back to the default (0).
func (q HistoryQuery) PageRequest() (domain.PageRequest, error) {
	req := domain.PageRequest{Page: 1}
	if raw := strings.TrimSpace(q.Page); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return domain.PageRequest{}, domain.ErrInvalidPage
		}
		req.Page = page
	}
	if raw := strings.TrimSpace(q.PageSize); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.PageSize = size
		}
	}
	return req, nil
}
