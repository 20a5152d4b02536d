package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatePlaces is the number of fractional digits a rate is stored and reported with.
const RatePlaces = 2

type ExchangeRecord struct {
	ID           int64
	UserID       uuid.UUID
	CurrencyCode string
	Rate         decimal.Decimal
	CreatedAt    time.Time
}

// DateRange covers whole days: Start 00:00 through the last instant of End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Bounds returns the half-open interval [from, to) in UTC.
func (r DateRange) Bounds() (from, to time.Time) {
	from = truncateDay(r.Start)
	to = truncateDay(r.End).AddDate(0, 0, 1)
	return from, to
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type HistoryFilter struct {
	CurrencyCode string
	DateRange    *DateRange
}

type PageRequest struct {
	Page     int
	PageSize int
}

type HistoryPage struct {
	Records     []ExchangeRecord
	Count       int
	CurrentPage int
	TotalPages  int
	PageSize    int
}

func (p HistoryPage) HasNext() bool { return p.CurrentPage < p.TotalPages }

func (p HistoryPage) HasPrevious() bool { return p.CurrentPage > 1 }
