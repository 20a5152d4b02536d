package exchange

import (
	"context"

	"fxgate/internal/adapters"
	"fxgate/internal/domain"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type HistoryService struct {
	records         adapters.ExchangeRepository
	defaultPageSize int
	maxPageSize     int
}

// ListHistory returns one page of the user's records, newest first. Pages are 1-indexed;
// a page past the last one fails with domain.ErrInvalidPage.
func (s *HistoryService) ListHistory(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter, page domain.PageRequest) (domain.HistoryPage, error) {
	size := s.pageSize(page.PageSize)

	count, err := s.records.Count(ctx, userID, filter)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	totalPages := (count + size - 1) / size
	if totalPages == 0 {
		totalPages = 1 // an empty first page is still a page
	}
	if page.Page < 1 || page.Page > totalPages {
		return domain.HistoryPage{}, domain.ErrInvalidPage
	}

	records, err := s.records.Query(ctx, userID, filter, size, (page.Page-1)*size)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	return domain.HistoryPage{
		Records:     records,
		Count:       count,
		CurrentPage: page.Page,
		TotalPages:  totalPages,
		PageSize:    size,
	}, nil
}

func (s *HistoryService) pageSize(requested int) int {
	if requested <= 0 {
		return s.defaultPageSize
	}
	if requested > s.maxPageSize {
		return s.maxPageSize
	}
	return requested
}

func NewHistoryService(records adapters.ExchangeRepository, defaultSize, maxSize int) *HistoryService {
	if maxSize <= 0 {
		maxSize = maxPageSize
	}
	if defaultSize <= 0 || defaultSize > maxSize {
		defaultSize = min(defaultPageSize, maxSize)
	}
	return &HistoryService{records: records, defaultPageSize: defaultSize, maxPageSize: maxSize}
}
