package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("user has already reviewed this content")
	ErrNotAuthor       = errors.New("review belongs to another user")
)

// ListReviewsParams selects a 0-based page.
type ListReviewsParams struct {
	Page     int
	PageSize int
}

// Offset is the number of rows skipped before the page.
func (p ListReviewsParams) Offset() int {
	if p.Page < 0 || p.PageSize <= 0 {
		return 0
	}
	return p.Page * p.PageSize
}

// ReviewStore is the persistence contract of the review service. Lists are
// ordered newest first.
type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, reviewID string) (*domain.Review, error)
	Update(ctx context.Context, reviewID string, userAccountID int64, req domain.UpdateReviewRequest) (*domain.Review, error)
	Delete(ctx context.Context, reviewID string, userAccountID int64) error
	ListByContent(ctx context.Context, ref domain.ContentRef, params ListReviewsParams) ([]domain.Review, int, error)
	ListAll(ctx context.Context, params ListReviewsParams) ([]domain.Review, int, error)
	Search(ctx context.Context, keyword string, params ListReviewsParams) ([]domain.Review, int, error)
	AggregatedRating(ctx context.Context, ref domain.ContentRef) (*domain.RatingAggregate, error)
}

// MemoryReviewStore keeps reviews in process memory. Used by tests and by
// the service when no database is configured.
type MemoryReviewStore struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	reviews map[string]*memoryRow
	seq     int64
	now     func() time.Time
}

type memoryRow struct {
	review domain.Review
	seq    int64
}

func NewMemoryReviewStore(logger *slog.Logger) *MemoryReviewStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MemoryReviewStore{
		logger:  logger,
		reviews: make(map[string]*memoryRow),
		now:     time.Now,
	}
}

func (m *MemoryReviewStore) Create(ctx context.Context, review *domain.Review) error {
	ref, err := review.Ref()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reviews[review.ID]; exists {
		return errors.New("review with this ID already exists")
	}
	for _, row := range m.reviews {
		other, _ := row.review.Ref()
		if row.review.UserAccountID == review.UserAccountID && other == ref {
			m.logger.WarnContext(ctx, "Duplicate review rejected",
				slog.Int64("userAccountID", review.UserAccountID), slog.String("content", ref.String()))
			return ErrDuplicateReview
		}
	}

	review.CreatedAt = m.now().UTC()
	review.UpdatedAt = review.CreatedAt
	m.seq++
	m.reviews[review.ID] = &memoryRow{review: cloneReview(*review), seq: m.seq}
	m.logger.DebugContext(ctx, "Review stored in memory", slog.String("reviewID", review.ID))
	return nil
}

func (m *MemoryReviewStore) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.reviews[reviewID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	r := cloneReview(row.review)
	return &r, nil
}

func (m *MemoryReviewStore) Update(ctx context.Context, reviewID string, userAccountID int64, req domain.UpdateReviewRequest) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.reviews[reviewID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	if row.review.UserAccountID != userAccountID {
		return nil, ErrNotAuthor
	}
	if req.Rating != nil {
		row.review.Rating = *req.Rating
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		row.review.Content = *req.Content
	}
	row.review.UpdatedAt = m.now().UTC()
	r := cloneReview(row.review)
	return &r, nil
}

func (m *MemoryReviewStore) Delete(ctx context.Context, reviewID string, userAccountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.reviews[reviewID]
	if !ok {
		return ErrReviewNotFound
	}
	if row.review.UserAccountID != userAccountID {
		return ErrNotAuthor
	}
	delete(m.reviews, reviewID)
	return nil
}

func (m *MemoryReviewStore) ListByContent(ctx context.Context, ref domain.ContentRef, params ListReviewsParams) ([]domain.Review, int, error) {
	return m.list(params, func(r *domain.Review) bool {
		other, err := r.Ref()
		return err == nil && other == ref
	})
}

func (m *MemoryReviewStore) ListAll(ctx context.Context, params ListReviewsParams) ([]domain.Review, int, error) {
	return m.list(params, func(*domain.Review) bool { return true })
}

func (m *MemoryReviewStore) Search(ctx context.Context, keyword string, params ListReviewsParams) ([]domain.Review, int, error) {
	return m.list(params, func(r *domain.Review) bool {
		return strings.Contains(r.Nickname, keyword) || strings.Contains(r.Content, keyword)
	})
}

func (m *MemoryReviewStore) AggregatedRating(ctx context.Context, ref domain.ContentRef) (*domain.RatingAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum, count int64
	for _, row := range m.reviews {
		other, err := row.review.Ref()
		if err != nil || other != ref {
			continue
		}
		sum += int64(row.review.Rating)
		count++
	}
	agg := &domain.RatingAggregate{TotalCount: count}
	if count > 0 {
		agg.AverageRating = float64(sum) / float64(count)
	}
	return agg, nil
}

func (m *MemoryReviewStore) list(params ListReviewsParams, match func(*domain.Review) bool) ([]domain.Review, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*memoryRow, 0)
	for _, row := range m.reviews {
		if match(&row.review) {
			matched = append(matched, row)
		}
	}

	sortNewestFirst(matched)

	total := len(matched)
	start := params.Offset()
	if start >= total {
		return []domain.Review{}, total, nil
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}

	out := make([]domain.Review, 0, end-start)
	for _, row := range matched[start:end] {
		out = append(out, cloneReview(row.review))
	}
	return out, total, nil
}

func sortNewestFirst(rows []*memoryRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
}

func cloneReview(r domain.Review) domain.Review {
	if r.MovieID != nil {
		id := *r.MovieID
		r.MovieID = &id
	}
	if r.SeriesID != nil {
		id := *r.SeriesID
		r.SeriesID = &id
	}
	return r
}
