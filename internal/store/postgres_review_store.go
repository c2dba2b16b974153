package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
)

const reviewColumns = `id, user_account_id, nickname, movie_id, series_id, content_type, content, rating, created_at, updated_at`

// PostgresReviewStore implements ReviewStore on PostgreSQL.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore wraps an already connected database.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil for PostgresReviewStore")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

// Connect opens and pings a postgres connection.
func Connect(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func contentColumn(ref domain.ContentRef) string {
	if ref.Kind() == domain.ContentSeries {
		return "series_id"
	}
	return "movie_id"
}

func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.Review) error {
	if _, err := review.Ref(); err != nil {
		return err
	}
	query := `INSERT INTO reviews (` + reviewColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create review query",
		slog.String("reviewID", review.ID),
		slog.Int64("userAccountID", review.UserAccountID))

	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.UserAccountID, review.Nickname, review.MovieID, review.SeriesID,
		review.ContentType, review.Content, review.Rating, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "uq_user_movie_review" || pqErr.Constraint == "uq_user_series_review" {
				s.logger.WarnContext(ctx, "User has already reviewed this content",
					slog.Int64("userAccountID", review.UserAccountID), slog.String("constraint", pqErr.Constraint))
				return ErrDuplicateReview
			}
			return fmt.Errorf("create review: unique constraint %s: %w", pqErr.Constraint, err)
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *PostgresReviewStore) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	var review domain.Review
	err := s.db.GetContext(ctx, &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return &review, nil
}

func (s *PostgresReviewStore) Update(ctx context.Context, reviewID string, userAccountID int64, req domain.UpdateReviewRequest) (*domain.Review, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review update: %w", err)
	}
	defer tx.Rollback()

	var review domain.Review
	err = tx.GetContext(ctx, &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("load review for update: %w", err)
	}
	if review.UserAccountID != userAccountID {
		return nil, ErrNotAuthor
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		review.Content = *req.Content
	}
	review.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `UPDATE reviews SET rating = $1, content = $2, updated_at = $3 WHERE id = $4`,
		review.Rating, review.Content, review.UpdatedAt, review.ID)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review update: %w", err)
	}
	s.logger.InfoContext(ctx, "Review updated", slog.String("reviewID", review.ID))
	return &review, nil
}

func (s *PostgresReviewStore) Delete(ctx context.Context, reviewID string, userAccountID int64) error {
	var owner int64
	err := s.db.GetContext(ctx, &owner, `SELECT user_account_id FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("load review owner: %w", err)
	}
	if owner != userAccountID {
		return ErrNotAuthor
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1 AND user_account_id = $2`, reviewID, userAccountID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review delete result: %w", err)
	}
	if rows == 0 {
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review deleted", slog.String("reviewID", reviewID))
	return nil
}

func (s *PostgresReviewStore) ListByContent(ctx context.Context, ref domain.ContentRef, params ListReviewsParams) ([]domain.Review, int, error) {
	col := contentColumn(ref)
	return s.page(ctx, col+` = $1`, params, ref.ID())
}

func (s *PostgresReviewStore) ListAll(ctx context.Context, params ListReviewsParams) ([]domain.Review, int, error) {
	return s.page(ctx, `TRUE`, params)
}

func (s *PostgresReviewStore) Search(ctx context.Context, keyword string, params ListReviewsParams) ([]domain.Review, int, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	return s.page(ctx, `(nickname LIKE $1 OR content LIKE $1)`, params, pattern)
}

func (s *PostgresReviewStore) AggregatedRating(ctx context.Context, ref domain.ContentRef) (*domain.RatingAggregate, error) {
	query := `SELECT COALESCE(AVG(rating), 0) AS average_rating, COUNT(rating) AS total_count
              FROM reviews WHERE ` + contentColumn(ref) + ` = $1`

	var row struct {
		AverageRating float64 `db:"average_rating"`
		TotalCount    int64   `db:"total_count"`
	}
	if err := s.db.GetContext(ctx, &row, query, ref.ID()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get aggregated rating from DB",
			slog.String("content", ref.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("aggregate rating for %s: %w", ref, err)
	}
	return &domain.RatingAggregate{AverageRating: row.AverageRating, TotalCount: row.TotalCount}, nil
}

// page runs a COUNT and a LIMIT/OFFSET select over where. args bind $1..$n
// inside where; the paging placeholders follow them.
func (s *PostgresReviewStore) page(ctx context.Context, where string, params ListReviewsParams, args ...interface{}) ([]domain.Review, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	if total == 0 {
		return []domain.Review{}, 0, nil
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	s.logger.DebugContext(ctx, "Executing review page query", slog.String("where", where),
		slog.Int("page", params.Page), slog.Int("pageSize", params.PageSize))

	reviews := []domain.Review{}
	args = append(args, params.PageSize, params.Offset())
	if err := s.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
