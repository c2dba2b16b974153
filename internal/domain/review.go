package domain

import (
	"errors"
	"fmt"
	"time"
)

// ContentType is the path segment that scopes review endpoints.
type ContentType string

const (
	ContentMovies ContentType = "movies"
	ContentSeries ContentType = "series"
)

// ErrInvalidContentType is returned for any content type other than "movies" or "series".
var ErrInvalidContentType = errors.New("invalid content type")

// ParseContentType accepts exactly "movies" or "series".
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentMovies, ContentSeries:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
	}
}

// ContentRef points at exactly one movie or series. The zero value is invalid.
type ContentRef struct {
	kind ContentType
	id   int64
}

// MovieRef references a movie.
func MovieRef(id int64) ContentRef { return ContentRef{kind: ContentMovies, id: id} }

// SeriesRef references a series.
func SeriesRef(id int64) ContentRef { return ContentRef{kind: ContentSeries, id: id} }

// NewContentRef builds a reference from a raw path segment and id.
func NewContentRef(contentType string, id int64) (ContentRef, error) {
	ct, err := ParseContentType(contentType)
	if err != nil {
		return ContentRef{}, err
	}
	return ContentRef{kind: ct, id: id}, nil
}

func (r ContentRef) Kind() ContentType { return r.kind }
func (r ContentRef) ID() int64         { return r.id }
func (r ContentRef) Valid() bool       { return r.kind == ContentMovies || r.kind == ContentSeries }

// MovieID is non-nil only for movie references.
func (r ContentRef) MovieID() *int64 {
	if r.kind != ContentMovies {
		return nil
	}
	id := r.id
	return &id
}

// SeriesID is non-nil only for series references.
func (r ContentRef) SeriesID() *int64 {
	if r.kind != ContentSeries {
		return nil
	}
	id := r.id
	return &id
}

func (r ContentRef) String() string { return fmt.Sprintf("%s/%d", r.kind, r.id) }

// Review is a single user review of a movie or series.
type Review struct {
	ID            string      `json:"id" db:"id"`
	UserAccountID int64       `json:"userAccountId" db:"user_account_id"`
	Nickname      string      `json:"nickname" db:"nickname"`
	MovieID       *int64      `json:"movieId" db:"movie_id"`
	SeriesID      *int64      `json:"seriesId" db:"series_id"`
	ContentType   ContentType `json:"contentType" db:"content_type"`
	Content       string      `json:"content" db:"content"`
	Rating        int         `json:"rating" db:"rating"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// Ref rebuilds the content reference from the wire columns.
func (r *Review) Ref() (ContentRef, error) {
	switch {
	case r.MovieID != nil && r.SeriesID == nil:
		return MovieRef(*r.MovieID), nil
	case r.SeriesID != nil && r.MovieID == nil:
		return SeriesRef(*r.SeriesID), nil
	default:
		return ContentRef{}, fmt.Errorf("review %s must reference exactly one of movie or series", r.ID)
	}
}

// ReviewPage is one server page of reviews.
type ReviewPage struct {
	Items      []Review `json:"items"`
	TotalPages int      `json:"totalPages"`
}

// RatingAggregate holds the server-computed average and total count.
type RatingAggregate struct {
	AverageRating float64 `json:"averageRating"`
	TotalCount    int64   `json:"totalCount"`
}

// CreateReviewRequest is the body of POST /api/reviews.
type CreateReviewRequest struct {
	UserAccountID int64       `json:"userAccountId" validate:"required,gt=0"`
	MovieID       *int64      `json:"movieId" validate:"omitempty,gt=0"`
	SeriesID      *int64      `json:"seriesId" validate:"omitempty,gt=0"`
	ContentType   ContentType `json:"contentType" validate:"required,oneof=movies series"`
	Content       string      `json:"content" validate:"max=2000"`
	Rating        int         `json:"rating" validate:"gte=0,lte=5"`
}

// NewCreateReviewRequest fills exactly one of MovieID/SeriesID from ref.
func NewCreateReviewRequest(userAccountID int64, ref ContentRef, content string, rating int) CreateReviewRequest {
	return CreateReviewRequest{
		UserAccountID: userAccountID,
		MovieID:       ref.MovieID(),
		SeriesID:      ref.SeriesID(),
		ContentType:   ref.Kind(),
		Content:       content,
		Rating:        rating,
	}
}

// Ref resolves the request's content association.
func (r CreateReviewRequest) Ref() (ContentRef, error) {
	switch {
	case r.MovieID != nil && r.SeriesID == nil:
		return MovieRef(*r.MovieID), nil
	case r.SeriesID != nil && r.MovieID == nil:
		return SeriesRef(*r.SeriesID), nil
	default:
		return ContentRef{}, errors.New("exactly one of movieId or seriesId is required")
	}
}

// UpdateReviewRequest is the body of PUT /api/reviews/{id}.
type UpdateReviewRequest struct {
	Content *string `json:"content,omitempty" validate:"omitempty,max=2000"`
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// ErrorResponse is the error body shared by all endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}
