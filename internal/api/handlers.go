package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/store"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/pkg/auth"
)

// User-facing messages returned in {"message": ...} bodies.
const (
	msgLoginRequired        = "리뷰를 작성하려면 로그인이 필요합니다."
	msgContentRequired      = "리뷰 내용을 입력해주세요."
	msgRatingRequired       = "평점을 선택해주세요."
	msgContentRefRequired   = "영화 또는 드라마 중 하나만 지정해야 합니다."
	msgWrongAccount         = "본인 계정으로만 리뷰를 작성할 수 있습니다."
	msgDuplicateMovieReview = "이미 해당 영화에 대한 리뷰를 작성하셨습니다."
	msgDuplicateSeries      = "이미 해당 드라마에 대한 리뷰를 작성하셨습니다."
	msgReviewNotFound       = "해당 리뷰를 찾을 수 없습니다."
	msgNotAuthor            = "본인이 작성한 리뷰만 수정하거나 삭제할 수 있습니다."
	msgKeywordRequired      = "검색어를 입력해주세요."
)

// PageSettings bounds the size query parameter.
type PageSettings struct {
	DefaultSize int
	MaxSize     int
}

type ReviewHandler struct {
	store        store.ReviewStore
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager
	pages        PageSettings
}

func NewReviewHandler(s store.ReviewStore, l *slog.Logger, v *validator.Validate, tm auth.TokenManager, pages PageSettings) *ReviewHandler {
	if pages.DefaultSize <= 0 {
		pages.DefaultSize = 5
	}
	if pages.MaxSize < pages.DefaultSize {
		pages.MaxSize = 50
	}
	return &ReviewHandler{
		store:        s,
		logger:       l,
		validator:    v,
		tokenManager: tm,
		pages:        pages,
	}
}

// reviewPageResponse is the body of the paged list endpoints.
type reviewPageResponse struct {
	Items      []domain.Review `json:"items"`
	TotalPages int             `json:"totalPages"`
}

func (h *ReviewHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *ReviewHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, domain.ErrorResponse{Message: message})
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	var req domain.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "Failed to decode request body for review", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	ref, err := req.Ref()
	if err != nil || ref.Kind() != req.ContentType {
		h.respondError(w, r, http.StatusBadRequest, msgContentRefRequired)
		return
	}
	if req.UserAccountID != claims.UserAccountID {
		h.logger.WarnContext(ctx, "Review body account does not match token",
			slog.Int64("bodyUserAccountID", req.UserAccountID), slog.Int64("tokenUserAccountID", claims.UserAccountID))
		h.respondError(w, r, http.StatusForbidden, msgWrongAccount)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.respondError(w, r, http.StatusBadRequest, msgContentRequired)
		return
	}
	if req.Rating == 0 {
		h.respondError(w, r, http.StatusBadRequest, msgRatingRequired)
		return
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "Review request validation failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	review := &domain.Review{
		ID:            uuid.NewString(),
		UserAccountID: claims.UserAccountID,
		Nickname:      claims.Nickname,
		MovieID:       ref.MovieID(),
		SeriesID:      ref.SeriesID(),
		ContentType:   ref.Kind(),
		Content:       req.Content,
		Rating:        req.Rating,
	}

	if err := h.store.Create(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicateReview) {
			msg := msgDuplicateMovieReview
			if ref.Kind() == domain.ContentSeries {
				msg = msgDuplicateSeries
			}
			h.respondError(w, r, http.StatusConflict, msg)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create review in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		return
	}
	h.logger.InfoContext(ctx, "Review created", slog.String("reviewID", review.ID), slog.String("content", ref.String()))
	h.respondJSON(w, r, http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsForContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := h.contentRef(w, r)
	if !ok {
		return
	}
	params := h.pageParams(r)

	reviews, total, err := h.store.ListByContent(ctx, ref, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews", slog.String("content", ref.String()), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviewPageResponse{Items: reviews, TotalPages: totalPages(total, params.PageSize)})
}

func (h *ReviewHandler) GetAverageRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := h.contentRef(w, r)
	if !ok {
		return
	}
	agg, err := h.store.AggregatedRating(ctx, ref)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to aggregate rating", slog.String("content", ref.String()), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve average rating")
		return
	}
	h.respondJSON(w, r, http.StatusOK, agg.AverageRating)
}

func (h *ReviewHandler) GetReviewCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, ok := h.contentRef(w, r)
	if !ok {
		return
	}
	agg, err := h.store.AggregatedRating(ctx, ref)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count reviews", slog.String("content", ref.String()), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review count")
		return
	}
	h.respondJSON(w, r, http.StatusOK, agg.TotalCount)
}

// ListReviews pages through every review regardless of content.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := h.pageParams(r)
	reviews, total, err := h.store.ListAll(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviewPageResponse{Items: reviews, TotalPages: totalPages(total, params.PageSize)})
}

func (h *ReviewHandler) SearchReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		h.respondError(w, r, http.StatusBadRequest, msgKeywordRequired)
		return
	}
	params := h.pageParams(r)
	reviews, total, err := h.store.Search(ctx, keyword, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to search reviews", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to search reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviewPageResponse{Items: reviews, TotalPages: totalPages(total, params.PageSize)})
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.store.GetByID(r.Context(), mux.Vars(r)["reviewId"])
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	var req domain.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	review, err := h.store.Update(ctx, mux.Vars(r)["reviewId"], claims.UserAccountID, req)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	if err := h.store.Delete(ctx, mux.Vars(r)["reviewId"], claims.UserAccountID); err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrReviewNotFound):
		h.respondError(w, r, http.StatusNotFound, msgReviewNotFound)
	case errors.Is(err, store.ErrNotAuthor):
		h.respondError(w, r, http.StatusForbidden, msgNotAuthor)
	default:
		h.logger.ErrorContext(r.Context(), "Review store failure", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *ReviewHandler) contentRef(w http.ResponseWriter, r *http.Request) (domain.ContentRef, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["contentId"], 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, r, http.StatusBadRequest, "Invalid content id")
		return domain.ContentRef{}, false
	}
	ref, err := domain.NewContentRef(vars["contentType"], id)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Unknown content type", slog.String("contentType", vars["contentType"]))
		h.respondError(w, r, http.StatusBadRequest, "contentType must be movies or series")
		return domain.ContentRef{}, false
	}
	return ref, true
}

// pageParams reads the 0-based page and the optional size.
func (h *ReviewHandler) pageParams(r *http.Request) store.ListReviewsParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = h.pages.DefaultSize
	} else if size > h.pages.MaxSize {
		size = h.pages.MaxSize
	}
	return store.ListReviewsParams{Page: page, PageSize: size}
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
