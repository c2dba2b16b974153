package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
)

const (
	basePath        = "/api/reviews"
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// HTTPDoer is the subset of *http.Client the review client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for any non-2xx response. Message holds the server's
// {"message": ...} text when the body could be parsed.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("review api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("review api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the /api/reviews REST surface.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// New builds a client. baseURL is the scheme and host, without /api.
func New(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    doer,
		logger:  logger,
	}
}

// contentURL validates the content type before any request is built.
func (c *Client) contentURL(ref domain.ContentRef, suffix string) (string, error) {
	if !ref.Valid() {
		c.logger.Error("refusing request for invalid content type", slog.String("contentType", string(ref.Kind())))
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidContentType, ref.Kind())
	}
	return fmt.Sprintf("%s%s/%s/%d%s", c.baseURL, basePath, ref.Kind(), ref.ID(), suffix), nil
}

// ListReviews fetches one 0-based page of reviews.
func (c *Client) ListReviews(ctx context.Context, ref domain.ContentRef, page int) (*domain.ReviewPage, error) {
	endpoint, err := c.contentURL(ref, "")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var out domain.ReviewPage
	if err := c.getJSON(ctx, endpoint+"?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("list reviews for %s page %d: %w", ref, page, err)
	}
	if out.Items == nil {
		out.Items = []domain.Review{}
	}
	return &out, nil
}

// AverageRating fetches the server-computed average rating.
func (c *Client) AverageRating(ctx context.Context, ref domain.ContentRef) (float64, error) {
	endpoint, err := c.contentURL(ref, "/average-rating")
	if err != nil {
		return 0, err
	}
	var avg float64
	if err := c.getJSON(ctx, endpoint, &avg); err != nil {
		return 0, fmt.Errorf("fetch average rating for %s: %w", ref, err)
	}
	return avg, nil
}

// Count fetches the total number of reviews.
func (c *Client) Count(ctx context.Context, ref domain.ContentRef) (int64, error) {
	endpoint, err := c.contentURL(ref, "/count")
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.getJSON(ctx, endpoint, &n); err != nil {
		return 0, fmt.Errorf("fetch review count for %s: %w", ref, err)
	}
	return n, nil
}

// Create posts a new review with the bearer token attached.
func (c *Client) Create(ctx context.Context, token string, req domain.CreateReviewRequest) (*domain.Review, error) {
	if _, err := domain.ParseContentType(string(req.ContentType)); err != nil {
		c.logger.ErrorContext(ctx, "refusing review write for invalid content type", slog.String("contentType", string(req.ContentType)))
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+basePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build create review request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	var created domain.Review
	if err := c.do(httpReq, &created); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &created, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(req.Context(), "review api request",
		slog.String("requestID", requestID), slog.String("method", req.Method), slog.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(req, resp, requestID)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(req *http.Request, resp *http.Response, requestID string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		c.logger.WarnContext(req.Context(), "failed to read error body",
			slog.String("requestID", requestID), slog.String("error", err.Error()))
		return apiErr
	}
	var body domain.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		c.logger.WarnContext(req.Context(), "failed to parse error body",
			slog.String("requestID", requestID), slog.Int("status", resp.StatusCode), slog.String("error", err.Error()))
		return apiErr
	}
	apiErr.Message = body.Message
	return apiErr
}

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
