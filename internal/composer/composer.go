// Package composer implements the review input form: a session-gated buffer
// of text and star rating that is validated locally and posted to the review
// API.
package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/reviewapi"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/session"
)

// User-facing prompts.
const (
	MsgLoginRequired   = "리뷰를 작성하려면 로그인이 필요합니다."
	MsgContentRequired = "리뷰를 입력해주세요."
	MsgRatingRequired  = "평점을 선택해주세요."
	MsgSubmitFailed    = "리뷰 작성에 실패했습니다."
	MsgNetworkError    = "리뷰 작성 중 오류가 발생했습니다."
)

var (
	ErrNotLoggedIn    = errors.New("composer: not logged in")
	ErrSubmitting     = errors.New("composer: a submission is already in flight")
	ErrEmptyContent   = errors.New("composer: review content is empty")
	ErrRatingRequired = errors.New("composer: no rating selected")
	ErrInvalidRating  = errors.New("composer: rating must be between 1 and 5")
)

const maxRating = 5

// ReviewWriter is the write half of the review API.
type ReviewWriter interface {
	Create(ctx context.Context, token string, req domain.CreateReviewRequest) (*domain.Review, error)
}

// Prompter shows a blocking message to the user.
type Prompter interface {
	Alert(message string)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(message string)

func (f PromptFunc) Alert(message string) { f(message) }

// Config wires a Composer to its collaborators.
type Config struct {
	Ref           domain.ContentRef
	Session       session.Session
	Writer        ReviewWriter
	Prompter      Prompter
	OnReviewAdded func(ctx context.Context, review domain.Review)
	Logger        *slog.Logger
}

type Composer struct {
	ref      domain.ContentRef
	session  session.Session
	writer   ReviewWriter
	prompter Prompter
	onAdded  func(ctx context.Context, review domain.Review)
	logger   *slog.Logger

	mu         sync.Mutex
	loggedIn   bool
	content    string
	rating     int
	hover      int
	submitting bool
}

// New validates cfg and returns an unmounted composer.
func New(cfg Config) (*Composer, error) {
	if !cfg.Ref.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, cfg.Ref.Kind())
	}
	if cfg.Session == nil || cfg.Writer == nil {
		return nil, errors.New("composer: session and writer are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	prompter := cfg.Prompter
	if prompter == nil {
		prompter = PromptFunc(func(string) {})
	}
	onAdded := cfg.OnReviewAdded
	if onAdded == nil {
		onAdded = func(context.Context, domain.Review) {}
	}
	return &Composer{
		ref:      cfg.Ref,
		session:  cfg.Session,
		writer:   cfg.Writer,
		prompter: prompter,
		onAdded:  onAdded,
		logger:   logger.With(slog.String("content", cfg.Ref.String())),
	}, nil
}

// Mount re-reads the session and reports whether input is available.
// Callers show MsgLoginRequired when it returns false.
func (c *Composer) Mount() bool {
	_, ok := c.session.Token()
	c.mu.Lock()
	c.loggedIn = ok
	c.mu.Unlock()
	return ok
}

func (c *Composer) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

func (c *Composer) SetContent(text string) {
	c.mu.Lock()
	c.content = text
	c.mu.Unlock()
}

func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// SetRating selects a star in [1,5].
func (c *Composer) SetRating(star int) error {
	if star < 1 || star > maxRating {
		return fmt.Errorf("%w: %d", ErrInvalidRating, star)
	}
	c.mu.Lock()
	c.rating = star
	c.mu.Unlock()
	return nil
}

// Rating returns the selected star, 0 if none.
func (c *Composer) Rating() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rating
}

// SetHoverRating previews star without selecting it. 0 ends the preview.
// Out-of-range values are treated as 0.
func (c *Composer) SetHoverRating(star int) {
	if star < 0 || star > maxRating {
		star = 0
	}
	c.mu.Lock()
	c.hover = star
	c.mu.Unlock()
}

// DisplayedStars is the number of filled stars: the hover preview if one is
// active, otherwise the selection.
func (c *Composer) DisplayedStars() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hover > 0 {
		return c.hover
	}
	return c.rating
}

func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates the buffer and posts it. Validation failures prompt the
// user and never reach the network. On success the buffer is cleared and
// OnReviewAdded runs once with the created review; on failure the buffer is
// kept for a retry.
func (c *Composer) Submit(ctx context.Context) (*domain.Review, error) {
	c.mu.Lock()
	if !c.loggedIn {
		c.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	c.submitting = true
	content, rating := c.content, c.rating
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	if strings.TrimSpace(content) == "" {
		c.prompter.Alert(MsgContentRequired)
		return nil, ErrEmptyContent
	}
	if rating < 1 || rating > maxRating {
		c.prompter.Alert(MsgRatingRequired)
		return nil, ErrRatingRequired
	}

	token, hasToken := c.session.Token()
	userID, hasUser := c.session.UserID()
	if !hasToken || !hasUser {
		c.mu.Lock()
		c.loggedIn = false
		c.mu.Unlock()
		c.prompter.Alert(MsgLoginRequired)
		return nil, ErrNotLoggedIn
	}

	req := domain.NewCreateReviewRequest(userID, c.ref, content, rating)
	c.logger.DebugContext(ctx, "submitting review", slog.Int64("userAccountID", userID), slog.Int("rating", rating))

	created, err := c.writer.Create(ctx, token, req)
	if err != nil {
		var apiErr *reviewapi.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = MsgSubmitFailed
			}
			c.logger.WarnContext(ctx, "review submission rejected",
				slog.Int("status", apiErr.StatusCode), slog.String("message", apiErr.Message))
			c.prompter.Alert(msg)
			return nil, err
		}
		c.logger.ErrorContext(ctx, "review submission failed", slog.String("error", err.Error()))
		c.prompter.Alert(MsgNetworkError)
		return nil, err
	}

	c.mu.Lock()
	c.content = ""
	c.rating = 0
	c.mu.Unlock()

	c.onAdded(ctx, *created)
	return created, nil
}

// KeyEvent is a key press in the content field.
type KeyEvent struct {
	Key   string
	Shift bool
}

const KeyEnter = "Enter"

// HandleKey submits on Enter without Shift. Shift+Enter inserts a newline.
// Other keys are ignored. submitted reports whether a review was created.
func (c *Composer) HandleKey(ctx context.Context, ev KeyEvent) (submitted bool, err error) {
	if ev.Key != KeyEnter {
		return false, nil
	}
	if ev.Shift {
		c.mu.Lock()
		c.content += "\n"
		c.mu.Unlock()
		return false, nil
	}
	if c.Submitting() {
		return false, nil
	}
	created, err := c.Submit(ctx)
	return created != nil, err
}
