// Package workspace holds the read-side state of a title's review page: the
// current page of reviews, the rating aggregate and the grouped page selector.
//
// Reads fail soft. A failed page read keeps the previously shown reviews, while
// a failed average or count read resets that value to 0.
package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
)

// ReviewReader is the read half of the review API.
type ReviewReader interface {
	ListReviews(ctx context.Context, ref domain.ContentRef, page int) (*domain.ReviewPage, error)
	AverageRating(ctx context.Context, ref domain.ContentRef) (float64, error)
	Count(ctx context.Context, ref domain.ContentRef) (int64, error)
}

// Options tunes a Workspace.
type Options struct {
	// RefreshCountOnSubmit adds the count read to the post-submission
	// refresh. With it off only the reviews and the average are reloaded.
	RefreshCountOnSubmit bool
	Logger               *slog.Logger
}

// Workspace is safe for concurrent use. Each read writes only its own slot.
type Workspace struct {
	ref                  domain.ContentRef
	reader               ReviewReader
	logger               *slog.Logger
	refreshCountOnSubmit bool

	mu          sync.Mutex
	reviews     []domain.Review
	totalPages  int
	windowStart int
	currentPage int
	average     float64
	count       int64

	// issued counts page reads; applied is the sequence of the last read
	// whose result was kept.
	issued  uint64
	applied uint64
}

// New creates a workspace for ref. No reads are issued until Mount.
func New(ref domain.ContentRef, reader ReviewReader, opts Options) (*Workspace, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidContentType, ref.Kind())
	}
	if reader == nil {
		return nil, fmt.Errorf("review reader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Workspace{
		ref:                  ref,
		reader:               reader,
		logger:               logger.With(slog.String("content", ref.String())),
		refreshCountOnSubmit: opts.RefreshCountOnSubmit,
		reviews:              []domain.Review{},
		totalPages:           1,
	}, nil
}

// Ref returns the content item this workspace is scoped to.
func (w *Workspace) Ref() domain.ContentRef {
	return w.ref
}

// Mount issues the initial three reads.
func (w *Workspace) Mount(ctx context.Context) error {
	return w.Refresh(ctx)
}

// MountAt opens the workspace on page, with the page group that contains it.
func (w *Workspace) MountAt(ctx context.Context, page int) error {
	if page < 0 {
		return fmt.Errorf("invalid page %d", page)
	}
	w.mu.Lock()
	w.windowStart = page / WindowSize * WindowSize
	w.currentPage = page
	w.mu.Unlock()
	return w.Refresh(ctx)
}

// Refresh runs the page, average and count reads concurrently for the
// current page. The first read error is returned after all three finish;
// state has already been updated according to each slot's policy.
func (w *Workspace) Refresh(ctx context.Context) error {
	w.mu.Lock()
	page := w.currentPage
	w.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return w.LoadReviews(ctx, page) })
	g.Go(func() error { return w.LoadAverageRating(ctx) })
	g.Go(func() error { return w.LoadTotalCount(ctx) })
	return g.Wait()
}

// LoadReviews fetches page and replaces the shown reviews and total page
// count. The result is dropped if the current page moved on while the read
// was in flight, or if a later read has already been applied. On error the
// previous reviews stay in place.
func (w *Workspace) LoadReviews(ctx context.Context, page int) error {
	w.mu.Lock()
	w.issued++
	seq := w.issued
	w.mu.Unlock()

	result, err := w.reader.ListReviews(ctx, w.ref, page)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to load reviews",
			slog.Int("page", page), slog.String("error", err.Error()))
		return fmt.Errorf("load reviews page %d: %w", page, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if page != w.currentPage || seq < w.applied {
		w.logger.DebugContext(ctx, "discarding stale review page",
			slog.Int("page", page), slog.Int("currentPage", w.currentPage))
		return nil
	}
	w.applied = seq
	w.reviews = result.Items
	if w.reviews == nil {
		w.reviews = []domain.Review{}
	}
	w.totalPages = result.TotalPages
	return nil
}

// LoadAverageRating fetches the average rating; on error it is set to 0.
func (w *Workspace) LoadAverageRating(ctx context.Context) error {
	avg, err := w.reader.AverageRating(ctx, w.ref)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to load average rating", slog.String("error", err.Error()))
		avg = 0
	}
	w.mu.Lock()
	w.average = avg
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("load average rating: %w", err)
	}
	return nil
}

// LoadTotalCount fetches the review count; on error it is set to 0.
func (w *Workspace) LoadTotalCount(ctx context.Context) error {
	n, err := w.reader.Count(ctx, w.ref)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to load review count", slog.String("error", err.Error()))
		n = 0
	}
	w.mu.Lock()
	w.count = n
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("load review count: %w", err)
	}
	return nil
}

// OnPageSelected makes page current and, if it changed, refreshes. A page
// outside the rendered group moves the window to the group containing it.
func (w *Workspace) OnPageSelected(ctx context.Context, page int) error {
	if page < 0 {
		return fmt.Errorf("invalid page %d", page)
	}
	w.mu.Lock()
	changed := w.currentPage != page
	w.currentPage = page
	if page < w.windowStart || page >= w.windowStart+WindowSize {
		w.windowStart = page / WindowSize * WindowSize
	}
	w.mu.Unlock()

	if !changed {
		return nil
	}
	return w.Refresh(ctx)
}

// OnGroupShift moves the page group and jumps to its first page.
func (w *Workspace) OnGroupShift(ctx context.Context, dir Direction) error {
	w.mu.Lock()
	start, current := ShiftWindow(w.windowStart, dir)
	changed := w.currentPage != current
	w.windowStart = start
	w.currentPage = current
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "page group shifted",
		slog.String("direction", dir.String()), slog.Int("windowStart", start))
	if !changed {
		return nil
	}
	return w.Refresh(ctx)
}

// OnReviewSubmitted reloads the current page and the average. The count is
// reloaded too when RefreshCountOnSubmit is set. The created review is not
// inserted locally; the server's listing is authoritative.
func (w *Workspace) OnReviewSubmitted(ctx context.Context, created domain.Review) error {
	w.mu.Lock()
	page := w.currentPage
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "review submitted, refreshing", slog.String("reviewID", created.ID))

	var g errgroup.Group
	g.Go(func() error { return w.LoadReviews(ctx, page) })
	g.Go(func() error { return w.LoadAverageRating(ctx) })
	if w.refreshCountOnSubmit {
		g.Go(func() error { return w.LoadTotalCount(ctx) })
	}
	return g.Wait()
}

// PageButton is one rendered page selector entry.
type PageButton struct {
	Page     int
	Selected bool
}

// View is a consistent copy of the workspace state.
type View struct {
	Ref           domain.ContentRef
	Reviews       []domain.Review
	TotalPages    int
	WindowStart   int
	CurrentPage   int
	AverageRating float64
	TotalCount    int64
	Buttons       []PageButton
	PrevEnabled   bool
	NextEnabled   bool
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	reviews := make([]domain.Review, len(w.reviews))
	copy(reviews, w.reviews)

	pages := PageButtons(w.windowStart, w.totalPages)
	buttons := make([]PageButton, len(pages))
	for i, p := range pages {
		buttons[i] = PageButton{Page: p, Selected: p == w.currentPage}
	}

	return View{
		Ref:           w.ref,
		Reviews:       reviews,
		TotalPages:    w.totalPages,
		WindowStart:   w.windowStart,
		CurrentPage:   w.currentPage,
		AverageRating: w.average,
		TotalCount:    w.count,
		Buttons:       buttons,
		PrevEnabled:   CanShiftPrev(w.windowStart),
		NextEnabled:   CanShiftNext(w.windowStart, w.totalPages),
	}
}
