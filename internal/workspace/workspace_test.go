package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pgregory.net/rapid"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
)

type fakeReader struct {
	mu         sync.Mutex
	list       func(ctx context.Context, page int) (*domain.ReviewPage, error)
	avg        float64
	avgErr     error
	count      int64
	countErr   error
	listCalls  int
	avgCalls   int
	countCalls int
}

func (f *fakeReader) ListReviews(ctx context.Context, _ domain.ContentRef, page int) (*domain.ReviewPage, error) {
	f.mu.Lock()
	f.listCalls++
	list := f.list
	f.mu.Unlock()
	return list(ctx, page)
}

func (f *fakeReader) AverageRating(context.Context, domain.ContentRef) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avgCalls++
	return f.avg, f.avgErr
}

func (f *fakeReader) Count(context.Context, domain.ContentRef) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return f.count, f.countErr
}

func (f *fakeReader) calls() (list, avg, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.avgCalls, f.countCalls
}

// pagesOf serves totalPages pages with one review each, id "p<page>".
func pagesOf(totalPages int) func(context.Context, int) (*domain.ReviewPage, error) {
	return func(_ context.Context, page int) (*domain.ReviewPage, error) {
		return &domain.ReviewPage{
			Items:      []domain.Review{{ID: fmt.Sprintf("p%d", page), Rating: 3}},
			TotalPages: totalPages,
		}, nil
	}
}

func newWorkspace(t *testing.T, r ReviewReader, opts Options) *Workspace {
	t.Helper()
	w, err := New(domain.MovieRef(7), r, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewRejectsInvalidRef(t *testing.T) {
	var zero domain.ContentRef
	if _, err := New(zero, &fakeReader{}, Options{}); !errors.Is(err, domain.ErrInvalidContentType) {
		t.Fatalf("err = %v", err)
	}
}

func TestMountLoadsAllThreeSlots(t *testing.T) {
	r := &fakeReader{list: pagesOf(3), avg: 4.25, count: 12}
	w := newWorkspace(t, r, Options{})

	if err := w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	v := w.Snapshot()
	if len(v.Reviews) != 1 || v.Reviews[0].ID != "p0" {
		t.Fatalf("reviews = %+v", v.Reviews)
	}
	if v.TotalPages != 3 || v.AverageRating != 4.25 || v.TotalCount != 12 {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Buttons) != 3 || !v.Buttons[0].Selected || v.Buttons[1].Selected {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
	if v.PrevEnabled || v.NextEnabled {
		t.Fatalf("group controls should be disabled: %+v", v)
	}
}

func TestReviewsFreezeOnError(t *testing.T) {
	r := &fakeReader{list: pagesOf(4)}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()
	if err := w.LoadReviews(ctx, 0); err != nil {
		t.Fatalf("LoadReviews: %v", err)
	}

	r.mu.Lock()
	r.list = func(context.Context, int) (*domain.ReviewPage, error) { return nil, errors.New("503") }
	r.mu.Unlock()

	if err := w.LoadReviews(ctx, 0); err == nil {
		t.Fatal("expected error")
	}
	v := w.Snapshot()
	if len(v.Reviews) != 1 || v.Reviews[0].ID != "p0" || v.TotalPages != 4 {
		t.Fatalf("reviews should be kept, got %+v", v)
	}
}

func TestAggregatesResetToZeroOnError(t *testing.T) {
	r := &fakeReader{list: pagesOf(1), avg: 3.5, count: 9}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()
	if err := w.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	r.mu.Lock()
	r.avgErr = errors.New("boom")
	r.countErr = errors.New("boom")
	r.mu.Unlock()

	if err := w.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	v := w.Snapshot()
	if v.AverageRating != 0 || v.TotalCount != 0 {
		t.Fatalf("aggregates = %v / %v, want 0 / 0", v.AverageRating, v.TotalCount)
	}
	if len(v.Reviews) != 1 {
		t.Fatalf("reviews should still load: %+v", v.Reviews)
	}
}

func TestOnPageSelected(t *testing.T) {
	r := &fakeReader{list: pagesOf(23)}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()
	if err := w.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := w.OnPageSelected(ctx, 4); err != nil {
		t.Fatalf("OnPageSelected: %v", err)
	}
	v := w.Snapshot()
	if v.CurrentPage != 4 || v.Reviews[0].ID != "p4" {
		t.Fatalf("view = %+v", v)
	}
	for _, b := range v.Buttons {
		if b.Selected != (b.Page == 4) {
			t.Fatalf("button %d selected=%v", b.Page, b.Selected)
		}
	}

	// Reselecting the current page issues nothing.
	before, _, _ := r.calls()
	if err := w.OnPageSelected(ctx, 4); err != nil {
		t.Fatalf("OnPageSelected: %v", err)
	}
	if after, _, _ := r.calls(); after != before {
		t.Fatalf("list calls %d -> %d", before, after)
	}

	if err := w.OnPageSelected(ctx, -1); err == nil {
		t.Fatal("expected error for negative page")
	}
}

func TestProperty_SelectedPageIsRenderedSelected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 60).Draw(rt, "totalPages")
		w, err := New(domain.MovieRef(7), &fakeReader{list: pagesOf(total)}, Options{})
		if err != nil {
			rt.Fatalf("New: %v", err)
		}
		ctx := context.Background()
		if err := w.Mount(ctx); err != nil {
			rt.Fatalf("Mount: %v", err)
		}

		pages := rapid.SliceOfN(rapid.IntRange(0, total-1), 1, 5).Draw(rt, "pages")
		for _, p := range pages {
			if err := w.OnPageSelected(ctx, p); err != nil {
				rt.Fatalf("OnPageSelected(%d): %v", p, err)
			}
			v := w.Snapshot()
			if v.CurrentPage != p || v.WindowStart != p/WindowSize*WindowSize {
				rt.Fatalf("page %d: current=%d windowStart=%d", p, v.CurrentPage, v.WindowStart)
			}
			selected := 0
			for _, b := range v.Buttons {
				if b.Selected {
					selected++
					if b.Page != p {
						rt.Fatalf("page %d: button %d selected", p, b.Page)
					}
				}
			}
			if selected != 1 {
				rt.Fatalf("page %d: %d selected buttons in %+v", p, selected, v.Buttons)
			}
		}
	})
}

func TestGroupShiftScenarios(t *testing.T) {
	r := &fakeReader{list: pagesOf(23)}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()
	if err := w.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := w.OnGroupShift(ctx, Next); err != nil {
		t.Fatalf("next: %v", err)
	}
	v := w.Snapshot()
	if v.WindowStart != 10 || v.CurrentPage != 10 {
		t.Fatalf("after next: start=%d current=%d", v.WindowStart, v.CurrentPage)
	}
	if len(v.Buttons) != 10 || v.Buttons[0].Page != 10 || v.Buttons[9].Page != 19 {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
	if v.Reviews[0].ID != "p10" {
		t.Fatalf("reviews = %+v", v.Reviews)
	}
	if !v.PrevEnabled || !v.NextEnabled {
		t.Fatalf("controls = prev %v next %v", v.PrevEnabled, v.NextEnabled)
	}

	if err := w.OnGroupShift(ctx, Next); err != nil {
		t.Fatalf("next: %v", err)
	}
	v = w.Snapshot()
	if len(v.Buttons) != 3 || v.Buttons[2].Page != 22 || v.NextEnabled {
		t.Fatalf("last group = %+v", v)
	}

	if err := w.OnGroupShift(ctx, Prev); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if err := w.OnGroupShift(ctx, Prev); err != nil {
		t.Fatalf("prev: %v", err)
	}
	v = w.Snapshot()
	if v.WindowStart != 0 || v.CurrentPage != 0 {
		t.Fatalf("after prev: start=%d current=%d", v.WindowStart, v.CurrentPage)
	}
}

func TestStalePageResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	slow := pagesOf(5)
	r := &fakeReader{list: func(ctx context.Context, page int) (*domain.ReviewPage, error) {
		if page == 0 {
			close(started)
			<-release
		}
		return slow(ctx, page)
	}}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- w.LoadReviews(ctx, 0) }()
	<-started

	if err := w.OnPageSelected(ctx, 1); err != nil {
		t.Fatalf("OnPageSelected: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow load: %v", err)
	}

	v := w.Snapshot()
	if v.CurrentPage != 1 || len(v.Reviews) != 1 || v.Reviews[0].ID != "p1" {
		t.Fatalf("stale page leaked: %+v", v)
	}
}

func TestOlderReadOfSamePageDoesNotOverwriteNewer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	call := 0
	r := &fakeReader{list: func(context.Context, int) (*domain.ReviewPage, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return &domain.ReviewPage{Items: []domain.Review{{ID: "old"}}, TotalPages: 1}, nil
		}
		return &domain.ReviewPage{Items: []domain.Review{{ID: "new"}}, TotalPages: 1}, nil
	}}
	w := newWorkspace(t, r, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- w.LoadReviews(ctx, 0) }()
	<-started
	if err := w.LoadReviews(ctx, 0); err != nil {
		t.Fatalf("LoadReviews: %v", err)
	}
	close(release)
	<-done

	if v := w.Snapshot(); v.Reviews[0].ID != "new" {
		t.Fatalf("reviews = %+v", v.Reviews)
	}
}

func TestOnReviewSubmittedRefreshPolicy(t *testing.T) {
	cases := []struct {
		name       string
		withCount  bool
		wantCounts int
	}{
		{"count refreshed", true, 2},
		{"count left as is", false, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeReader{list: pagesOf(2), avg: 4, count: 1}
			w := newWorkspace(t, r, Options{RefreshCountOnSubmit: tc.withCount})
			ctx := context.Background()
			if err := w.Mount(ctx); err != nil {
				t.Fatalf("Mount: %v", err)
			}

			r.mu.Lock()
			r.avg, r.count = 4.5, 2
			r.mu.Unlock()

			if err := w.OnReviewSubmitted(ctx, domain.Review{ID: "created"}); err != nil {
				t.Fatalf("OnReviewSubmitted: %v", err)
			}
			list, avg, count := r.calls()
			if list != 2 || avg != 2 || count != tc.wantCounts {
				t.Fatalf("calls list=%d avg=%d count=%d", list, avg, count)
			}
			v := w.Snapshot()
			if v.AverageRating != 4.5 {
				t.Fatalf("average = %v", v.AverageRating)
			}
			for _, rv := range v.Reviews {
				if rv.ID == "created" {
					t.Fatal("created review must not be spliced locally")
				}
			}
		})
	}
}

func TestMountAtAlignsWindow(t *testing.T) {
	r := &fakeReader{list: pagesOf(23)}
	w := newWorkspace(t, r, Options{})

	if err := w.MountAt(context.Background(), 14); err != nil {
		t.Fatalf("MountAt: %v", err)
	}
	v := w.Snapshot()
	if v.WindowStart != 10 || v.CurrentPage != 14 || v.Reviews[0].ID != "p14" {
		t.Fatalf("view = %+v", v)
	}
	if !v.Buttons[4].Selected {
		t.Fatalf("buttons = %+v", v.Buttons)
	}
	if err := w.MountAt(context.Background(), -2); err == nil {
		t.Fatal("expected error for negative page")
	}
}
