package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/document"
)

type recorder struct {
	mu     sync.Mutex
	drafts []Draft
	err    error
}

func (r *recorder) Save(ctx context.Context, d Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, d)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

func (r *recorder) last() Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[len(r.drafts)-1]
}

func body(s string) *document.Node {
	return document.Doc(document.Paragraph(document.Text(s)))
}

func wait(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func newTest(saver Saver) (*Coordinator, *clock.Fake) {
	fake := clock.NewFake(time.Unix(0, 0))
	c := New(Config{Saver: saver, Clock: fake, Title: "Doc", Content: body("")})
	return c, fake
}

func TestDebounce(t *testing.T) {
	rec := &recorder{}
	c, fake := newTest(rec)
	defer c.Close()

	c.Update("Doc", body("one"))
	fake.Advance(500 * time.Millisecond)
	c.Update("Doc", body("two"))

	fake.Advance(1999 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("saved before debounce elapsed")
	}
	if c.Status() != StatusUnsaved {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusUnsaved)
	}

	fake.Advance(time.Millisecond)
	wait(t, c)

	if rec.count() != 1 {
		t.Fatalf("saves = %d, want 1", rec.count())
	}
	if got := document.ExtractPlainText(rec.last().Content); got != "two" {
		t.Errorf("saved content = %q, want %q", got, "two")
	}
	if c.Status() != StatusIdle {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusIdle)
	}
}

func TestUnchangedContentIsNotSaved(t *testing.T) {
	rec := &recorder{}
	c, fake := newTest(rec)
	defer c.Close()

	c.Update("Doc", body("C1"))
	fake.Advance(DefaultDebounce)
	wait(t, c)

	c.Update("Doc", body("C2"))
	c.Update("Doc", body("C1"))
	fake.Advance(DefaultDebounce)
	wait(t, c)

	if rec.count() != 1 {
		t.Errorf("saves = %d, want 1", rec.count())
	}
	if c.Status() != StatusIdle {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusIdle)
	}
}

func TestBaselineIsNotSaved(t *testing.T) {
	rec := &recorder{}
	c, _ := newTest(rec)
	defer c.Close()

	c.SaveNow()
	wait(t, c)
	if rec.count() != 0 {
		t.Errorf("saves = %d, want 0", rec.count())
	}
}

type blockingSaver struct {
	started chan Draft
	release chan error
}

func (b *blockingSaver) Save(ctx context.Context, d Draft) error {
	b.started <- d
	select {
	case err := <-b.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSingleFlightWithFollowUp(t *testing.T) {
	saver := &blockingSaver{started: make(chan Draft, 4), release: make(chan error)}
	c, fake := newTest(saver)
	defer c.Close()

	c.Update("Doc", body("first"))
	fake.Advance(DefaultDebounce)
	first := <-saver.started
	if got := document.ExtractPlainText(first.Content); got != "first" {
		t.Fatalf("first save = %q", got)
	}

	c.Update("Doc", body("second"))
	c.Update("Doc", body("third"))
	c.SaveNow()
	fake.Advance(DefaultDebounce)

	select {
	case d := <-saver.started:
		t.Fatalf("second save started while first in flight: %q", document.ExtractPlainText(d.Content))
	default:
	}

	saver.release <- nil
	follow := <-saver.started
	if got := document.ExtractPlainText(follow.Content); got != "third" {
		t.Errorf("follow-up save = %q, want %q", got, "third")
	}
	saver.release <- nil
	wait(t, c)

	select {
	case d := <-saver.started:
		t.Errorf("unexpected extra save: %q", document.ExtractPlainText(d.Content))
	default:
	}
	if c.Status() != StatusIdle {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusIdle)
	}
}

func TestSaveNowBypassesDebounce(t *testing.T) {
	rec := &recorder{}
	c, fake := newTest(rec)
	defer c.Close()

	c.Update("Doc", body("now"))
	c.SaveNow()
	wait(t, c)
	if rec.count() != 1 {
		t.Fatalf("saves = %d, want 1", rec.count())
	}

	fake.Advance(10 * time.Second)
	wait(t, c)
	if rec.count() != 1 {
		t.Errorf("debounce timer fired after manual save: saves = %d", rec.count())
	}
}

func TestSaveError(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	c, _ := newTest(rec)
	defer c.Close()

	c.Update("Doc", body("x"))
	c.SaveNow()
	wait(t, c)

	if c.Status() != StatusError {
		t.Fatalf("Status() = %s, want %s", c.Status(), StatusError)
	}
	if c.Err() == nil {
		t.Fatal("Err() = nil after failed save")
	}

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	c.SaveNow()
	wait(t, c)
	if rec.count() != 2 {
		t.Errorf("saves = %d, want retry", rec.count())
	}
	if c.Err() != nil || c.Status() != StatusIdle {
		t.Errorf("after retry: status %s err %v", c.Status(), c.Err())
	}
}

func TestRevertAfterErrorClearsError(t *testing.T) {
	rec := &recorder{err: errors.New("offline")}
	c, _ := newTest(rec)
	defer c.Close()

	c.Update("Doc", body("x"))
	c.SaveNow()
	wait(t, c)
	if c.Err() == nil {
		t.Fatal("Err() = nil after failed save")
	}

	// Back to the baseline: nothing is unsaved any more.
	c.Update("Doc", body(""))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
	if c.Status() != StatusIdle {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusIdle)
	}
	if rec.count() != 1 {
		t.Errorf("saves = %d, want 1", rec.count())
	}
}

func TestSaveTimeout(t *testing.T) {
	saver := SaverFunc(func(ctx context.Context, d Draft) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c := New(Config{Saver: saver, Clock: clock.NewFake(time.Unix(0, 0)), Timeout: 20 * time.Millisecond})
	defer c.Close()

	c.Update("Doc", body("slow"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.Flush(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Flush() error = %v, want ErrTimeout", err)
	}
	if c.Status() != StatusError {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusError)
	}
}

func TestExcerptIsRecomputed(t *testing.T) {
	rec := &recorder{}
	c, _ := newTest(rec)
	defer c.Close()

	c.Update("Doc", document.Doc(
		document.Heading(1, document.Text("Title")),
		document.Paragraph(document.Text("body text")),
	))
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := rec.last().Excerpt; got != "Titlebody text" {
		t.Errorf("Excerpt = %q", got)
	}
	if c.Excerpt() != "Titlebody text" {
		t.Errorf("Excerpt() = %q", c.Excerpt())
	}
}

func TestStatusTransitions(t *testing.T) {
	rec := &recorder{}
	c, fake := newTest(rec)
	defer c.Close()

	var mu sync.Mutex
	var seen []Status
	c.OnStatus(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.Update("Doc", body("a"))
	fake.Advance(DefaultDebounce)
	wait(t, c)

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusUnsaved, StatusSaving, StatusIdle}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestCloseAbortsInFlightSave(t *testing.T) {
	saver := &blockingSaver{started: make(chan Draft, 1), release: make(chan error)}
	c, _ := newTest(saver)

	c.Update("Doc", body("x"))
	c.SaveNow()
	<-saver.started
	c.Close()
	wait(t, c)

	if c.Status() != StatusError {
		t.Errorf("Status() = %s, want %s", c.Status(), StatusError)
	}
	c.Update("Doc", body("ignored"))
	if c.Status() != StatusError {
		t.Errorf("Update after Close changed status to %s", c.Status())
	}
}
