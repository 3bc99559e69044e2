package form

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contactform/internal/client"
	"contactform/internal/models"
	"contactform/internal/notify"
	"contactform/internal/redirect"
	"contactform/internal/store"
	"contactform/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeScheduler 手动触发的定时器
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire runs the timer callback the way time.AfterFunc would, unless stopped.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	if !t.stopped {
		t.f()
	}
}

// fireIgnoringStop simulates a timer that already started running when Stop was called.
func (s *fakeScheduler) fireIgnoringStop(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.f()
}

type navRecorder struct {
	mu       sync.Mutex
	internal []string
	pages    []string
}

func (n *navRecorder) NavigateInternal(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.internal = append(n.internal, path)
}

func (n *navRecorder) LoadPage(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages = append(n.pages, url)
}

func (n *navRecorder) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.internal) + len(n.pages)
}

type notifyRecorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	actions   []*notify.Action
}

func (r *notifyRecorder) Success(_ context.Context, m string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, m)
}

func (r *notifyRecorder) Error(_ context.Context, m string, a *notify.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, m)
	r.actions = append(r.actions, a)
}

type harness struct {
	ctrl   *Controller
	sched  *fakeScheduler
	nav    *navRecorder
	notes  *notifyRecorder
	calls  *int32
	server *httptest.Server
}

func newHarness(t *testing.T, status int, body string, mutate ...func(*Options)) *harness {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	h := &harness{sched: &fakeScheduler{}, nav: &navRecorder{}, notes: &notifyRecorder{}, calls: &calls, server: srv}
	opts := Options{
		Endpoint:    srv.URL + "/api/contact",
		ThankYouURL: "/thank-you",
		Submitter:   client.NewContactClient("", zap.NewNop()),
		Notifier:    h.notes,
		Redirector:  redirect.NewRedirector(h.nav, h.nav, zap.NewNop()),
		Scheduler:   h.sched,
		Logger:      zap.NewNop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	ctrl, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	h.ctrl = ctrl
	return h
}

func fillValid(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Edit(models.FieldFirstName, "Jane"))
	require.NoError(t, c.Edit(models.FieldEmail, "jane@example.com"))
	require.NoError(t, c.Edit(models.FieldContactNumber, "0400 000 000"))
	require.NoError(t, c.Edit(models.FieldCompanyWebsite, "https://example.com"))
	require.NoError(t, c.Edit(models.FieldMessage, "Hi"))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Endpoint: "/api/contact"})
	assert.Error(t, err)
	_, err = New(Options{Endpoint: "/api/contact", Submitter: client.NewContactClient("", nil)})
	assert.Error(t, err)
}

func TestEdit_ContactNumberStoresDigitsAndDisplaysGrouped(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, h.ctrl.Edit(models.FieldContactNumber, "04a00-000 00099"))
	snap := h.ctrl.Snapshot()
	assert.Equal(t, "0400000000", snap.Values.ContactNumber)
	assert.Equal(t, "0400 000 000", snap.DisplayContactNumber)
	assert.Equal(t, "0400 000 000", snap.DisplayValue(models.FieldContactNumber))
}

func TestEdit_ClearsFieldErrorWithoutValidating(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)

	_, err := h.ctrl.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)
	require.True(t, h.ctrl.Snapshot().Errors.Has(models.FieldEmail))

	// still invalid, but the error is cleared optimistically
	require.NoError(t, h.ctrl.Edit(models.FieldEmail, "not-an-email"))
	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Errors.Has(models.FieldEmail))
	assert.True(t, snap.Errors.Has(models.FieldFirstName))
}

func TestEdit_UnknownField(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)
	assert.ErrorIs(t, h.ctrl.Edit(models.Field("lastName"), "x"), ErrUnknownField)
}

func TestBlur_ValidatesOnlyThatField(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, h.ctrl.Edit(models.FieldContactNumber, "123"))
	require.NoError(t, h.ctrl.Blur(models.FieldContactNumber))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, validation.MsgContactNumber, snap.Errors[models.FieldContactNumber])
	assert.Len(t, snap.Errors, 1)

	require.NoError(t, h.ctrl.Edit(models.FieldContactNumber, "0412345678"))
	require.NoError(t, h.ctrl.Blur(models.FieldContactNumber))
	assert.Empty(t, h.ctrl.Snapshot().Errors)
}

func TestBlur_OnSubmitModeDoesNotValidate(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`, func(o *Options) { o.ValidationMode = ModeOnSubmit })

	require.NoError(t, h.ctrl.Blur(models.FieldFirstName))
	assert.Empty(t, h.ctrl.Snapshot().Errors)
}

func TestSubmit_InvalidFormMakesNoNetworkCall(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)
	require.NoError(t, h.ctrl.Edit(models.FieldContactNumber, "123"))

	_, err := h.ctrl.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Len(t, snap.Errors, 3)
	assert.EqualValues(t, 0, atomic.LoadInt32(h.calls))
}

func TestSubmit_SuccessResetsFormAndNeverArmsRedirect(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true,"message":"Form submitted successfully!"}`)
	fillValid(t, h.ctrl)

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, "Form submitted successfully!", snap.ResultMessage)
	assert.Equal(t, models.ContactRecord{}, snap.Values)
	assert.Empty(t, snap.DisplayContactNumber)
	assert.Empty(t, snap.Errors)
	assert.False(t, snap.RedirectPending)
	assert.Equal(t, 0, h.sched.count())
	assert.Equal(t, []string{"Form submitted successfully!"}, h.notes.successes)
	assert.EqualValues(t, 1, atomic.LoadInt32(h.calls))
}

func TestSubmit_ErrorArmsOneRedirectThatFires(t *testing.T) {
	h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`)
	fillValid(t, h.ctrl)

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.KindError, res.Kind)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "X", snap.ResultMessage)
	assert.True(t, snap.RedirectPending)
	require.Equal(t, 1, h.sched.count())
	assert.Equal(t, DefaultRedirectDelay, h.sched.timers[0].d)

	require.Len(t, h.notes.actions, 1)
	assert.Equal(t, []string{"X"}, h.notes.errors)
	assert.Equal(t, UndoLabel, h.notes.actions[0].Label)
	assert.Equal(t, DefaultRedirectDelay, h.notes.actions[0].Delay)

	h.sched.fire(0)
	assert.Equal(t, []string{"/thank-you"}, h.nav.internal)
	assert.Empty(t, h.nav.pages)
	assert.Equal(t, StatusIdle, h.ctrl.Snapshot().Status)

	// one-shot
	h.sched.fireIgnoringStop(0)
	assert.Equal(t, 1, h.nav.total())
}

func TestSubmit_ErrorRedirectToExternalURL(t *testing.T) {
	h := newHarness(t, http.StatusInternalServerError, `{"success":false,"error":"Internal server error"}`,
		func(o *Options) { o.ThankYouURL = "https://example.com/thank-you/" })
	fillValid(t, h.ctrl)

	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	h.sched.fire(0)
	assert.Equal(t, []string{"https://example.com/thank-you/"}, h.nav.pages)
}

func TestCloseBeforeTimerPreventsNavigation(t *testing.T) {
	h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`)
	fillValid(t, h.ctrl)
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	h.ctrl.Close()
	assert.True(t, h.sched.timers[0].stopped)

	// even if the timer was already running when it was stopped
	h.sched.fireIgnoringStop(0)
	assert.Equal(t, 0, h.nav.total())

	_, err = h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ctrl.Edit(models.FieldFirstName, "x"), ErrClosed)
}

func TestUndoActionCancelsRedirect(t *testing.T) {
	h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`)
	fillValid(t, h.ctrl)
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	handle := h.ctrl.PendingRedirect()
	require.NotNil(t, handle)
	assert.True(t, handle.Pending())

	assert.True(t, h.notes.actions[0].Cancel())
	assert.False(t, handle.Pending())
	assert.False(t, h.ctrl.CancelRedirect())

	h.sched.fireIgnoringStop(0)
	assert.Equal(t, 0, h.nav.total())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.False(t, snap.RedirectPending)
}

func TestResubmitAfterErrorCancelsPreviousRedirect(t *testing.T) {
	h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`)
	fillValid(t, h.ctrl)
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	_, err = h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, h.sched.count())
	assert.True(t, h.sched.timers[0].stopped)
	h.sched.fireIgnoringStop(0)
	assert.Equal(t, 0, h.nav.total())

	h.sched.fire(1)
	assert.Equal(t, 1, h.nav.total())
}

func TestTransportFailureShowsGenericMessage(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"success":true}`)
	h.server.Close()
	fillValid(t, h.ctrl)

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Err, client.ErrTransport))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, client.MsgUnexpected, snap.ResultMessage)
	assert.True(t, snap.RedirectPending)
}

// blockingSubmitter 在 release 之前一直阻塞
type blockingSubmitter struct {
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingSubmitter) Submit(ctx context.Context, endpoint string, r models.ContactRecord) client.Result {
	atomic.AddInt32(&b.calls, 1)
	b.started <- struct{}{}
	<-b.release
	return client.Result{Kind: client.KindSuccess, Message: "ok"}
}

func TestSubmit_RejectsConcurrentSubmissionWhileLoading(t *testing.T) {
	sub := &blockingSubmitter{started: make(chan struct{}, 1), release: make(chan struct{})}
	nav := &navRecorder{}
	ctrl, err := New(Options{
		Endpoint:    "/api/contact",
		ThankYouURL: "/thank-you",
		Submitter:   sub,
		Redirector:  redirect.NewRedirector(nav, nav, nil),
		Scheduler:   &fakeScheduler{},
	})
	require.NoError(t, err)
	defer ctrl.Close()
	fillValid(t, ctrl)

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Submit(context.Background())
		done <- err
	}()
	<-sub.started

	snap := ctrl.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.True(t, snap.SubmitDisabled)
	assert.False(t, snap.HasResultMessage)

	for i := 0; i < 5; i++ {
		_, err := ctrl.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSubmitInFlight)
	}
	assert.ErrorIs(t, ctrl.Edit(models.FieldFirstName, "x"), ErrSubmitInFlight)

	close(sub.release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, atomic.LoadInt32(&sub.calls))
	assert.Equal(t, StatusSuccess, ctrl.Snapshot().Status)
}

func TestForceErrorModeAddsQueryParameterAndPersists(t *testing.T) {
	kv := store.NewMemoryKV()
	prefs := store.NewForceErrorPreference(kv)
	mode := NewMode(context.Background(), prefs, nil)

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"Forced error (demo)"}`)
	}))
	defer srv.Close()

	sched := &fakeScheduler{}
	nav := &navRecorder{}
	ctrl, err := New(Options{
		Endpoint:    srv.URL + "/api/contact",
		ThankYouURL: "/thank-you",
		Submitter:   client.NewContactClient("", nil),
		Redirector:  redirect.NewRedirector(nav, nav, nil),
		Scheduler:   sched,
		Mode:        mode,
	})
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.SetForceError(context.Background(), true))
	assert.True(t, ctrl.Snapshot().ForceError)

	// a fresh mode reads the persisted toggle
	assert.True(t, NewMode(context.Background(), prefs, nil).ForceError())

	fillValid(t, ctrl)
	_, err = ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "forceError=true", gotQuery)
	assert.Equal(t, "Forced error (demo)", ctrl.Snapshot().ResultMessage)
}

func TestRealSchedulerFiresRedirect(t *testing.T) {
	var fired int32
	nav := redirect.NavigatorFunc(func(string) { atomic.AddInt32(&fired, 1) })
	changed := make(chan struct{}, 1)
	ctrl, err := New(Options{
		Endpoint:      "/api/contact",
		ThankYouURL:   "/thank-you",
		Submitter:     stubSubmitter{client.Result{Kind: client.KindError, Message: "down"}},
		Redirector:    redirect.NewRedirector(nav, redirect.LoaderFunc(func(string) {}), nil),
		RedirectDelay: 10 * time.Millisecond,
		OnChange:      func() { changed <- struct{}{} },
	})
	require.NoError(t, err)
	defer ctrl.Close()
	fillValid(t, ctrl)

	_, err = ctrl.Submit(context.Background())
	require.NoError(t, err)

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("redirect did not fire")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	assert.Equal(t, StatusIdle, ctrl.Snapshot().Status)
}

type stubSubmitter struct{ res client.Result }

func (s stubSubmitter) Submit(context.Context, string, models.ContactRecord) client.Result {
	return s.res
}

// gateNav blocks inside the navigation callback until released.
type gateNav struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	done    []string
}

func (g *gateNav) NavigateInternal(path string) {
	g.entered <- struct{}{}
	<-g.release
	g.mu.Lock()
	g.done = append(g.done, path)
	g.mu.Unlock()
}

func (g *gateNav) LoadPage(url string) { g.NavigateInternal(url) }

func (g *gateNav) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.done)
}

func TestClose_WaitsForRedirectAlreadyNavigating(t *testing.T) {
	nav := &gateNav{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`, func(o *Options) {
		o.Redirector = redirect.NewRedirector(nav, nav, zap.NewNop())
	})
	fillValid(t, h.ctrl)
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	go h.sched.fire(0)
	<-nav.entered

	closed := make(chan struct{})
	go func() {
		h.ctrl.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the redirect was still navigating")
	case <-time.After(50 * time.Millisecond):
	}

	close(nav.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the redirect finished")
	}
	// the navigation completed before Close returned
	assert.Equal(t, 1, nav.count())
}

func TestClose_BetweenClaimAndNavigationNeverNavigatesAfterReturn(t *testing.T) {
	for i := 0; i < 50; i++ {
		nav := &navRecorder{}
		h := newHarness(t, http.StatusBadRequest, `{"success":false,"error":"X"}`, func(o *Options) {
			o.Redirector = redirect.NewRedirector(nav, nav, zap.NewNop())
		})
		fillValid(t, h.ctrl)
		_, err := h.ctrl.Submit(context.Background())
		require.NoError(t, err)

		fired := make(chan struct{})
		go func() {
			h.sched.fireIgnoringStop(0)
			close(fired)
		}()
		h.ctrl.Close()
		after := nav.total()
		<-fired
		assert.Equal(t, after, nav.total(), "navigation happened after Close returned")
	}
}
