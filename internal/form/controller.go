package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contactform/internal/client"
	"contactform/internal/models"
	"contactform/internal/normalize"
	"contactform/internal/notify"
	"contactform/internal/redirect"
	"contactform/internal/validation"

	"go.uber.org/zap"
)

const (
	DefaultRedirectDelay = 5 * time.Second
	UndoLabel            = "Undo"
)

var (
	ErrValidation     = errors.New("form has validation errors")
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrClosed         = errors.New("form controller closed")
	ErrUnknownField   = errors.New("unknown form field")
)

// Redirector 错误后的跳转执行者（redirect.Redirector 实现）
type Redirector interface {
	Redirect(url string) redirect.Navigation
}

// Options 构造 Controller 的依赖与配置
type Options struct {
	Endpoint    string
	ThankYouURL string

	Submitter  client.Submitter
	Notifier   notify.Notifier
	Redirector Redirector

	// RedirectDelay defaults to DefaultRedirectDelay.
	RedirectDelay  time.Duration
	ValidationMode ValidationMode
	Scheduler      Scheduler
	Mode           *Mode
	Logger         *zap.Logger

	// OnChange is called, outside the controller lock, after state changes that
	// happen off the caller's goroutine (the redirect timer firing).
	OnChange func()
}

// Snapshot 表单状态的只读副本，供宿主渲染
type Snapshot struct {
	Status               Status
	Values               models.ContactRecord
	Errors               validation.Errors
	DisplayContactNumber string
	ResultMessage        string
	HasResultMessage     bool
	SubmitDisabled       bool
	RedirectPending      bool
	ForceError           bool
}

// DisplayValue is what the input for field shows. The contact number input always
// shows the grouped display string, never the stored digits.
func (s Snapshot) DisplayValue(field models.Field) string {
	if field == models.FieldContactNumber {
		return s.DisplayContactNumber
	}
	return s.Values.Get(field)
}

// Controller owns the state of one mounted contact form.
type Controller struct {
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	status     Status
	values     models.ContactRecord
	errs       validation.Errors
	display    string
	message    string
	hasMessage bool
	pending    *RedirectHandle
	closed     bool

	// navMu is held while a fired redirect navigates; Close waits on it.
	navMu sync.Mutex
}

func New(opts Options) (*Controller, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("form: endpoint is required")
	}
	if opts.Submitter == nil {
		return nil, fmt.Errorf("form: submitter is required")
	}
	if opts.Redirector == nil {
		return nil, fmt.Errorf("form: redirector is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		opts:   opts,
		logger: opts.Logger,
		errs:   validation.Errors{},
	}, nil
}

// Edit applies a keystroke to field. The field's error is cleared right away and
// nothing is validated. Contact number input is reduced to at most ten digits and
// mirrored into the display string.
func (c *Controller) Edit(field models.Field, raw string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.status == StatusLoading {
		return ErrSubmitInFlight
	}
	delete(c.errs, field)
	if field == models.FieldContactNumber {
		digits, display := normalize.NormalizeContactNumber(raw)
		c.values.ContactNumber = digits
		c.display = display
		return nil
	}
	c.values.Set(field, raw)
	return nil
}

// Blur revalidates field alone. In ModeOnSubmit it does nothing.
func (c *Controller) Blur(field models.Field) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.opts.ValidationMode != ModeOnBlur {
		return nil
	}
	if msg, ok := validation.ValidateField(field, c.values); !ok {
		c.errs[field] = msg
	} else {
		delete(c.errs, field)
	}
	return nil
}

// Submit validates the whole form and, when valid, sends it. Only one submission
// may be in flight; a second call while loading returns ErrSubmitInFlight without
// touching the network.
func (c *Controller) Submit(ctx context.Context) (client.Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return client.Result{}, ErrClosed
	}
	if c.status == StatusLoading {
		c.mu.Unlock()
		return client.Result{}, ErrSubmitInFlight
	}
	if errs := validation.Validate(c.values); len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		c.logger.Debug("Contact form submit blocked by validation", zap.Int("field_errors", len(errs)))
		return client.Result{}, ErrValidation
	}
	c.cancelPendingLocked()
	c.status = StatusLoading
	c.message, c.hasMessage = "", false
	record := c.values
	endpoint := c.opts.Mode.Endpoint(c.opts.Endpoint)
	c.mu.Unlock()

	c.logger.Debug("Contact form submitting", zap.String("endpoint", endpoint))
	res := c.opts.Submitter.Submit(ctx, endpoint, record)

	c.mu.Lock()
	if c.closed {
		// unmounted while in flight: nothing left to update or notify
		c.mu.Unlock()
		return res, ErrClosed
	}
	c.message, c.hasMessage = res.Message, true
	if res.OK() {
		c.status = StatusSuccess
		c.values = models.ContactRecord{}
		c.errs = validation.Errors{}
		c.display = ""
		c.mu.Unlock()
		c.logger.Info("Contact form submitted", zap.String("status", StatusSuccess.String()))
		c.opts.Notifier.Success(ctx, res.Message)
		return res, nil
	}

	c.status = StatusError
	handle := c.armRedirectLocked()
	c.mu.Unlock()
	c.logger.Warn("Contact form submission failed",
		zap.String("message", res.Message),
		zap.Error(res.Err),
		zap.Duration("redirect_in", handle.delay),
	)
	c.opts.Notifier.Error(ctx, res.Message, &notify.Action{
		Label:  UndoLabel,
		Delay:  handle.delay,
		Cancel: handle.Cancel,
	})
	return res, nil
}

// CancelRedirect cancels the pending redirect, leaving status at error. It reports
// whether a redirect was pending.
func (c *Controller) CancelRedirect() bool {
	c.mu.Lock()
	h := c.pending
	c.mu.Unlock()
	return h.Cancel()
}

// PendingRedirect returns the armed redirect handle, or nil.
func (c *Controller) PendingRedirect() *RedirectHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Close tears the form down: any pending redirect is cancelled and never fires.
// A redirect that was already navigating when Close began is waited for, so no
// navigation happens after Close returns. Close is idempotent. It must not be
// called from a Navigator or Loader callback.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancelPendingLocked()
	c.mu.Unlock()

	// wait for a redirect that is already navigating
	c.navMu.Lock()
	c.navMu.Unlock()
}

// SetForceError flips the force-error mode used to resolve the endpoint.
func (c *Controller) SetForceError(ctx context.Context, v bool) error {
	if c.opts.Mode == nil {
		return fmt.Errorf("form: no mode configured")
	}
	return c.opts.Mode.SetForceError(ctx, v)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := make(validation.Errors, len(c.errs))
	for k, v := range c.errs {
		errs[k] = v
	}
	return Snapshot{
		Status:               c.status,
		Values:               c.values,
		Errors:               errs,
		DisplayContactNumber: c.display,
		ResultMessage:        c.message,
		HasResultMessage:     c.hasMessage,
		SubmitDisabled:       c.status == StatusLoading,
		RedirectPending:      c.pending != nil,
		ForceError:           c.opts.Mode.ForceError(),
	}
}

func (c *Controller) armRedirectLocked() *RedirectHandle {
	h := &RedirectHandle{c: c, delay: c.opts.RedirectDelay}
	c.pending = h
	h.timer = c.opts.Scheduler.AfterFunc(h.delay, func() { c.fireRedirect(h) })
	return h
}

func (c *Controller) cancelPendingLocked() {
	if c.pending == nil {
		return
	}
	c.pending.stop()
	c.pending = nil
}

func (c *Controller) cancelRedirect(h *RedirectHandle) bool {
	c.mu.Lock()
	if c.pending == h {
		c.pending = nil
	}
	c.mu.Unlock()
	stopped := h.stop()
	if stopped {
		c.logger.Info("Contact form redirect cancelled")
	}
	return stopped
}

func (c *Controller) fireRedirect(h *RedirectHandle) {
	if !c.navigate(h) {
		return
	}
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

// navigate runs the redirect for h under navMu. The closed check and the
// navigation share that critical section, so a concurrent Close either prevents
// the redirect or waits for it to finish.
func (c *Controller) navigate(h *RedirectHandle) bool {
	c.navMu.Lock()
	defer c.navMu.Unlock()

	c.mu.Lock()
	if c.closed || c.pending != h || !h.claim() {
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	url := c.opts.ThankYouURL
	c.mu.Unlock()

	nav := c.opts.Redirector.Redirect(url)
	c.logger.Info("Contact form redirected", zap.String("url", url), zap.String("navigation", nav.String()))

	c.mu.Lock()
	if c.status == StatusError {
		c.status = StatusIdle
		c.message, c.hasMessage = "", false
	}
	c.mu.Unlock()
	return true
}
