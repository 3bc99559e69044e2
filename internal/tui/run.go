package tui

import (
	"context"
	"fmt"
	"sync"

	"contactform/internal/form"
	"contactform/internal/notify"
	"contactform/internal/redirect"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// bridge forwards controller callbacks into the running program. Messages sent
// before the program is attached are dropped.
type bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *bridge) Success(_ context.Context, message string) {
	b.post(toastMsg{level: "success", text: message})
}

func (b *bridge) Error(_ context.Context, message string, action *notify.Action) {
	b.post(toastMsg{level: "error", text: message, action: action})
}

func (b *bridge) NavigateInternal(path string) { b.post(navigateMsg{path: path}) }

func (b *bridge) LoadPage(url string) { b.post(loadPageMsg{url: url}) }

func (b *bridge) changed() { b.post(refreshMsg{}) }

// Run shows the contact form until the user quits or the form redirects to an
// external page. It returns that page's URL, or "" when the user quit.
// opts.Notifier, opts.Redirector and opts.OnChange are owned by the terminal
// host; extra, when set, also receives every notification.
func Run(opts form.Options, extra notify.Notifier, programOpts ...tea.ProgramOption) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &bridge{}
	opts.Notifier = b
	if extra != nil {
		opts.Notifier = notify.Multi{b, extra}
	}
	opts.Redirector = redirect.NewRedirector(b, b, logger)
	opts.OnChange = b.changed

	ctrl, err := form.New(opts)
	if err != nil {
		return "", err
	}
	defer ctrl.Close()

	p := tea.NewProgram(newModel(ctrl, logger), programOpts...)
	b.attach(p.Send)

	final, err := p.Run()
	b.attach(nil)
	if err != nil {
		return "", fmt.Errorf("contact form: %w", err)
	}
	if m, ok := final.(model); ok {
		return m.exitURL, nil
	}
	return "", nil
}
