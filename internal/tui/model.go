package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contactform/internal/client"
	"contactform/internal/form"
	"contactform/internal/models"
	"contactform/internal/notify"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	buttonStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2).
			Background(lipgloss.Color("203")).Foreground(lipgloss.Color("230"))
	focusedButtonStyle = buttonStyle.Background(lipgloss.Color("196"))
	disabledButtonStyle = buttonStyle.Background(lipgloss.Color("238"))
	toastStyle          = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)
	dimmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const (
	submitLabel  = "YES, I WANT TO GROW MY BUSINESS"
	sendingLabel = "Sending..."
)

var fieldLabels = map[models.Field]string{
	models.FieldFirstName:      "First name*",
	models.FieldEmail:          "Email*",
	models.FieldContactNumber:  "Best contact number*",
	models.FieldCompanyWebsite: "Company website",
	models.FieldMessage:        "How can we help you?",
}

var fieldPlaceholders = map[models.Field]string{
	models.FieldFirstName:      "Your first name",
	models.FieldEmail:          "name@example.com",
	models.FieldContactNumber:  "0400 000 000",
	models.FieldCompanyWebsite: "https://www.example.com",
	models.FieldMessage:        "Add message...",
}

type submitDoneMsg struct {
	res client.Result
	err error
}

type toastMsg struct {
	level  string
	text   string
	action *notify.Action
}

type navigateMsg struct{ path string }

type loadPageMsg struct{ url string }

type refreshMsg struct{}

type toast struct {
	level  string
	text   string
	action *notify.Action
}

// model 终端联系表单；所有状态变更都在 Update 循环里进行
type model struct {
	ctrl   *form.Controller
	logger *zap.Logger

	inputs []textinput.Model
	focus  int // len(inputs) 表示提交按钮

	snap    form.Snapshot
	toast   *toast
	page    string // 应用内导航后的页面
	exitURL string // 整页跳转目标，程序随后退出
}

func newModel(ctrl *form.Controller, logger *zap.Logger) model {
	inputs := make([]textinput.Model, len(models.Fields))
	for i, f := range models.Fields {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[f]
		ti.Prompt = "> "
		ti.PromptStyle = labelStyle
		ti.PlaceholderStyle = dimmedStyle
		ti.Width = 48
		inputs[i] = ti
	}
	inputs[0].Focus()
	return model{ctrl: ctrl, logger: logger, inputs: inputs, snap: ctrl.Snapshot()}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, form.ErrValidation) {
			m.logger.Warn("Submit rejected", zap.Error(msg.err))
		}
		m.refresh(true)
		return m, nil

	case toastMsg:
		m.toast = &toast{level: msg.level, text: msg.text, action: msg.action}
		return m, nil

	case navigateMsg:
		m.page = msg.path
		m.toast = nil
		m.refresh(true)
		return m, nil

	case loadPageMsg:
		m.exitURL = msg.url
		return m, tea.Quit

	case refreshMsg:
		m.refresh(true)
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus < len(m.inputs) {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "ctrl+s":
		return m, m.submit()
	case "enter":
		if m.page != "" {
			// 返回表单
			m.page = ""
			return m, nil
		}
		if m.focus == len(m.inputs) {
			return m, m.submit()
		}
		return m, m.moveFocus(1)
	case "ctrl+f":
		on := !m.snap.ForceError
		if err := m.ctrl.SetForceError(context.Background(), on); err != nil {
			m.logger.Warn("Toggle force error failed", zap.Error(err))
		}
		m.refresh(false)
		return m, nil
	case "ctrl+z":
		if m.toast != nil && m.toast.action != nil && m.toast.action.Cancel() {
			m.toast = &toast{level: "info", text: "Redirect cancelled."}
		}
		m.refresh(false)
		return m, nil
	}

	if m.page != "" || m.focus >= len(m.inputs) {
		return m, nil
	}

	field := models.Fields[m.focus]
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if err := m.ctrl.Edit(field, m.inputs[m.focus].Value()); err != nil {
		m.logger.Debug("Edit ignored", zap.String("field", string(field)), zap.Error(err))
	}
	m.snap = m.ctrl.Snapshot()
	// the visible input always mirrors the controller (grouped phone number)
	if want := m.snap.DisplayValue(field); want != m.inputs[m.focus].Value() {
		m.inputs[m.focus].SetValue(want)
		m.inputs[m.focus].CursorEnd()
	}
	return m, cmd
}

func (m *model) moveFocus(delta int) tea.Cmd {
	if m.page != "" {
		return nil
	}
	if m.focus < len(m.inputs) {
		if err := m.ctrl.Blur(models.Fields[m.focus]); err != nil {
			m.logger.Debug("Blur ignored", zap.Error(err))
		}
		m.inputs[m.focus].Blur()
	}
	n := len(m.inputs) + 1
	m.focus = ((m.focus+delta)%n + n) % n
	m.snap = m.ctrl.Snapshot()
	if m.focus < len(m.inputs) {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

func (m *model) submit() tea.Cmd {
	if m.snap.SubmitDisabled {
		return nil
	}
	ctrl := m.ctrl
	// optimistic loading label; the controller decides the real status
	m.snap.SubmitDisabled = true
	return func() tea.Msg {
		res, err := ctrl.Submit(context.Background())
		return submitDoneMsg{res: res, err: err}
	}
}

// refresh reloads the snapshot; syncInputs also rewrites every input from it
// (after a reset or when edits were rejected).
func (m *model) refresh(syncInputs bool) {
	m.snap = m.ctrl.Snapshot()
	if !syncInputs {
		return
	}
	for i, f := range models.Fields {
		if want := m.snap.DisplayValue(f); m.inputs[i].Value() != want {
			m.inputs[i].SetValue(want)
			m.inputs[i].CursorEnd()
		}
	}
}

func (m model) View() string {
	if m.exitURL != "" {
		return fmt.Sprintf("Opening %s\n", m.exitURL)
	}
	if m.page != "" {
		return titleStyle.Render("Thank you for contacting us!") + "\n\n" +
			"We've received your message and will get back to you shortly.\n\n" +
			dimmedStyle.Render(m.page+" • enter back to form • esc quit") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Contact us"))
	if m.snap.ForceError {
		b.WriteString("  " + errorStyle.Render("[FORCE API ERROR]"))
	}
	b.WriteString("\n\n")

	for i, f := range models.Fields {
		b.WriteString(labelStyle.Render(fieldLabels[f]) + "\n")
		b.WriteString(m.inputs[i].View() + "\n")
		if msg, ok := m.snap.Errors[f]; ok {
			b.WriteString(errorStyle.Render("  "+msg) + "\n")
		}
		b.WriteString("\n")
	}

	label, style := submitLabel, buttonStyle
	switch {
	case m.snap.SubmitDisabled:
		label, style = sendingLabel, disabledButtonStyle
	case m.focus == len(m.inputs):
		style = focusedButtonStyle
	}
	b.WriteString(style.Render(label) + "\n\n")

	if m.toast != nil {
		b.WriteString(m.renderToast() + "\n")
	}
	b.WriteString(dimmedStyle.Render("tab next • ctrl+s submit • ctrl+f force error • ctrl+z undo • esc quit") + "\n")
	return b.String()
}

func (m model) renderToast() string {
	t := m.toast
	switch t.level {
	case "success":
		return toastStyle.Render(successStyle.Render(t.text))
	case "error":
		text := t.text
		if t.action != nil && m.snap.RedirectPending {
			text = fmt.Sprintf("%s Redirecting in %ds... (ctrl+z %s)", t.text, int(t.action.Delay.Seconds()), t.action.Label)
		}
		return toastStyle.Render(errorStyle.Render(text))
	}
	return toastStyle.Render(t.text)
}
