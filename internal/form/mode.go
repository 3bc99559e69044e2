package form

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"contactform/internal/store"

	"go.uber.org/zap"
)

// ForceErrorParam 让服务端返回固定 400 的查询参数（演示错误流程）
const ForceErrorParam = "forceError"

// Mode holds the force-error toggle. It is read from the preference store once at
// construction and written back on every change.
type Mode struct {
	mu         sync.RWMutex
	forceError bool
	prefs      store.PreferenceStore
	logger     *zap.Logger
}

// NewMode loads the persisted toggle. A nil store keeps the toggle in memory only;
// a load failure is logged and the toggle starts off.
func NewMode(ctx context.Context, prefs store.PreferenceStore, logger *zap.Logger) *Mode {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mode{prefs: prefs, logger: logger}
	if prefs != nil {
		v, err := prefs.Load(ctx)
		if err != nil {
			logger.Warn("Failed to load force-error preference", zap.Error(err))
		} else {
			m.forceError = v
		}
	}
	return m
}

func (m *Mode) ForceError() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forceError
}

// SetForceError updates the toggle and persists it. The in-memory value changes
// even when saving fails.
func (m *Mode) SetForceError(ctx context.Context, v bool) error {
	m.mu.Lock()
	m.forceError = v
	m.mu.Unlock()
	if m.prefs == nil {
		return nil
	}
	if err := m.prefs.Save(ctx, v); err != nil {
		m.logger.Warn("Failed to save force-error preference", zap.Bool("force_error", v), zap.Error(err))
		return err
	}
	return nil
}

// Endpoint returns base with forceError=true added when the toggle is on.
func (m *Mode) Endpoint(base string) string {
	if !m.ForceError() {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + ForceErrorParam + "=true"
	}
	q := u.Query()
	q.Set(ForceErrorParam, "true")
	u.RawQuery = q.Encode()
	return u.String()
}
