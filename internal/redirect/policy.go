package redirect

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Navigation 跳转方式
type Navigation int

const (
	// Internal 应用内路由切换，不整页刷新
	Internal Navigation = iota
	// External 整页加载，丢弃内存状态
	External
)

func (n Navigation) String() string {
	if n == External {
		return "external"
	}
	return "internal"
}

// Decide classifies url. Absolute http(s) and protocol-relative URLs are External,
// everything else is Internal.
func Decide(url string) Navigation {
	if strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "//") {
		return External
	}
	return Internal
}

// Navigator 应用内导航（只需要 push 能力）
type Navigator interface {
	NavigateInternal(path string)
}

// Loader performs a full page load of url.
type Loader interface {
	LoadPage(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateInternal(path string) { f(path) }

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(url string)

func (f LoaderFunc) LoadPage(url string) { f(url) }

// Redirector applies the redirect policy using the given backends.
type Redirector struct {
	nav    Navigator
	loader Loader
	logger *zap.Logger
}

func NewRedirector(nav Navigator, loader Loader, logger *zap.Logger) *Redirector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redirector{nav: nav, loader: loader, logger: logger}
}

// Redirect navigates to url exactly once. If internal navigation is unavailable or
// panics, it falls back to a full page load.
func (r *Redirector) Redirect(url string) Navigation {
	kind, err := r.tryRedirect(url)
	if err != nil {
		r.logger.Warn("Internal navigation failed, falling back to full page load",
			zap.String("url", url), zap.Error(err))
		r.loader.LoadPage(url)
		return External
	}
	return kind
}

func (r *Redirector) tryRedirect(url string) (kind Navigation, err error) {
	kind = Decide(url)
	if kind == External {
		r.loader.LoadPage(url)
		return kind, nil
	}
	if r.nav == nil {
		return kind, fmt.Errorf("no internal navigator configured")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("navigate %q: %v", url, p)
		}
	}()
	r.nav.NavigateInternal(url)
	return kind, nil
}
