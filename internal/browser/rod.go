// Package browser drives the visible app: page navigation and form inputs.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultNavigationTimeout bounds a single page load.
const DefaultNavigationTimeout = 15 * time.Second

// RodConfig configures the Chrome-backed driver.
type RodConfig struct {
	// ControlURL is a DevTools websocket URL. Empty launches a headless Chrome.
	ControlURL string
	// BaseURL is prefixed to every route, e.g. http://localhost:5173.
	BaseURL           string
	NavigationTimeout time.Duration
}

// Rod implements navigation and form filling on one Chrome tab.
type Rod struct {
	cfg     RodConfig
	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewRod returns an unconnected driver. The first call that needs the page
// connects.
func NewRod(cfg RodConfig) *Rod {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Rod{cfg: cfg}
}

// Start connects to Chrome and opens the working tab.
func (r *Rod) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.pageLocked(ctx)
	return err
}

func (r *Rod) pageLocked(ctx context.Context) (*rod.Page, error) {
	if r.page != nil {
		return r.page, nil
	}

	controlURL := r.cfg.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	r.browser, r.page = b, page
	return page, nil
}

func (r *Rod) withPage(ctx context.Context) (*rod.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, err := r.pageLocked(ctx)
	if err != nil {
		return nil, err
	}
	return page.Context(ctx), nil
}

// Close closes the browser connection if one was made.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser, r.page = nil, nil
	return err
}

// Navigate loads BaseURL+route and waits for the load event.
func (r *Rod) Navigate(ctx context.Context, route string) error {
	page, err := r.withPage(ctx)
	if err != nil {
		return err
	}
	page = page.Timeout(r.cfg.NavigationTimeout)
	if err := page.Navigate(r.cfg.BaseURL + route); err != nil {
		return fmt.Errorf("navigate %s: %w", route, err)
	}
	return page.WaitLoad()
}

// CurrentRoute returns the path of the tab's URL.
func (r *Rod) CurrentRoute(ctx context.Context) (string, error) {
	page, err := r.withPage(ctx)
	if err != nil {
		return "", err
	}
	info, err := page.Info()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

func (r *Rod) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	page, err := r.withPage(ctx)
	if err != nil {
		return nil, err
	}
	return page.Evaluate(&rod.EvalOptions{JS: js, JSArgs: args, ByValue: true})
}

// HasField reports whether selector matches an element on the page.
func (r *Rod) HasField(ctx context.Context, selector string) (bool, error) {
	res, err := r.eval(ctx, `(sel) => document.querySelector(sel) !== null`, selector)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// setNativeValueJS goes through the prototype setter so framework-controlled
// inputs see the change, then fires bubbling input and change events.
const setNativeValueJS = `(sel, value) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	const setter = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value')?.set;
	if (setter) setter.call(el, value); else el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// SetFieldValue writes value into the first element matching selector.
func (r *Rod) SetFieldValue(ctx context.Context, selector, value string) error {
	res, err := r.eval(ctx, setNativeValueJS, selector, value)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("no element matches %s", selector)
	}
	return nil
}

// SaveFocus remembers document.activeElement in the page and returns a
// function that focuses it again.
func (r *Rod) SaveFocus(ctx context.Context) (func(), error) {
	if _, err := r.eval(ctx, `() => { window.__healthyfyFocus = document.activeElement; }`); err != nil {
		return nil, err
	}
	return func() {
		_, _ = r.eval(context.WithoutCancel(ctx), `() => {
			const el = window.__healthyfyFocus;
			if (el && typeof el.focus === 'function') el.focus();
			window.__healthyfyFocus = undefined;
		}`)
	}, nil
}
