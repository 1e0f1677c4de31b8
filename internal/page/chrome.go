package page

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/surveyfill/internal/log"
)

// ChromeConfig configures the browser started by NewChrome. The browser
// runs headless unless ShowWindow is set.
type ChromeConfig struct {
	ShowWindow   bool   `yaml:"show_window" env:"SHOW_WINDOW"`
	ExecPath     string `yaml:"exec_path" env:"EXEC_PATH"`
	UserAgent    string `yaml:"user_agent" env:"USER_AGENT"`
	WindowWidth  int    `yaml:"window_width" env:"WINDOW_WIDTH" env-default:"1280"`
	WindowHeight int    `yaml:"window_height" env:"WINDOW_HEIGHT" env-default:"900"`
}

// Chrome is a Page backed by a single tab of a Chrome instance driven
// through the devtools protocol.
type Chrome struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

// NewChrome starts the browser and opens a blank tab.
func NewChrome(ctx context.Context, cfg ChromeConfig) (*Chrome, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("page", "chrome"))
	// slicing the array gives len == cap, so appending copies
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if cfg.ShowWindow {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	c := &Chrome{allocCtx: allocCtx, cancelAlloc: cancelAlloc, tabCtx: tabCtx, cancelTab: cancelTab}

	// the first Run starts the browser and must not use a derived context
	if err := chromedp.Run(tabCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	if log.Debug {
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, _, userAgent, _, err := browser.GetVersion().Do(ctx)
			if err != nil {
				return err
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, userAgent=%s", protocolVersion, product, userAgent))
			return nil
		}))
		if err != nil {
			logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
		}
	}
	return c, nil
}

// Close shuts down the tab and the browser.
func (c *Chrome) Close() {
	c.cancelTab()
	c.cancelAlloc()
}

// run executes actions in the tab, aborting when ctx is done.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var body string
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	return body, err
}

func (c *Chrome) Text(ctx context.Context) (string, error) {
	var text string
	err := c.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return text, err
}

func (c *Chrome) URL(ctx context.Context) (string, error) {
	var u string
	err := c.run(ctx, chromedp.Location(&u))
	return u, err
}

func (c *Chrome) Ready(ctx context.Context) (bool, error) {
	var ready bool
	err := c.run(ctx, chromedp.Evaluate(`document.readyState === "complete"`, &ready))
	return ready, err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Visible(ctx context.Context, t Target) (bool, error) {
	var visible bool
	err := c.run(ctx, chromedp.Evaluate(withElement(t, `return el.offsetParent !== null;`, "false"), &visible))
	return visible, err
}

func (c *Chrome) Click(ctx context.Context, t Target) error {
	return c.do(ctx, t, `
		try {
			el.click();
		} catch (e) {
			el.dispatchEvent(new MouseEvent("click", {bubbles: true}));
		}`)
}

func (c *Chrome) SetValue(ctx context.Context, t Target, value string) error {
	return c.do(ctx, t, fmt.Sprintf(`
		el.value = %s;
		["input", "change"].forEach((type) => el.dispatchEvent(new Event(type, {bubbles: true})));`, quote(value)))
}

func (c *Chrome) SetAttr(ctx context.Context, t Target, name, value string) error {
	return c.do(ctx, t, fmt.Sprintf(`el.setAttribute(%s, %s);`, quote(name), quote(value)))
}

// do runs body with the target bound to el and reports ErrNotFound if the
// target does not exist.
func (c *Chrome) do(ctx context.Context, t Target, body string) error {
	var found bool
	if err := c.run(ctx, chromedp.Evaluate(withElement(t, body+"\nreturn true;", "false"), &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return nil
}

// withElement wraps body in a function that binds el to the target or
// returns missing if it does not exist.
func withElement(t Target, body, missing string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%s)[%d];
		if (!el) {
			return %s;
		}
		%s
	})()`, quote(t.Selector), t.Index, missing, body)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
