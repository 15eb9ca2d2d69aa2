// Package browser drives a chrome instance through the chat page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/arenafinder/internal/log"
	"github.com/jakopako/arenafinder/internal/match"
)

const (
	locale         = "en-US"
	viewportWidth  = 1280
	viewportHeight = 720
	defaultTimeout = 60 * time.Second
)

// Options configures a Session.
type Options struct {
	Headless bool
	// Proxy is passed to chrome's --proxy-server, eg. socks5://127.0.0.1:1080
	Proxy string
	// Timeout is the default timeout of every wait.
	Timeout   time.Duration
	TargetURL string
	Prompt    string
	// Selector selects the response blocks, defaults to match.DefaultSelector.
	Selector string
	DebugDir string
}

// Session owns one browser and the tab all attempts run in. It has to be
// closed to shut down the browser.
type Session struct {
	opts        Options
	matcher     *match.Matcher
	cancelAlloc context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
}

func allocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.Flag("lang", locale),
		chromedp.Flag("accept-lang", locale),
	)
	if !o.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if o.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(o.Proxy))
	}
	return opts
}

// Connect launches the browser and opens a tab. Cancelling ctx shuts the
// browser down.
func Connect(ctx context.Context, o Options, m *match.Matcher) (*Session, error) {
	if o.Selector == "" {
		o.Selector = match.DefaultSelector
	}
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	logger := log.LoggerFromContext(ctx).With(slog.String("component", "browser"))
	logger.Info("setting up browser", slog.Bool("headless", o.Headless), slog.String("proxy", o.Proxy))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(o)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{
		opts:        o,
		matcher:     m,
		cancelAlloc: cancelAlloc,
		ctx:         browserCtx,
		cancel:      cancel,
	}

	actions := []chromedp.Action{
		emulation.SetLocaleOverride().WithLocale(locale),
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
	}
	if log.Debug {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, revision, userAgent, jsVersion, err := cdpbrowser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
				protocolVersion, product, revision, userAgent, jsVersion))
			return nil
		}))
	}

	// The first Run starts the browser. It must not use a context with a
	// timeout, the browser would be killed once it expires.
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		s.Close()
		return nil, fmt.Errorf("error starting browser: %w", err)
	}
	return s, nil
}

// Close shuts down the browser. It is safe to call Close more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		// the parent context was cancelled already, eg. on interrupt
		return nil
	}
	return err
}

// run executes actions in the session's tab. They are aborted after timeout
// or when ctx is done, whichever comes first.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// pause waits for a fixed time. It is only used where the page offers
// nothing to wait for.
func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
