package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/arenafinder/internal/finder"
	"github.com/jakopako/arenafinder/internal/log"
	"github.com/jakopako/arenafinder/internal/match"
	"github.com/jakopako/arenafinder/internal/utils"
)

// Selectors of the chat page. There is no fallback if the page changes.
const (
	cookieConsentSelector    = `button[data-sentry-source-file="cookie-consent-modal.tsx"]`
	newChatSelector          = `a[href*="/c/new"]`
	textareaSelector         = `textarea`
	imageButtonSelector      = `button[aria-label="Image"]`
	enabledSubmitSelector    = `button[type="submit"]:not([disabled])`
	disabledSubmitSelector   = `button[type="submit"][disabled]`
	completionMarkerSelector = `button[data-sentry-component="CopyButton"] + button:has(svg.lucide-maximize2)`
)

// Waits of the interaction script.
var (
	// optionalWait is how long we wait for elements that may not show up.
	optionalWait = 2 * time.Second
	// The chat client needs some time to initialize after a new chat was started.
	newChatDelay = 2 * time.Second
	// The pasted image is encoded asynchronously.
	pasteDelay = 1 * time.Second

	streamStartTimeout = 10 * time.Second
	completionTimeout  = 120 * time.Second
)

var errNoTextarea = errors.New("textarea not found")

var _ finder.Prober = (*Session)(nil)

type phase struct {
	name string
	run  func(ctx context.Context, logger *slog.Logger) error
}

// Probe runs one complete attempt: open the target, start a new chat, send
// the prompt with an image, wait for the response and match it.
func (s *Session) Probe(ctx context.Context, attempt int) (match.Result, error) {
	logger := log.LoggerFromContext(ctx)
	if err := ctx.Err(); err != nil {
		return match.NoMatch, err
	}

	phases := []phase{
		{"open target", s.openTarget},
		{"start conversation", s.startConversation},
		{"send prompt", s.sendPrompt},
		{"wait for response", s.awaitCompletion},
	}
	for _, p := range phases {
		if err := p.run(ctx, logger.With(slog.String("phase", p.name))); err != nil {
			s.writeDebugArtifacts(ctx, logger, attempt)
			return match.NoMatch, fmt.Errorf("%s: %w", p.name, err)
		}
	}

	logger.Info("analyzing responses")
	texts, err := s.responseTexts(ctx)
	if err != nil {
		s.writeDebugArtifacts(ctx, logger, attempt)
		return match.NoMatch, fmt.Errorf("extract responses: %w", err)
	}
	logger.Debug(fmt.Sprintf("found %d responses", len(texts)))

	res, err := s.matcher.CheckResponses(texts)
	if err != nil {
		return match.NoMatch, err
	}
	if res.Matched {
		logger.Info(fmt.Sprintf("match found in response #%d", res.Index+1))
	} else {
		s.writeDebugArtifacts(ctx, logger, attempt)
	}
	return res, nil
}

func (s *Session) openTarget(ctx context.Context, logger *slog.Logger) error {
	logger.Info(fmt.Sprintf("opening %s", s.opts.TargetURL))
	if err := s.run(ctx, s.opts.Timeout, chromedp.Navigate(s.opts.TargetURL)); err != nil {
		return err
	}
	s.dismissCookieConsent(ctx, logger)
	return nil
}

// dismissCookieConsent accepts cookies if the dialog shows up. Not finding
// the dialog is fine.
func (s *Session) dismissCookieConsent(ctx context.Context, logger *slog.Logger) {
	if err := s.run(ctx, optionalWait, chromedp.WaitVisible(cookieConsentSelector, chromedp.ByQuery)); err != nil {
		logger.Debug("no cookie consent dialog")
		return
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, s.opts.Timeout, chromedp.Nodes(cookieConsentSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		logger.Debug(fmt.Sprintf("failed to query cookie consent buttons: %v", err))
		return
	}
	// the second button accepts
	if len(nodes) < 2 {
		logger.Debug(fmt.Sprintf("expected 2 cookie consent buttons, found %d", len(nodes)))
		return
	}
	if err := s.run(ctx, s.opts.Timeout, chromedp.MouseClickNode(nodes[1])); err != nil {
		logger.Debug(fmt.Sprintf("failed to accept cookies: %v", err))
		return
	}
	logger.Info("accepted cookies")
}

func (s *Session) startConversation(ctx context.Context, logger *slog.Logger) error {
	logger.Info("starting new chat")
	err := s.run(ctx, s.opts.Timeout,
		chromedp.WaitVisible(newChatSelector, chromedp.ByQuery),
		chromedp.Click(newChatSelector, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	return pause(ctx, newChatDelay)
}

func (s *Session) sendPrompt(ctx context.Context, logger *slog.Logger) error {
	logger.Info("preparing to send prompt")
	if err := s.run(ctx, s.opts.Timeout,
		chromedp.WaitVisible(textareaSelector, chromedp.ByQuery),
		chromedp.Focus(textareaSelector, chromedp.ByQuery),
	); err != nil {
		return err
	}

	logger.Info("simulating image paste")
	if err := s.evaluateOnTextarea(ctx, pasteImageScript); err != nil {
		return err
	}
	if err := pause(ctx, pasteDelay); err != nil {
		return err
	}
	if err := s.run(ctx, optionalWait, chromedp.WaitVisible(imageButtonSelector, chromedp.ByQuery)); err == nil {
		if err := s.run(ctx, s.opts.Timeout, chromedp.Click(imageButtonSelector, chromedp.ByQuery)); err != nil {
			logger.Debug(fmt.Sprintf("failed to click image button: %v", err))
		} else {
			logger.Debug("image attached")
		}
	}

	logger.Info("entering prompt text")
	script, err := setPromptScript(s.opts.Prompt)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.opts.Timeout, chromedp.Focus(textareaSelector, chromedp.ByQuery)); err != nil {
		return err
	}
	if err := s.evaluateOnTextarea(ctx, script); err != nil {
		return err
	}

	logger.Info("sending prompt")
	return s.run(ctx, s.opts.Timeout,
		chromedp.WaitVisible(enabledSubmitSelector, chromedp.ByQuery),
		chromedp.Click(enabledSubmitSelector, chromedp.ByQuery),
	)
}

// evaluateOnTextarea runs a script that reports whether it found the textarea.
func (s *Session) evaluateOnTextarea(ctx context.Context, script string) error {
	var found bool
	if err := s.run(ctx, s.opts.Timeout, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return errNoTextarea
	}
	return nil
}

// awaitCompletion waits until the submit button is disabled, which means
// the response is streaming, and then for the maximize button that is shown
// once the response is complete.
func (s *Session) awaitCompletion(ctx context.Context, logger *slog.Logger) error {
	logger.Info("waiting for AI to start responding")
	if err := s.run(ctx, streamStartTimeout, chromedp.WaitVisible(disabledSubmitSelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("response did not start: %w", err)
	}
	logger.Info("AI is responding, waiting for response to complete")
	if err := s.run(ctx, completionTimeout, chromedp.WaitVisible(completionMarkerSelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("response did not complete: %w", err)
	}
	return nil
}

func (s *Session) responseTexts(ctx context.Context) ([]string, error) {
	script, err := responseTextsScript(s.opts.Selector)
	if err != nil {
		return nil, err
	}
	texts := []string{}
	if err := s.run(ctx, s.opts.Timeout, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

// writeDebugArtifacts stores a screenshot and the html of the current page
// in debug mode.
func (s *Session) writeDebugArtifacts(ctx context.Context, logger *slog.Logger, attempt int) {
	if !log.Debug || ctx.Err() != nil {
		return
	}
	if err := os.MkdirAll(s.opts.DebugDir, os.ModePerm); err != nil {
		logger.Warn(fmt.Sprintf("failed to create debug directory: %v", err))
		return
	}
	name, err := utils.RandomString(fmt.Sprintf("attempt-%03d", attempt))
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to create debug file name: %v", err))
		return
	}

	var screenshot []byte
	var html string
	err = s.run(ctx, s.opts.Timeout,
		chromedp.CaptureScreenshot(&screenshot),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to capture page: %v", err))
		return
	}

	pngFile := filepath.Join(s.opts.DebugDir, name+".png")
	htmlFile := filepath.Join(s.opts.DebugDir, name+".html")
	logger.Debug(fmt.Sprintf("writing screenshot to file %s", pngFile))
	if err := os.WriteFile(pngFile, screenshot, 0644); err != nil {
		logger.Warn(fmt.Sprintf("failed to write screenshot: %v", err))
	}
	logger.Debug(fmt.Sprintf("writing html to file %s", htmlFile))
	if err := os.WriteFile(htmlFile, []byte(html), 0644); err != nil {
		logger.Warn(fmt.Sprintf("failed to write html: %v", err))
	}
}
