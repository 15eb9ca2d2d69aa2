// Package finder repeats probe attempts until a response matches the
// search pattern.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakopako/arenafinder/internal/log"
	"github.com/jakopako/arenafinder/internal/match"
	"github.com/jakopako/arenafinder/internal/types"
)

const (
	// NoMatchDelay is the wait before the next attempt after no response matched.
	NoMatchDelay = 2 * time.Second
	// ErrorDelay is the wait before the next attempt after a failed one.
	ErrorDelay = 3 * time.Second
)

// A Prober runs one complete attempt against the target site. Every call
// starts from a fresh conversation.
type Prober interface {
	Probe(ctx context.Context, attempt int) (match.Result, error)
}

// Decision tells the loop what to do after an attempt.
type Decision struct {
	Stop    bool
	Success bool
	Delay   time.Duration
}

// Next is the transition function of the retry loop.
func Next(outcome types.Outcome, retry bool) Decision {
	switch {
	case outcome == types.OutcomeMatched:
		return Decision{Stop: true, Success: true}
	case !retry:
		return Decision{Stop: true}
	case outcome == types.OutcomeFailed:
		return Decision{Delay: ErrorDelay}
	default:
		return Decision{Delay: NoMatchDelay}
	}
}

// Report summarizes a finished run.
type Report struct {
	Found       bool
	Interrupted bool
	Attempts    int
	Result      match.Result
	Statuses    []types.AttemptStatus
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Finder is the retry loop around a Prober.
type Finder struct {
	prober Prober
	retry  bool
	sleep  SleepFunc
}

// New returns a Finder. If retry is false the first failed attempt ends
// the run.
func New(p Prober, retry bool) *Finder {
	return &Finder{
		prober: p,
		retry:  retry,
		sleep:  sleep,
	}
}

// WithSleep replaces the function used to wait between attempts.
func (f *Finder) WithSleep(s SleepFunc) *Finder {
	f.sleep = s
	return f
}

// Run probes until a match is found, retries are disabled, or ctx is
// cancelled. Cancellation is reported as an interrupted Report, not as an
// error. An error is only returned if an attempt failed while retries are
// disabled.
func (f *Finder) Run(ctx context.Context) (*Report, error) {
	report := &Report{Result: match.NoMatch}
	for attempt := 1; ; attempt++ {
		logger := log.LoggerFromContext(ctx).With(slog.Int("attempt", attempt))
		attemptCtx := log.ContextWithLogger(ctx, logger)
		logger.Info(fmt.Sprintf("attempt #%d", attempt))

		status := types.AttemptStatus{Number: attempt, Start: time.Now()}
		res, err := f.prober.Probe(attemptCtx, attempt)
		status.End = time.Now()
		report.Attempts = attempt

		if ctx.Err() != nil {
			status.Outcome = types.OutcomeFailed
			status.Error = "interrupted"
			report.Statuses = append(report.Statuses, status)
			logger.Info("interrupted by user")
			report.Interrupted = true
			return report, nil
		}

		switch {
		case err != nil:
			status.Outcome = types.OutcomeFailed
			status.Error = err.Error()
			logger.Warn(fmt.Sprintf("error occurred: %v", err))
		case res.Matched:
			status.Outcome = types.OutcomeMatched
		default:
			status.Outcome = types.OutcomeNoMatch
		}
		report.Statuses = append(report.Statuses, status)

		d := Next(status.Outcome, f.retry)
		if d.Stop {
			if d.Success {
				logger.Info("success! matching model found")
				report.Found = true
				report.Result = res
				return report, nil
			}
			if err != nil {
				return report, err
			}
			logger.Info("no match found, retry disabled")
			return report, nil
		}

		if err != nil {
			logger.Info("retrying after error")
		} else {
			logger.Info("no match found, retrying")
		}
		if err := f.sleep(ctx, d.Delay); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("interrupted by user")
				report.Interrupted = true
				return report, nil
			}
			return report, err
		}
	}
}
