// Package controller runs single submission attempts: it prepares the
// questionnaire, answers page after page, advances and classifies the
// result.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/sampling"
	"github.com/jakopako/surveyfill/internal/survey"
)

// ErrAlreadyRunning is returned by Run while another attempt is active.
var ErrAlreadyRunning = errors.New("an attempt is already running")

var (
	errStopped  = errors.New("attempt stopped")
	errBlocked  = errors.New("captcha challenge detected, attempt aborted")
	errTimedOut = errors.New("timed out waiting for the submit result")
)

const (
	dismissSelector  = "a.layui-layer-btn1"
	startSelector    = ".slideChunkWord, button, a"
	captchaSelector  = "#aliyunCaptcha-window-popup"
	dismissText      = "取消"
	startText        = "开始作答"
	nextSelectorMain = "#divNext"
	nextSelectorAlt  = "#ctlNext"
)

var successSelectors = []string{"#divSuccess", ".smfgSubmitSuccessContent", "#smSuccess", "#submit_result"}

var successText = regexp.MustCompile(`提交成功|感谢|感谢您的参与`)

// Timing holds the delays of an attempt.
type Timing struct {
	QuestionDelayMin time.Duration `yaml:"question_delay_min" env:"QUESTION_DELAY_MIN" env-default:"80ms"`
	QuestionDelayMax time.Duration `yaml:"question_delay_max" env:"QUESTION_DELAY_MAX" env-default:"200ms"`
	PreAdvance       time.Duration `yaml:"pre_advance" env:"PRE_ADVANCE" env-default:"300ms"`
	PostAdvance      time.Duration `yaml:"post_advance" env:"POST_ADVANCE" env-default:"600ms"`
	Settle           time.Duration `yaml:"settle" env:"SETTLE" env-default:"200ms"`
	Dismiss          time.Duration `yaml:"dismiss" env:"DISMISS" env-default:"200ms"`
	StartClick       time.Duration `yaml:"start_click" env:"START_CLICK" env-default:"400ms"`
	Poll             time.Duration `yaml:"poll" env:"POLL" env-default:"300ms"`
	ResultTimeout    time.Duration `yaml:"result_timeout" env:"RESULT_TIMEOUT" env-default:"20s"`
}

func DefaultTiming() Timing {
	return Timing{
		QuestionDelayMin: 80 * time.Millisecond,
		QuestionDelayMax: 200 * time.Millisecond,
		PreAdvance:       300 * time.Millisecond,
		PostAdvance:      600 * time.Millisecond,
		Settle:           200 * time.Millisecond,
		Dismiss:          200 * time.Millisecond,
		StartClick:       400 * time.Millisecond,
		Poll:             300 * time.Millisecond,
		ResultTimeout:    20 * time.Second,
	}
}

// An Outcome describes how an attempt ended. Err is set for every terminal
// state but Succeeded.
type Outcome struct {
	State    State
	Err      error
	Pages    int
	Answered int
}

// Controller runs at most one attempt at a time on its page.
type Controller struct {
	page   page.Page
	rand   sampling.Source
	timing Timing
	logger *slog.Logger

	running       atomic.Bool
	stopRequested atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(p page.Page, r sampling.Source, timing Timing, logger *slog.Logger) *Controller {
	return &Controller{
		page:   p,
		rand:   r,
		timing: timing,
		logger: logger.With(slog.String("component", "controller")),
	}
}

func (c *Controller) Running() bool {
	return c.running.Load()
}

// Stop requests the running attempt to end. The attempt notices the
// request at its next suspension point and ends in Stopped. A request made
// while no attempt is running stops the next one before it touches the
// page, unless ClearStop is called first.
func (c *Controller) Stop() {
	c.stopRequested.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// ClearStop forgets a stop requested while no attempt was running.
func (c *Controller) ClearStop() {
	c.stopRequested.Store(false)
}

// Run performs one attempt with cfg. cfg is cloned, later changes by the
// caller do not affect the attempt. If an attempt is already running Run
// returns ErrAlreadyRunning without touching the page.
func (c *Controller) Run(ctx context.Context, cfg survey.Configuration) (Outcome, error) {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Warn("an attempt is already running")
		return Outcome{}, ErrAlreadyRunning
	}
	defer c.running.Store(false)
	defer c.stopRequested.Store(false)
	if c.stopRequested.Load() {
		c.logger.Info("attempt stopped before it started")
		return Outcome{State: Stopped, Err: errStopped}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	a := &attempt{c: c, cfg: cfg.Clone()}
	state := Preparing
	var err error
	for !state.Terminal() {
		c.logger.Debug(fmt.Sprintf("entering state %s", state), slog.Int("page", a.page))
		switch state {
		case Preparing:
			state, err = a.prepare(ctx)
		case AnsweringPage:
			state, err = a.answerPage(ctx)
		case Advancing:
			state, err = a.advance(ctx)
		case WaitingResult:
			state, err = a.waitResult(ctx)
		}
		if err != nil {
			state, err = c.classify(err)
		}
	}

	outcome := Outcome{State: state, Err: err, Pages: len(a.layout), Answered: a.answered}
	switch state {
	case Succeeded:
		log.Success(ctx, c.logger, "submission succeeded")
	case Stopped:
		c.logger.Info("attempt stopped")
	default:
		c.logger.Error(fmt.Sprintf("attempt ended in state %s: %v", state, err))
	}
	return outcome, nil
}

// classify maps an error raised by a transition to the terminal state.
func (c *Controller) classify(err error) (State, error) {
	switch {
	case errors.Is(err, errBlocked):
		return Blocked, err
	case errors.Is(err, errTimedOut):
		return TimedOut, err
	case c.stopRequested.Load(), errors.Is(err, errStopped),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Stopped, errStopped
	}
	return Failed, err
}

// wait suspends for d unless the attempt is stopped or ctx is done.
func (c *Controller) wait(ctx context.Context, d time.Duration) error {
	if c.stopRequested.Load() {
		return errStopped
	}
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if c.stopRequested.Load() {
		return errStopped
	}
	return ctx.Err()
}

// IsSuccessPage reports whether p shows a submission success state.
func IsSuccessPage(ctx context.Context, p page.Page) (bool, error) {
	doc, err := document(ctx, p)
	if err != nil {
		return false, err
	}
	for _, sel := range successSelectors {
		if doc.Find(sel).Length() > 0 {
			return true, nil
		}
	}
	text, err := p.Text(ctx)
	if err != nil {
		return false, err
	}
	return successText.MatchString(text), nil
}

func isBlocked(ctx context.Context, p page.Page) (bool, error) {
	return p.Visible(ctx, page.First(captchaSelector))
}

func document(ctx context.Context, p page.Page) (*goquery.Document, error) {
	html, err := p.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
