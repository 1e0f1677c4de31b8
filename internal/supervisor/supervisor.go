// Package supervisor owns the campaign: it starts runs, resumes them after
// page loads, schedules the reloads between submissions and persists the
// run record at every transition.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jakopako/surveyfill/internal/controller"
	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/sampling"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/jakopako/surveyfill/internal/types"
)

var (
	// ErrNotConfigured is returned when starting without parsed questions.
	ErrNotConfigured = errors.New("no questions configured, parse the questionnaire first")
	// ErrAlreadyRunning is returned when a campaign or an attempt is active.
	ErrAlreadyRunning = controller.ErrAlreadyRunning
)

// Storage persists the session. Implementations load defaults for missing
// or corrupt data and log failed writes.
type Storage interface {
	LoadConfig() survey.Configuration
	SaveConfig(survey.Configuration)
	LoadRun() survey.RunRecord
	SaveRun(survey.RunRecord)
	ClearRun()
}

// Session is the persisted state the supervisor works on.
type Session struct {
	Config survey.Configuration
	Run    survey.RunRecord
}

// Timing holds the settle delays before a resumed attempt.
type Timing struct {
	SettleReady   time.Duration `yaml:"settle_ready" env:"SETTLE_READY" env-default:"800ms"`
	SettleLoading time.Duration `yaml:"settle_loading" env:"SETTLE_LOADING" env-default:"1500ms"`
}

func DefaultTiming() Timing {
	return Timing{SettleReady: 800 * time.Millisecond, SettleLoading: 1500 * time.Millisecond}
}

// Config wires a Supervisor. Status is optional, if set every transition
// is reported on it and the receiver has to keep up.
type Config struct {
	Store      Storage
	Page       page.Page
	Controller *controller.Controller
	Rand       sampling.Source
	Timing     Timing
	Logger     *slog.Logger
	Status     chan<- types.RunStatus
}

type Supervisor struct {
	store  Storage
	page   page.Page
	ctrl   *controller.Controller
	rand   sampling.Source
	timing Timing
	logger *slog.Logger
	status chan<- types.RunStatus
	now    func() time.Time

	mu           sync.Mutex
	session      Session
	cancelFollow context.CancelFunc
}

// New loads the session from c.Store.
func New(c Config) *Supervisor {
	s := &Supervisor{
		store:  c.Store,
		page:   c.Page,
		ctrl:   c.Controller,
		rand:   c.Rand,
		timing: c.Timing,
		logger: c.Logger.With(slog.String("component", "supervisor")),
		status: c.Status,
		now:    time.Now,
	}
	s.session = Session{Config: c.Store.LoadConfig(), Run: c.Store.LoadRun()}
	return s
}

// Session returns a copy of the current session.
func (s *Supervisor) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{Config: s.session.Config.Clone(), Run: s.session.Run}
}

// Start begins a new campaign on the current page and runs its first
// attempt.
func (s *Supervisor) Start(ctx context.Context) (Decision, error) {
	current, err := s.page.URL(ctx)
	if err != nil {
		return Decision{}, err
	}

	s.mu.Lock()
	if len(s.session.Config.Questions) == 0 {
		s.mu.Unlock()
		s.logger.Error(ErrNotConfigured.Error())
		return Decision{}, ErrNotConfigured
	}
	if s.session.Run.Active || s.ctrl.Running() {
		s.mu.Unlock()
		s.logger.Warn("a campaign is already active")
		return Decision{}, ErrAlreadyRunning
	}
	s.session.Run = survey.NewRunRecord(s.session.Config.TargetNum, stripFragment(current))
	run := s.session.Run
	s.store.SaveRun(run)
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("starting campaign with target %d", run.Target), slog.String("run", run.ID))
	s.emit(types.PhaseStarted, run, "")
	return s.attempt(ctx)
}

// Resume is the check done on every page load. It derives the next step
// from the persisted run record and the freshly loaded page only.
func (s *Supervisor) Resume(ctx context.Context) (Decision, error) {
	s.mu.Lock()
	s.session = Session{Config: s.store.LoadConfig(), Run: s.store.LoadRun()}
	run := s.session.Run
	lost := run.Active && len(s.session.Config.Questions) == 0
	if lost {
		s.session.Run.Active = false
		s.session.Run.LastError = "run record found but no questions configured, parse the questionnaire again"
		run = s.session.Run
		s.store.SaveRun(run)
	}
	s.mu.Unlock()

	if !run.Active {
		if lost {
			s.logger.Warn(run.LastError)
			s.emit(types.PhaseFailed, run, "")
		}
		return Decision{Kind: Idle}, nil
	}

	success, err := controller.IsSuccessPage(ctx, s.page)
	if err != nil {
		return Decision{}, err
	}
	if success && !run.Done() {
		s.logger.Info("page shows a submitted questionnaire, scheduling the next one")
		return s.reload(ctx, run)
	}

	ready, err := s.page.Ready(ctx)
	if err != nil {
		return Decision{}, err
	}
	settle := s.timing.SettleLoading
	if ready {
		settle = s.timing.SettleReady
	}
	if err := sleep(ctx, settle); err != nil {
		return Decision{}, err
	}
	s.logger.Info(fmt.Sprintf("resuming campaign at %d/%d", run.Completed, run.Target), slog.String("run", run.ID))
	return s.attempt(ctx)
}

// Stop ends the campaign: the running attempt is stopped, a pending
// reload is abandoned and the run record is deactivated.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.ctrl.Stop()
	if s.cancelFollow != nil {
		s.cancelFollow()
	}
	s.session.Run.Active = false
	run := s.session.Run
	s.store.SaveRun(run)
	s.mu.Unlock()

	s.logger.Info("campaign stopped")
	s.emit(types.PhaseStopped, run, "")
}

// Reset removes the persisted run record.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Run = survey.RunRecord{}
	s.store.ClearRun()
}

// attempt runs the controller once with a snapshot of the configuration
// and records the outcome.
func (s *Supervisor) attempt(ctx context.Context) (Decision, error) {
	s.mu.Lock()
	s.syncStopped()
	if !s.session.Run.Active {
		s.mu.Unlock()
		s.logger.Info("campaign stopped before the attempt, skipping it")
		return Decision{Kind: Idle}, nil
	}
	// the lock orders this against Stop, a later stop reaches the attempt
	s.ctrl.ClearStop()
	cfg := s.session.Config.Clone()
	run := s.session.Run
	s.store.SaveRun(run)
	s.mu.Unlock()
	s.emit(types.PhaseAttempt, run, "")

	outcome, err := s.ctrl.Run(ctx, cfg)
	if err != nil {
		return Decision{}, err
	}

	s.mu.Lock()
	s.syncStopped()
	if outcome.State != controller.Succeeded {
		s.session.Run.Active = false
		s.session.Run.LastError = outcome.Err.Error()
		run = s.session.Run
		s.store.SaveRun(run)
		s.mu.Unlock()

		phase := types.PhaseFailed
		if outcome.State == controller.Stopped {
			phase = types.PhaseStopped
		} else {
			s.logger.Error(fmt.Sprintf("campaign halted: %v", outcome.Err), slog.String("run", run.ID))
		}
		s.emit(phase, run, "")
		return Decision{Kind: Failed, State: outcome.State, Err: outcome.Err}, nil
	}

	s.session.Run.Completed++
	s.store.SaveRun(s.session.Run)
	if s.session.Run.Done() {
		s.session.Run.Active = false
		s.store.SaveRun(s.session.Run)
	}
	run = s.session.Run
	s.mu.Unlock()

	log.Success(ctx, s.logger, fmt.Sprintf("submitted %d/%d", run.Completed, run.Target), slog.String("run", run.ID))
	s.emit(types.PhaseSubmitted, run, "")
	switch {
	case run.Done():
		log.Success(ctx, s.logger, "target reached", slog.String("run", run.ID))
		s.emit(types.PhaseDone, run, "")
		return Decision{Kind: Done, State: outcome.State}, nil
	case !run.Active:
		// stopped while the last attempt finished
		return Decision{Kind: Idle, State: outcome.State}, nil
	}
	return s.reload(ctx, run)
}

// syncStopped carries a deactivation persisted by another process into
// the session. s.mu must be held.
func (s *Supervisor) syncStopped() {
	stored := s.store.LoadRun()
	if stored.ID == s.session.Run.ID && !stored.Active {
		s.session.Run.Active = false
	}
}

// reload decides the navigation to the next attempt.
func (s *Supervisor) reload(ctx context.Context, run survey.RunRecord) (Decision, error) {
	s.mu.Lock()
	interval := s.session.Config.SubmitInterval
	s.mu.Unlock()

	base := run.EntryURL
	if base == "" {
		current, err := s.page.URL(ctx)
		if err != nil {
			return Decision{}, err
		}
		base = stripFragment(current)
	}
	next, err := reloadURL(base, s.now())
	if err != nil {
		return Decision{}, err
	}
	delay := submitDelay(s.rand, interval)
	s.logger.Info(fmt.Sprintf("reloading in %.1fs to continue", delay.Seconds()), slog.String("run", run.ID))
	s.emit(types.PhaseWaiting, run, next)
	return Decision{Kind: Reload, URL: next, Delay: delay, State: controller.Succeeded}, nil
}

func (s *Supervisor) emit(phase types.RunPhase, run survey.RunRecord, next string) {
	if s.status == nil {
		return
	}
	s.status <- types.RunStatus{
		RunID:     run.ID,
		Phase:     phase,
		Active:    run.Active,
		Completed: run.Completed,
		Target:    run.Target,
		LastError: run.LastError,
		NextURL:   next,
		Time:      s.now().UTC(),
	}
}

// submitDelay draws the pause between two submissions.
func submitDelay(r sampling.Source, i survey.Interval) time.Duration {
	lo := max(0, i.MinSeconds)
	hi := max(lo, i.MaxSeconds)
	seconds := sampling.Uniform(r, lo, hi)
	return time.Duration(seconds * float64(time.Second))
}

// reloadURL adds a cache busting parameter to base. The rest of the query
// is kept as it is.
func reloadURL(base string, now time.Time) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid entry url %q: %w", base, err)
	}
	params := []string{}
	for _, p := range strings.Split(u.RawQuery, "&") {
		if p == "" || p == "r" || strings.HasPrefix(p, "r=") {
			continue
		}
		params = append(params, p)
	}
	params = append(params, "r="+strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = strings.Join(params, "&")
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func stripFragment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
