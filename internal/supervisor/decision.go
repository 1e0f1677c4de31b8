package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jakopako/surveyfill/internal/controller"
)

type DecisionKind int

const (
	// Idle means there is nothing to do until the next start.
	Idle DecisionKind = iota
	// Reload means the next attempt starts after navigating to URL once
	// Delay has passed.
	Reload
	// Done means the target has been reached.
	Done
	// Failed means the last attempt did not succeed and the campaign has
	// been deactivated.
	Failed
)

func (k DecisionKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Reload:
		return "reload"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "invalid"
}

// Decision is what the supervisor wants to happen next.
type Decision struct {
	Kind  DecisionKind
	URL   string
	Delay time.Duration
	// State is the terminal state of the attempt the decision follows, if any.
	State controller.State
	Err   error
}

// Follow carries out reload decisions in process: it waits, navigates and
// resumes until a decision other than Reload comes up, the context is done
// or Stop is called.
func (s *Supervisor) Follow(ctx context.Context, d Decision) (Decision, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancelFollow = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancelFollow = nil
		s.mu.Unlock()
	}()

	for d.Kind == Reload {
		if err := sleep(ctx, d.Delay); err != nil {
			return s.interrupted(err)
		}
		if !s.Session().Run.Active {
			return Decision{Kind: Idle}, nil
		}
		if err := s.page.Navigate(ctx, d.URL); err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx.Err())
			}
			return Decision{}, fmt.Errorf("failed to load %s: %w", d.URL, err)
		}
		var err error
		if d, err = s.Resume(ctx); err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx.Err())
			}
			return d, err
		}
	}
	return d, nil
}

// interrupted maps a cancellation during Follow to Idle if it was caused
// by Stop.
func (s *Supervisor) interrupted(err error) (Decision, error) {
	if errors.Is(err, context.Canceled) && !s.Session().Run.Active {
		return Decision{Kind: Idle}, nil
	}
	return Decision{}, err
}
