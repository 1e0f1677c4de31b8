package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jakopako/surveyfill/internal/panel"
	"github.com/jakopako/surveyfill/internal/supervisor"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/jakopako/surveyfill/internal/types"
	"golang.org/x/sync/errgroup"
)

type RunCmd struct {
	URL string `short:"u" long:"url" help:"Open this URL instead of the one the questions were parsed from."`
}

func (rc *RunCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	url := rc.URL
	if url == "" {
		url = e.store.LoadConfig().URL
	}
	if url == "" {
		e.logger.Error(supervisor.ErrNotConfigured.Error())
		return supervisor.ErrNotConfigured
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chrome, err := e.openBrowser(ctx, url)
	if err != nil {
		return err
	}
	defer chrome.Close()
	status, closeStatus, err := e.statusPipe(false)
	if err != nil {
		return err
	}
	defer closeStatus()

	sup := e.supervisor(chrome, status)
	defer stopOnCancel(ctx, sup)()

	d, err := sup.Start(ctx)
	if err != nil {
		return err
	}
	return finish(sup.Follow(ctx, d))
}

type ResumeCmd struct{}

func (rc *ResumeCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	run := e.store.LoadRun()
	if !run.Active {
		e.logger.Info("no active campaign to resume")
		return nil
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chrome, err := e.openBrowser(ctx, run.EntryURL)
	if err != nil {
		return err
	}
	defer chrome.Close()
	status, closeStatus, err := e.statusPipe(false)
	if err != nil {
		return err
	}
	defer closeStatus()

	sup := e.supervisor(chrome, status)
	defer stopOnCancel(ctx, sup)()

	d, err := sup.Resume(ctx)
	if err != nil {
		return err
	}
	return finish(sup.Follow(ctx, d))
}

type PanelCmd struct {
	URL string `short:"u" long:"url" help:"Open this URL instead of the one the questions were parsed from."`
}

func (pc *PanelCmd) Run(g *Globals) error {
	e, err := g.setup(true)
	if err != nil {
		return err
	}
	defer e.close()

	url := pc.URL
	if url == "" {
		url = e.store.LoadRun().EntryURL
	}
	if url == "" {
		url = e.store.LoadConfig().URL
	}
	if url == "" {
		return errors.New("no questionnaire known yet, pass its URL with --url")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chrome, err := e.openBrowser(ctx, url)
	if err != nil {
		return err
	}
	defer chrome.Close()
	writerChan, closeWriter, err := e.statusPipe(true)
	if err != nil {
		return err
	}
	defer closeWriter()

	status := make(chan types.RunStatus)
	sup := e.supervisor(chrome, status)
	jobs := &campaigns{}
	campaign := func(first func(context.Context) (supervisor.Decision, error)) error {
		return jobs.do(func() error {
			d, err := first(ctx)
			if err != nil {
				return err
			}
			return finish(sup.Follow(ctx, d))
		})
	}

	p := panel.New(sup.Session().Config, e.history, panel.Hooks{
		OnParse: func() (survey.Configuration, error) {
			_, err := sup.Parse(ctx)
			return sup.Session().Config, err
		},
		OnStart: func() error { return campaign(sup.Start) },
		OnStop: func() {
			jobs.do(func() error {
				sup.Stop()
				return nil
			})
		},
		OnExport: func() (string, error) {
			data, err := sup.Export(survey.FormatJSON)
			return string(data), err
		},
		OnImport: func(data string) (survey.Configuration, error) {
			err := sup.Import([]byte(data), survey.FormatJSON)
			return sup.Session().Config, err
		},
		OnConfigChange: sup.UpdateConfig,
		OnQuestionUpdate: func(num int, snapshot []byte) (survey.Configuration, error) {
			err := sup.UpdateQuestion(num, snapshot)
			return sup.Session().Config, err
		},
	})

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for s := range status {
			if ctx.Err() == nil {
				p.SetStatus(s)
			}
			if writerChan != nil {
				writerChan <- s
			}
		}
	}()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// quitting the panel ends everything else
		defer cancel()
		return p.Run(egCtx)
	})
	eg.Go(func() error {
		err := campaign(sup.Resume)
		if err != nil && !errors.Is(err, errClosed) {
			e.logger.Error(fmt.Sprintf("%v", err))
		}
		return nil
	})
	err = eg.Wait()
	jobs.wait()
	close(status)
	<-forwarded
	return err
}

// stopOnCancel stops the campaign once ctx is done, eg on ctrl-c. The
// returned function must be called before the status channel is closed,
// it waits for a stop that is under way.
func stopOnCancel(ctx context.Context, sup *supervisor.Supervisor) func() {
	stopped := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(stopped)
		sup.Stop()
	})
	return func() {
		if !stop() {
			<-stopped
		}
	}
}

var errClosed = errors.New("panel closed")

// campaigns tracks the supervisor calls started from the panel so that the
// status channel is only closed once all of them have returned.
type campaigns struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func (c *campaigns) do(fn func() error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()
	return fn()
}

// wait rejects further calls and waits for the running ones.
func (c *campaigns) wait() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}
