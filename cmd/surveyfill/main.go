/*
surveyfill fills in wjx questionnaires with weighted random answers.

It parses the questions of a questionnaire into a configuration that can be
tuned per question and then submits the questionnaire in a Chrome browser
until the configured number of submissions is reached.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jakopako/surveyfill/internal/config"
	"github.com/jakopako/surveyfill/internal/controller"
	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/output"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/sampling"
	"github.com/jakopako/surveyfill/internal/store"
	"github.com/jakopako/surveyfill/internal/supervisor"
	"github.com/jakopako/surveyfill/internal/types"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

// Globals are the flags shared by all commands.
type Globals struct {
	Config    string `short:"c" help:"The configuration file. Every setting can also be given as SURVEYFILL_* environment variable, see 'surveyfill env'." type:"path" completion:"<file>"`
	Debug     bool   `short:"d" help:"Set log level to 'debug'."`
	Ephemeral bool   `help:"Keep the questions and the run record in memory only."`
}

type cli struct {
	Globals
	Version VersionFlag `short:"v" help:"Print the version and exit."`

	Completion CompletionCmd `cmd:"" help:"Generate an autocompletion file."`

	Parse  ParseCmd  `cmd:"" help:"Parse the questionnaire at the given URL and store its questions."`
	List   ListCmd   `cmd:"" help:"List the stored questions and how they will be answered."`
	Edit   EditCmd   `cmd:"" help:"Show or change the answer settings of a single question."`
	Set    SetCmd    `cmd:"" help:"Change the campaign settings."`
	Export ExportCmd `cmd:"" help:"Export the configuration."`
	Import ImportCmd `cmd:"" help:"Import a configuration, replacing the stored one."`
	Run    RunCmd    `cmd:"" help:"Start a campaign and submit the questionnaire until the target is reached."`
	Resume ResumeCmd `cmd:"" help:"Continue the active campaign, eg after the process was killed."`
	Stop   StopCmd   `cmd:"" help:"Deactivate the stored campaign."`
	Status StatusCmd `cmd:"" help:"Show the state of the stored campaign."`
	Panel  PanelCmd  `cmd:"" help:"Open the interactive control panel."`
	Env    EnvCmd    `cmd:"" help:"List the supported environment variables."`
}

// env bundles what the commands are built from.
type env struct {
	config  *config.Config
	logger  *slog.Logger
	history *log.History
	store   *store.Store
	rand    sampling.Source
}

// setup reads the configuration, initializes logging and opens the store.
// Quiet keeps the log off the terminal.
func (g *Globals) setup(quiet bool) (*env, error) {
	log.Debug = g.Debug
	cfg, err := config.NewConfig(g.Config)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	opts := log.Options{
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
		History:   log.NewHistory(log.DefaultHistorySize),
	}
	if quiet {
		opts.Writer = io.Discard
	}
	// not very nice that the log package contains global state,
	// and that the following function relies on the log.Debug variable being set
	logger := log.InitializeDefaultLogger(opts)

	var st *store.Store
	if g.Ephemeral {
		st = store.NewMemory(logger)
	} else if st, err = store.New(cfg.Store.DBPath, logger); err != nil {
		logger.Error(err.Error())
		return nil, err
	}
	return &env{
		config:  cfg,
		logger:  logger,
		history: opts.History,
		store:   st,
		rand:    sampling.NewSource(),
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error(fmt.Sprintf("error while closing the store: %v", err))
	}
}

func (e *env) supervisor(p page.Page, status chan<- types.RunStatus) *supervisor.Supervisor {
	return supervisor.New(supervisor.Config{
		Store:      e.store,
		Page:       p,
		Controller: controller.New(p, e.rand, e.config.Timing, e.logger),
		Rand:       e.rand,
		Timing:     e.config.Supervisor,
		Logger:     e.logger,
		Status:     status,
	})
}

// openBrowser starts Chrome and loads url unless it is empty.
func (e *env) openBrowser(ctx context.Context, url string) (*page.Chrome, error) {
	chrome, err := page.NewChrome(log.ContextWithLogger(ctx, e.logger), e.config.Browser)
	if err != nil {
		e.logger.Error(fmt.Sprintf("failed to start the browser: %v", err))
		return nil, err
	}
	if url == "" {
		return chrome, nil
	}
	e.logger.Info(fmt.Sprintf("opening %s", url))
	if err := chrome.Navigate(ctx, url); err != nil {
		chrome.Close()
		e.logger.Error(fmt.Sprintf("failed to open %s: %v", url, err))
		return nil, err
	}
	if err := waitReady(ctx, chrome, 15*time.Second); err != nil {
		chrome.Close()
		return nil, err
	}
	return chrome, nil
}

// waitReady polls until the document has loaded. Running into timeout is
// not an error, scripts of some forms keep the page loading forever.
func waitReady(ctx context.Context, p page.Page, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ready, err := p.Ready(ctx)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	slog.Warn(fmt.Sprintf("page did not finish loading within %s", timeout))
	return nil
}

// statusPipe starts the configured status writer. The returned function
// closes the channel and waits for the writer, it must be called once the
// supervisor is done. The channel is nil if no writer is configured, or
// if skipStdout is set and the writer would print to the terminal.
func (e *env) statusPipe(skipStdout bool) (chan types.RunStatus, func(), error) {
	if skipStdout && (e.config.Status.Type == output.STDOUT_WRITER_TYPE || e.config.Status.Type == "") {
		return nil, func() {}, nil
	}
	writer, err := output.NewWriter(&e.config.Status)
	if err != nil {
		e.logger.Error(err.Error())
		return nil, nil, err
	}
	if writer == nil {
		return nil, func() {}, nil
	}
	statusChan := make(chan types.RunStatus)
	done := make(chan struct{})
	go func() {
		defer close(done)
		writer.WriteStatus(statusChan)
	}()
	return statusChan, func() {
		close(statusChan)
		<-done
	}, nil
}

// finish turns the last decision of a campaign into the command result.
func finish(d supervisor.Decision, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if d.Kind == supervisor.Failed && d.State != controller.Stopped {
		return fmt.Errorf("campaign halted (%s): %w", d.State, d.Err)
	}
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name(name),
		kong.Bind(&cli.Globals),
		kong.Vars{
			"version": string(cli.Version),
		})

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
