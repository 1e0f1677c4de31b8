package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakopako/surveyfill/internal/config"
	"github.com/jakopako/surveyfill/internal/fetch"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/supervisor"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/jakopako/surveyfill/internal/utils"
	"github.com/olekukonko/tablewriter"
)

const titleWidth = 40

type ParseCmd struct {
	URL    string `short:"u" long:"url" help:"The URL of the questionnaire." required:""`
	Static bool   `short:"s" help:"Fetch the page without a browser. Only works for questionnaires that are rendered on the server."`
}

func (pc *ParseCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()

	var p page.Page
	if pc.Static {
		html, err := fetch.NewStaticFetcher(e.config.Browser.UserAgent).Fetch(ctx, pc.URL)
		if err != nil {
			e.logger.Error(fmt.Sprintf("error while fetching %s: %v", pc.URL, err))
			return err
		}
		p = page.NewMock(pc.URL, html)
	} else {
		chrome, err := e.openBrowser(ctx, pc.URL)
		if err != nil {
			return err
		}
		defer chrome.Close()
		p = chrome
	}

	questions, err := e.supervisor(p, nil).Parse(ctx)
	if err != nil {
		return err
	}
	return printQuestions(os.Stdout, questions)
}

type ListCmd struct{}

func (lc *ListCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.store.LoadConfig()
	if len(cfg.Questions) == 0 {
		e.logger.Info("no questions stored, run 'surveyfill parse' first")
		return nil
	}
	fmt.Printf("%s\ntarget: %d, submit interval: %gs-%gs, answer duration: %gs-%gs\n",
		cfg.URL, cfg.TargetNum,
		cfg.SubmitInterval.MinSeconds, cfg.SubmitInterval.MaxSeconds,
		cfg.AnswerDurationRange.MinSeconds, cfg.AnswerDurationRange.MaxSeconds)
	return printQuestions(os.Stdout, cfg.Questions)
}

func printQuestions(w io.Writer, questions []survey.Question) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Type", "Title", "Answers"})
	for i := range questions {
		q := &questions[i]
		row := []string{strconv.Itoa(q.QuestionNum), string(q.Type), utils.ShortenString(q.Title, titleWidth), survey.Describe(q)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

type EditCmd struct {
	Question int    `arg:"" help:"The number of the question."`
	Set      string `short:"s" help:"Apply the settings in the given JSON file, '-' reads from stdin. Without this flag the current settings are printed."`
}

func (ec *EditCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	sup := e.supervisor(nil, nil)

	if ec.Set == "" {
		cfg := sup.Session().Config
		q, ok := cfg.Question(ec.Question)
		if !ok {
			return fmt.Errorf("question %d not found", ec.Question)
		}
		snapshot, err := survey.Snapshot(q)
		if err != nil {
			return err
		}
		fmt.Println(string(snapshot))
		return nil
	}

	data, err := readInput(ec.Set)
	if err != nil {
		return err
	}
	if err := sup.UpdateQuestion(ec.Question, data); err != nil {
		e.logger.Error(err.Error())
		return err
	}
	e.logger.Info(fmt.Sprintf("updated question %d", ec.Question))
	return nil
}

// SetCmd changes the given settings only, negative values keep the
// current ones.
type SetCmd struct {
	Target      int     `short:"t" default:"-1" help:"The number of submissions."`
	SubmitMin   float64 `default:"-1" help:"The minimum pause between two submissions in seconds."`
	SubmitMax   float64 `default:"-1" help:"The maximum pause between two submissions in seconds."`
	DurationMin float64 `default:"-1" help:"The minimum time spent on one questionnaire in seconds."`
	DurationMax float64 `default:"-1" help:"The maximum time spent on one questionnaire in seconds."`
}

func (sc *SetCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	sup := e.supervisor(nil, nil)
	updated := sup.UpdateConfig(sc.apply(sup.Session().Config))
	e.logger.Info(fmt.Sprintf("target: %d, submit interval: %gs-%gs, answer duration: %gs-%gs",
		updated.TargetNum,
		updated.SubmitInterval.MinSeconds, updated.SubmitInterval.MaxSeconds,
		updated.AnswerDurationRange.MinSeconds, updated.AnswerDurationRange.MaxSeconds))
	return nil
}

func (sc *SetCmd) apply(cfg survey.Configuration) supervisor.Settings {
	s := supervisor.Settings{
		TargetNum:           cfg.TargetNum,
		SubmitInterval:      cfg.SubmitInterval,
		AnswerDurationRange: cfg.AnswerDurationRange,
	}
	if sc.Target >= 0 {
		s.TargetNum = sc.Target
	}
	if sc.SubmitMin >= 0 {
		s.SubmitInterval.MinSeconds = sc.SubmitMin
	}
	if sc.SubmitMax >= 0 {
		s.SubmitInterval.MaxSeconds = sc.SubmitMax
	}
	if sc.DurationMin >= 0 {
		s.AnswerDurationRange.MinSeconds = sc.DurationMin
	}
	if sc.DurationMax >= 0 {
		s.AnswerDurationRange.MaxSeconds = sc.DurationMax
	}
	return s
}

type ExportCmd struct {
	Format string `short:"f" default:"json" enum:"json,yaml" help:"The format of the export (json, yaml)."`
	Output string `short:"o" help:"Write the configuration to this file instead of stdout." type:"path" completion:"<file>"`
}

func (ec *ExportCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	data, err := e.supervisor(nil, nil).Export(survey.Format(ec.Format))
	if err != nil {
		e.logger.Error(err.Error())
		return err
	}
	if ec.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(ec.Output, data, 0644); err != nil {
		e.logger.Error(fmt.Sprintf("error writing to file: %v", err))
		return err
	}
	e.logger.Info(fmt.Sprintf("successfully wrote configuration to file %s", ec.Output))
	return nil
}

type ImportCmd struct {
	File   string `arg:"" help:"The configuration file, '-' reads from stdin." completion:"<file>"`
	Format string `short:"f" help:"The format of the file (json, yaml). Derived from the file extension if not set."`
}

func (ic *ImportCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	data, err := readInput(ic.File)
	if err != nil {
		return err
	}
	return e.supervisor(nil, nil).Import(data, formatOf(ic.File, ic.Format))
}

func formatOf(file, format string) survey.Format {
	if format != "" {
		return survey.Format(format)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		return survey.FormatYAML
	}
	return survey.FormatJSON
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

type StopCmd struct {
	Clear bool `help:"Also remove the run record."`
}

func (sc *StopCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	status, closeStatus, err := e.statusPipe(false)
	if err != nil {
		return err
	}
	sup := e.supervisor(nil, status)
	sup.Stop()
	if sc.Clear {
		sup.Reset()
	}
	closeStatus()
	return nil
}

type StatusCmd struct{}

func (sc *StatusCmd) Run(g *Globals) error {
	e, err := g.setup(false)
	if err != nil {
		return err
	}
	defer e.close()
	return printRun(os.Stdout, e.store.LoadRun())
}

func printRun(w io.Writer, run survey.RunRecord) error {
	if run.ID == "" {
		_, err := fmt.Fprintln(w, "no campaign started yet")
		return err
	}
	updated := ""
	if !run.UpdatedAt.IsZero() {
		updated = run.UpdatedAt.Local().Format("2006-01-02 15:04:05")
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Active", "Progress", "Entry URL", "Last Error", "Updated"})
	if err := table.Append([]string{run.ID, strconv.FormatBool(run.Active), fmt.Sprintf("%d/%d", run.Completed, run.Target), run.EntryURL, run.LastError, updated}); err != nil {
		return err
	}
	return table.Render()
}

type EnvCmd struct{}

func (ec *EnvCmd) Run() error {
	fmt.Println(config.Usage())
	return nil
}
