// Package panel is the interactive terminal control panel. It shows the
// question model, the run status and the log, and triggers everything
// else through its Hooks.
package panel

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/supervisor"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/jakopako/surveyfill/internal/types"
	"github.com/jakopako/surveyfill/internal/utils"
	"github.com/rivo/tview"
)

const (
	mainPage   = "main"
	dialogPage = "dialog"
	titleWidth = 30
)

const helpText = " p parse | s start | x stop | c settings | e export | i import | enter edit question | q quit"

// Hooks are the actions the panel triggers. They are called outside of the
// UI goroutine and may block. Hooks returning a configuration hand back
// the configuration in effect afterwards.
type Hooks struct {
	OnParse          func() (survey.Configuration, error)
	OnStart          func() error
	OnStop           func()
	OnExport         func() (string, error)
	OnImport         func(data string) (survey.Configuration, error)
	OnConfigChange   func(supervisor.Settings) survey.Configuration
	OnQuestionUpdate func(num int, snapshot []byte) (survey.Configuration, error)
}

type Panel struct {
	app     *tview.Application
	pages   *tview.Pages
	table   *tview.Table
	status  *tview.TextView
	logView *tview.TextView
	hooks   Hooks
	history *log.History

	mu     sync.Mutex
	config survey.Configuration
}

// New builds the panel for cfg. If history is set its records are shown
// in the log view.
func New(cfg survey.Configuration, history *log.History, hooks Hooks) *Panel {
	p := &Panel{
		app:     tview.NewApplication(),
		hooks:   hooks,
		history: history,
		config:  cfg.Clone(),
	}

	p.table = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	p.table.SetSelectedFunc(func(row, _ int) { p.editQuestion(row) })
	p.table.SetBorder(true).SetTitle(" questions ")
	fillTable(p.table, p.config)

	p.status = tview.NewTextView().SetText(statusLine(p.config, types.RunStatus{}))
	p.status.SetBorder(true).SetTitle(" status ")

	p.logView = tview.NewTextView().SetScrollable(true).SetMaxLines(log.DefaultHistorySize)
	p.logView.SetBorder(true).SetTitle(" log ")
	if history != nil {
		for _, r := range history.Records() {
			fmt.Fprintln(p.logView, r.String())
		}
	}
	p.logView.ScrollToEnd()
	p.logView.SetChangedFunc(func() { p.app.Draw() })

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.status, 3, 0, false).
		AddItem(p.table, 0, 2, true).
		AddItem(p.logView, 0, 1, false).
		AddItem(tview.NewTextView().SetText(helpText), 1, 0, false)
	p.pages = tview.NewPages().AddPage(mainPage, layout, true, true)
	p.app.SetRoot(p.pages, true).SetInputCapture(p.handleKey)
	return p
}

// Run shows the panel until q is pressed or ctx is done.
func (p *Panel) Run(ctx context.Context) error {
	if p.history != nil {
		unsubscribe := p.history.Subscribe(func(r log.Record) {
			fmt.Fprintln(p.logView, r.String())
		})
		defer unsubscribe()
	}
	stop := context.AfterFunc(ctx, p.app.Stop)
	defer stop()
	return p.app.Run()
}

// SetConfig replaces the displayed configuration.
func (p *Panel) SetConfig(cfg survey.Configuration) {
	p.mu.Lock()
	p.config = cfg.Clone()
	p.mu.Unlock()
	p.app.QueueUpdateDraw(func() {
		fillTable(p.table, cfg)
	})
}

// SetStatus shows the latest run status.
func (p *Panel) SetStatus(s types.RunStatus) {
	cfg := p.currentConfig()
	p.app.QueueUpdateDraw(func() {
		p.status.SetText(statusLine(cfg, s))
	})
}

func (p *Panel) currentConfig() survey.Configuration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Clone()
}

func (p *Panel) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if name, _ := p.pages.GetFrontPage(); name != mainPage {
		if event.Key() == tcell.KeyEscape {
			p.closeDialog()
			return nil
		}
		return event
	}
	switch event.Rune() {
	case 'q':
		p.app.Stop()
	case 'p':
		go func() {
			cfg, err := p.hooks.OnParse()
			if err != nil {
				p.flash(err)
				return
			}
			p.SetConfig(cfg)
		}()
	case 's':
		go func() {
			if err := p.hooks.OnStart(); err != nil {
				p.flash(err)
			}
		}()
	case 'x':
		go p.hooks.OnStop()
	case 'c':
		p.showSettings()
	case 'e':
		go func() {
			data, err := p.hooks.OnExport()
			if err != nil {
				p.flash(err)
				return
			}
			p.app.QueueUpdateDraw(func() { p.showExport(data) })
		}()
	case 'i':
		p.showImport()
	default:
		return event
	}
	return nil
}

// flash shows err in the status box until the next status arrives.
func (p *Panel) flash(err error) {
	p.app.QueueUpdateDraw(func() {
		p.status.SetText(fmt.Sprintf("error: %v", err))
	})
}

func (p *Panel) showDialog(title string, item tview.Primitive) {
	frame := tview.NewFrame(item).AddText(title+" (esc to close)", true, tview.AlignLeft, tcell.ColorBlue)
	p.pages.AddAndSwitchToPage(dialogPage, frame, true)
}

func (p *Panel) closeDialog() {
	p.pages.RemovePage(dialogPage)
	p.pages.SwitchToPage(mainPage)
	p.app.SetFocus(p.table)
}

func (p *Panel) showExport(data string) {
	view := tview.NewTextView().SetText(data).SetScrollable(true)
	p.showDialog("exported configuration", view)
}

func (p *Panel) showImport() {
	form := tview.NewForm()
	form.AddTextArea("configuration", "", 0, 20, 0, nil)
	form.AddButton("import", func() {
		data := form.GetFormItemByLabel("configuration").(*tview.TextArea).GetText()
		go func() {
			cfg, err := p.hooks.OnImport(data)
			p.app.QueueUpdateDraw(func() {
				if err != nil {
					form.SetTitle(fmt.Sprintf(" %v ", err))
					return
				}
				p.closeDialog()
			})
			if err == nil {
				p.SetConfig(cfg)
			}
		}()
	})
	form.AddButton("cancel", p.closeDialog)
	form.SetBorder(true)
	p.showDialog("paste a json configuration", form)
}

func (p *Panel) showSettings() {
	cfg := p.currentConfig()
	form := tview.NewForm().
		AddInputField("target", strconv.Itoa(cfg.TargetNum), 10, tview.InputFieldInteger, nil).
		AddInputField("submit interval min (s)", formatSeconds(cfg.SubmitInterval.MinSeconds), 10, tview.InputFieldFloat, nil).
		AddInputField("submit interval max (s)", formatSeconds(cfg.SubmitInterval.MaxSeconds), 10, tview.InputFieldFloat, nil).
		AddInputField("answer duration min (s)", formatSeconds(cfg.AnswerDurationRange.MinSeconds), 10, tview.InputFieldFloat, nil).
		AddInputField("answer duration max (s)", formatSeconds(cfg.AnswerDurationRange.MaxSeconds), 10, tview.InputFieldFloat, nil)
	form.AddButton("save", func() {
		values := make([]string, form.GetFormItemCount())
		for i := range values {
			values[i] = form.GetFormItem(i).(*tview.InputField).GetText()
		}
		settings, err := parseSettings(values)
		if err != nil {
			form.SetTitle(fmt.Sprintf(" %v ", err))
			return
		}
		p.closeDialog()
		go func() { p.SetConfig(p.hooks.OnConfigChange(settings)) }()
	})
	form.AddButton("cancel", p.closeDialog)
	form.SetBorder(true)
	p.showDialog("campaign settings", form)
}

func (p *Panel) editQuestion(row int) {
	cfg := p.currentConfig()
	if row < 1 || row > len(cfg.Questions) {
		return
	}
	q := cfg.Questions[row-1]
	snapshot, err := survey.Snapshot(&q)
	if err != nil {
		p.flash(err)
		return
	}
	form := tview.NewForm()
	form.AddTextArea("settings", string(snapshot), 0, 20, 0, nil)
	form.AddButton("save", func() {
		data := form.GetFormItemByLabel("settings").(*tview.TextArea).GetText()
		go func() {
			updated, err := p.hooks.OnQuestionUpdate(q.QuestionNum, []byte(data))
			p.app.QueueUpdateDraw(func() {
				if err != nil {
					form.SetTitle(fmt.Sprintf(" %v ", err))
					return
				}
				p.closeDialog()
			})
			if err == nil {
				p.SetConfig(updated)
			}
		}()
	})
	form.AddButton("cancel", p.closeDialog)
	form.SetBorder(true)
	p.showDialog(fmt.Sprintf("question %d: %s", q.QuestionNum, utils.ShortenString(q.Title, titleWidth)), form)
}

// fillTable renders one row per question below a header row.
func fillTable(table *tview.Table, cfg survey.Configuration) {
	table.Clear()
	for c, h := range []string{"#", "type", "title", "answers"} {
		table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tcell.ColorBlue).
			SetSelectable(false))
	}
	for i := range cfg.Questions {
		q := &cfg.Questions[i]
		color := tcell.ColorWhite
		if q.DistributionMode == survey.DistributionCustom {
			color = tcell.ColorOrange
		}
		r := i + 1
		table.SetCell(r, 0, tview.NewTableCell(strconv.Itoa(q.QuestionNum)).SetTextColor(tcell.ColorGreen))
		table.SetCell(r, 1, tview.NewTableCell(string(q.Type)).SetTextColor(color))
		table.SetCell(r, 2, tview.NewTableCell(tview.Escape(utils.ShortenString(q.Title, titleWidth))).SetTextColor(color).SetExpansion(1))
		table.SetCell(r, 3, tview.NewTableCell(tview.Escape(survey.Describe(q))).SetTextColor(color).SetExpansion(1))
	}
	if len(cfg.Questions) > 0 {
		table.Select(1, 0)
	}
}

func statusLine(cfg survey.Configuration, s types.RunStatus) string {
	if s.RunID == "" {
		return fmt.Sprintf("idle | %d questions | target %d", len(cfg.Questions), cfg.TargetNum)
	}
	line := fmt.Sprintf("%s | %d/%d submitted | run %s", s.Phase, s.Completed, s.Target, s.RunID)
	if s.NextURL != "" {
		line += " | next " + s.NextURL
	}
	if s.LastError != "" {
		line += " | last error: " + s.LastError
	}
	return line
}

// parseSettings reads the values of the settings form in order: target,
// submit interval min and max, answer duration min and max.
func parseSettings(values []string) (supervisor.Settings, error) {
	if len(values) != 5 {
		return supervisor.Settings{}, fmt.Errorf("expected 5 values, got %d", len(values))
	}
	target, err := strconv.Atoi(values[0])
	if err != nil {
		return supervisor.Settings{}, fmt.Errorf("invalid target %q", values[0])
	}
	seconds := make([]float64, 4)
	for i, v := range values[1:] {
		if v == "" {
			continue
		}
		if seconds[i], err = strconv.ParseFloat(v, 64); err != nil {
			return supervisor.Settings{}, fmt.Errorf("invalid number of seconds %q", v)
		}
	}
	return supervisor.Settings{
		TargetNum:           target,
		SubmitInterval:      survey.Interval{MinSeconds: seconds[0], MaxSeconds: seconds[1]},
		AnswerDurationRange: survey.Interval{MinSeconds: seconds[2], MaxSeconds: seconds[3]},
	}, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
