package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/answer"
	"github.com/jakopako/surveyfill/internal/extract"
	"github.com/jakopako/surveyfill/internal/page"
	"github.com/jakopako/surveyfill/internal/sampling"
	"github.com/jakopako/surveyfill/internal/survey"
)

// attempt carries the state of one Run between transitions.
type attempt struct {
	c        *Controller
	cfg      survey.Configuration
	layout   []extract.Page
	page     int
	answered int
}

func (a *attempt) prepare(ctx context.Context) (State, error) {
	p := a.c.page
	doc, err := document(ctx, p)
	if err != nil {
		return Failed, err
	}

	dismissed := 0
	buttons := doc.Find(dismissSelector)
	for i := range buttons.Length() {
		if strings.Contains(buttons.Eq(i).Text(), dismissText) {
			a.c.logger.Info("dismissing resume dialog")
			if err := p.Click(ctx, page.Target{Selector: dismissSelector, Index: i}); err != nil {
				return Failed, err
			}
			dismissed++
		}
	}
	if buttons.Length() > 0 {
		if err := a.c.wait(ctx, a.c.timing.Dismiss); err != nil {
			return Stopped, err
		}
	}

	if dismissed > 0 {
		if doc, err = document(ctx, p); err != nil {
			return Failed, err
		}
	}
	candidates := doc.Find(startSelector)
	for i := range candidates.Length() {
		if strings.Contains(strings.TrimSpace(candidates.Eq(i).Text()), startText) {
			a.c.logger.Info("clicking start button")
			if err := p.Click(ctx, page.Target{Selector: startSelector, Index: i}); err != nil {
				return Failed, err
			}
			if err := a.c.wait(ctx, a.c.timing.StartClick); err != nil {
				return Stopped, err
			}
			break
		}
	}
	if err := a.c.wait(ctx, a.c.timing.Settle); err != nil {
		return Stopped, err
	}

	if doc, err = document(ctx, p); err != nil {
		return Failed, err
	}
	if a.layout, err = extract.Layout(doc); err != nil {
		return Failed, err
	}
	return AnsweringPage, nil
}

func (a *attempt) answerPage(ctx context.Context) (State, error) {
	questions := a.layout[a.page].Questions
	a.c.logger.Info(fmt.Sprintf("answering page %d of %d", a.page+1, len(a.layout)), slog.Int("questions", len(questions)))
	for _, num := range questions {
		if a.c.stopRequested.Load() {
			return Stopped, errStopped
		}
		if err := a.answer(ctx, num); err != nil {
			if !errors.Is(err, page.ErrNotFound) {
				return Failed, fmt.Errorf("failed to answer question %d: %w", num, err)
			}
			a.c.logger.Warn(fmt.Sprintf("skipping rest of question %d: %v", num, err))
		}
		a.answered++
		delay := sampling.Uniform(a.c.rand, float64(a.c.timing.QuestionDelayMin), float64(a.c.timing.QuestionDelayMax))
		if err := a.c.wait(ctx, time.Duration(delay)); err != nil {
			return Stopped, err
		}
	}
	return Advancing, nil
}

func (a *attempt) advance(ctx context.Context) (State, error) {
	if err := a.c.wait(ctx, a.c.timing.PreAdvance); err != nil {
		return Stopped, err
	}
	doc, err := document(ctx, a.c.page)
	if err != nil {
		return Failed, err
	}
	switch {
	case doc.Find(nextSelectorMain).Length() > 0:
		err = a.c.page.Click(ctx, page.First(nextSelectorMain))
	case doc.Find(nextSelectorAlt).Length() > 0:
		err = a.c.page.Click(ctx, page.First(nextSelectorAlt))
	default:
		a.c.logger.Warn("next button not found, probably on the submit page already")
	}
	if err != nil {
		return Failed, err
	}
	if err := a.c.wait(ctx, a.c.timing.PostAdvance); err != nil {
		return Stopped, err
	}
	a.page++
	if a.page < len(a.layout) {
		return AnsweringPage, nil
	}
	return WaitingResult, nil
}

func (a *attempt) waitResult(ctx context.Context) (State, error) {
	if err := a.simulateDuration(ctx); err != nil {
		return Stopped, err
	}
	start := time.Now()
	for time.Since(start) < a.c.timing.ResultTimeout {
		if a.c.stopRequested.Load() {
			return Stopped, errStopped
		}
		blocked, err := isBlocked(ctx, a.c.page)
		if err != nil {
			return Failed, err
		}
		if blocked {
			return Blocked, errBlocked
		}
		success, err := IsSuccessPage(ctx, a.c.page)
		if err != nil {
			return Failed, err
		}
		if success {
			return Succeeded, nil
		}
		if err := a.c.wait(ctx, a.c.timing.Poll); err != nil {
			return Stopped, err
		}
	}
	return TimedOut, errTimedOut
}

func (a *attempt) simulateDuration(ctx context.Context) error {
	r := a.cfg.AnswerDurationRange
	lo := max(0, r.MinSeconds)
	hi := max(lo, r.MaxSeconds)
	if hi <= 0 {
		return nil
	}
	seconds := sampling.Uniform(a.c.rand, lo, hi)
	a.c.logger.Info(fmt.Sprintf("simulating an answer duration of %.1fs", seconds))
	return a.c.wait(ctx, time.Duration(seconds*float64(time.Second)))
}

// answer generates and applies the answer of question num against the
// current state of the page.
func (a *attempt) answer(ctx context.Context, num int) error {
	doc, err := document(ctx, a.c.page)
	if err != nil {
		return err
	}
	live := extract.Probe(doc, num)
	q, _ := a.cfg.Question(num)
	ans := answer.Generate(a.c.rand, num, q, live, a.c.logger)
	if ans.Empty() {
		a.c.logger.Debug(fmt.Sprintf("nothing to answer for question %d", num))
		return nil
	}
	a.c.logger.Debug(fmt.Sprintf("answering question %d", num), slog.String("type", string(ans.Type)))
	return apply(ctx, a.c.page, doc, ans, live)
}

func apply(ctx context.Context, p page.Page, doc *goquery.Document, ans answer.Answer, live survey.Live) error {
	num := ans.QuestionNum
	switch ans.Type {
	case survey.TypeText, survey.TypeLocation:
		input := page.First(extract.InputSelector(num))
		if ans.Coordinates != "" {
			if err := p.SetAttr(ctx, input, "lnglat", ans.Coordinates); err != nil {
				return err
			}
		}
		return p.SetValue(ctx, input, ans.Text)
	case survey.TypeDropdown:
		value := live.DropdownValues[ans.Indices[0]]
		if err := p.SetValue(ctx, page.First(extract.InputSelector(num)), value); err != nil {
			return err
		}
	case survey.TypeScale:
		return p.Click(ctx, page.Target{Selector: extract.ScaleItemSelector(num), Index: ans.Indices[0]})
	case survey.TypeMatrix:
		for row, col := range ans.Rows {
			if err := p.Click(ctx, page.First(extract.MatrixCellSelector(num, row+1, col))); err != nil {
				return err
			}
		}
		return nil
	case survey.TypeSlider:
		return p.SetValue(ctx, page.First(extract.InputSelector(num)), strconv.Itoa(ans.Score))
	case survey.TypeReorder:
		for _, idx := range ans.Sequence {
			if err := p.Click(ctx, page.Target{Selector: extract.ReorderItemSelector(num), Index: idx}); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, idx := range ans.Indices {
			if err := p.Click(ctx, page.Target{Selector: extract.OptionSelector(num), Index: idx}); err != nil {
				return err
			}
		}
	}
	for _, idx := range ans.Indices {
		if text, ok := ans.FillTexts[idx]; ok {
			if err := fillText(ctx, p, doc, num, idx, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillText writes text into the free text input of an option, falling back
// to the shared "other" input. The first visible candidate wins.
func fillText(ctx context.Context, p page.Page, doc *goquery.Document, num, option int, text string) error {
	selector := extract.OptionTextInputSelector(num, option)
	n := doc.Find(selector).Length()
	if n == 0 {
		selector = extract.OtherInputSelector(num)
		n = doc.Find(selector).Length()
	}
	if n == 0 {
		return nil
	}
	target := page.Target{Selector: selector}
	for i := range n {
		candidate := page.Target{Selector: selector, Index: i}
		visible, err := p.Visible(ctx, candidate)
		if err != nil {
			return err
		}
		if visible {
			target = candidate
			break
		}
	}
	return p.SetValue(ctx, target, text)
}
