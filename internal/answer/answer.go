// Package answer synthesizes the concrete answer for a single question
// from its configured distribution and the facts read from the live page.
package answer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jakopako/surveyfill/internal/sampling"
	"github.com/jakopako/surveyfill/internal/survey"
)

var lngLatPattern = regexp.MustCompile(`^\s*-?\d+(?:\.\d+)?\s*,\s*-?\d+(?:\.\d+)?\s*$`)

// An Answer is the action to apply to one question. Which fields are set
// depends on Type:
//
//   - single, dropdown, scale, unknown: Indices holds one option index
//   - multiple: Indices holds the selected options in click order
//   - matrix: Rows[i] is the column chosen for row i+1
//   - reorder: Sequence holds the items to activate one after the other
//   - text, location: Text and optionally Coordinates
//   - slider: Score
//
// An Answer without any of those is a no-op, eg because the page shows no
// options for the question.
type Answer struct {
	QuestionNum int
	Type        survey.QuestionType
	Indices     []int
	Rows        []int
	Sequence    []int
	Text        string
	Coordinates string
	Score       int
	// FillTexts maps selected option indices to the text of their free
	// text sub-field.
	FillTexts map[int]string
}

// Empty reports whether applying a is a no-op.
func (a Answer) Empty() bool {
	switch a.Type {
	case survey.TypeText, survey.TypeLocation, survey.TypeSlider:
		return false
	case survey.TypeMatrix:
		return len(a.Rows) == 0
	case survey.TypeReorder:
		return len(a.Sequence) == 0
	}
	return len(a.Indices) == 0
}

// EffectiveType returns the type a question is answered as. Questions
// without a configured record fall back to the type code found in the DOM.
func EffectiveType(q *survey.Question, live survey.Live) survey.QuestionType {
	if q != nil && q.Type != "" {
		return q.Type
	}
	if live.TypeCode == "" {
		return survey.TypeSingle
	}
	return survey.TypeFromCode(live.TypeCode)
}

// Generate computes the answer for question num. q may be nil if nothing
// is configured for the question.
func Generate(r sampling.Source, num int, q *survey.Question, live survey.Live, logger *slog.Logger) Answer {
	if q == nil {
		q = &survey.Question{QuestionNum: num, DistributionMode: survey.DistributionRandom}
	}
	a := Answer{QuestionNum: num, Type: EffectiveType(q, live)}
	switch a.Type {
	case survey.TypeText, survey.TypeLocation:
		a.Text, a.Coordinates = text(r, q)
	case survey.TypeSingle:
		a.Indices = single(r, q, live.Options)
	case survey.TypeDropdown:
		a.Indices = single(r, q, len(live.DropdownValues))
	case survey.TypeScale:
		a.Indices = single(r, q, live.ScaleItems)
	case survey.TypeMultiple:
		a.Indices = multiple(r, q, live.Options)
	case survey.TypeMatrix:
		a.Rows = matrix(r, q, live)
	case survey.TypeSlider:
		rng := q.Slider()
		a.Score = sampling.RandomInt(r, rng.Min, rng.Max)
	case survey.TypeReorder:
		a.Sequence = reorder(r, live.ReorderItems)
	default:
		logger.Warn(fmt.Sprintf("question %d has unknown type %q, answering randomly", num, a.Type))
		a.Indices = single(r, q, live.Options)
	}
	a.FillTexts = fillTexts(q, a)
	return a
}

// pick draws one index of n options: configured custom weights first, then
// probabilities, then uniformly. The result is clamped to the options.
func pick(r sampling.Source, q *survey.Question, n int) int {
	var idx int
	switch {
	case q.DistributionMode == survey.DistributionCustom && sampling.Usable(q.CustomWeights):
		idx = sampling.WeightedIndex(r, q.CustomWeights)
	case len(q.Probabilities) > 0:
		idx = sampling.WeightedIndex(r, q.Probabilities)
	default:
		idx = sampling.RandomInt(r, 0, n-1)
	}
	return sampling.Clamp(idx, 0, n-1)
}

func single(r sampling.Source, q *survey.Question, n int) []int {
	if n <= 0 {
		return nil
	}
	return []int{pick(r, q, n)}
}

func multiple(r sampling.Source, q *survey.Question, n int) []int {
	if n <= 0 {
		return nil
	}
	limit := n
	if q.MultiLimit != nil {
		limit = sampling.Clamp(*q.MultiLimit, 1, n)
	}
	if q.RandomMulti || !q.SelectionProbabilities.Configured() {
		count := sampling.RandomInt(r, 1, limit)
		return sampling.Distinct(r, count, n)
	}

	selected := []int{}
	for i, p := range q.SelectionProbabilities.Values {
		if r.Float64() < p/100 && i < n {
			selected = append(selected, i)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, sampling.RandomInt(r, 0, n-1))
	}
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func matrix(r sampling.Source, q *survey.Question, live survey.Live) []int {
	columns := live.MatrixColumns
	if columns == 0 {
		columns = q.OptionCount
	}
	if live.MatrixRows == 0 || columns == 0 {
		return nil
	}
	rows := make([]int, live.MatrixRows)
	for i := range rows {
		rows[i] = pick(r, q, columns)
	}
	return rows
}

// reorder returns the items to activate in order. Every activation moves
// the item into the next free slot, so drawing from the remaining
// positions yields a uniform permutation.
func reorder(r sampling.Source, n int) []int {
	if n <= 0 {
		return nil
	}
	seq := make([]int, n)
	for i := range seq {
		seq[i] = sampling.RandomInt(r, i, n-1)
	}
	return seq
}

// text picks one of the configured candidates. A candidate of the form
// "text|lng,lat" is split into the visible text and its coordinates.
func text(r sampling.Source, q *survey.Question) (string, string) {
	candidates := []string{}
	for _, t := range q.Texts {
		if t != "" {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = survey.DefaultTexts
	}

	selected := candidates[0]
	if len(candidates) > 1 {
		var idx int
		if len(q.TextProbabilities) > 0 {
			idx = sampling.WeightedIndex(r, q.TextProbabilities)
		} else {
			idx = sampling.RandomInt(r, 0, len(candidates)-1)
		}
		if idx >= 0 && idx < len(candidates) {
			selected = candidates[idx]
		}
	}

	display, coords, found := strings.Cut(selected, "|")
	if found && lngLatPattern.MatchString(coords) {
		return display, strings.TrimSpace(coords)
	}
	return selected, ""
}

func fillTexts(q *survey.Question, a Answer) map[int]string {
	if a.Type == survey.TypeScale || len(a.Indices) == 0 {
		return nil
	}
	var texts map[int]string
	for _, idx := range a.Indices {
		if t, ok := q.FillText(idx); ok {
			if texts == nil {
				texts = map[int]string{}
			}
			texts[idx] = t
		}
	}
	return texts
}
