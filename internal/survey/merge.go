package survey

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Merge carries the configured distributions of prev over to the freshly
// extracted questions. A previous record is reused when it has the same
// number, type and option count and its title is similar enough, so that
// re-parsing an unchanged (or slightly edited) form keeps the tuning.
func Merge(prev, fresh []Question) []Question {
	byNum := make(map[int]*Question, len(prev))
	for i := range prev {
		byNum[prev[i].QuestionNum] = &prev[i]
	}
	merged := make([]Question, len(fresh))
	for i, f := range fresh {
		merged[i] = f.Clone()
		p, ok := byNum[f.QuestionNum]
		if !ok || p.Type != f.Type || p.OptionCount != f.OptionCount || !similarTitles(p.Title, f.Title) {
			continue
		}
		m := &merged[i]
		m.DistributionMode = p.DistributionMode
		m.Probabilities = cloneSlice(p.Probabilities)
		m.CustomWeights = cloneSlice(p.CustomWeights)
		m.Texts = cloneSlice(p.Texts)
		m.TextProbabilities = cloneSlice(p.TextProbabilities)
		m.RandomMulti = p.RandomMulti
		c := p.Clone()
		m.OptionFillTexts = c.OptionFillTexts
		m.SliderRange = c.SliderRange
		m.SelectionProbabilities = c.SelectionProbabilities
		if c.MultiLimit != nil {
			m.MultiLimit = c.MultiLimit
		}
	}
	return merged
}

func similarTitles(a, b string) bool {
	if a == b {
		return true
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return levenshtein.ComputeDistance(a, b)*4 <= longest
}
