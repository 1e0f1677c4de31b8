// Package extract turns a rendered questionnaire into the ordered list of
// question records and reads the live facts of single questions at answer
// time.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/survey"
)

// ErrExtraction is returned if the page holds no questionnaire or no
// recognizable questions.
var ErrExtraction = errors.New("extraction failed")

var topicPattern = regexp.MustCompile(`^\d+$`)

var titleSelectors = []string{".topichtml", ".field-label", ".topicname", "h2", "h3"}

// FromHTML parses htmlStr and extracts its questions.
func FromHTML(htmlStr string) ([]survey.Question, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}
	return Questions(doc)
}

// Questions extracts all questions of doc, sorted by question number.
func Questions(doc *goquery.Document) ([]survey.Question, error) {
	root := doc.Find(RootSelector).First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("%w: question area %s not found", ErrExtraction, RootSelector)
	}

	questions := []survey.Question{}
	for pageIndex, page := range pages(root) {
		page.Find(QuestionSelector).Each(func(_ int, container *goquery.Selection) {
			num, ok := topicNumber(container)
			if !ok {
				return
			}
			questions = append(questions, question(doc, container, num, pageIndex))
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions found, is this a questionnaire page?", ErrExtraction)
	}

	slices.SortStableFunc(questions, func(a, b survey.Question) int {
		return a.QuestionNum - b.QuestionNum
	})
	return questions, nil
}

func question(doc *goquery.Document, container *goquery.Selection, num, pageIndex int) survey.Question {
	baseType := survey.TypeFromCode(container.AttrOr("type", "0"))
	isLocation := baseType == survey.TypeText && isLocationQuestion(container)
	qType := baseType
	if isLocation {
		qType = survey.TypeLocation
	}

	labels := optionTexts(doc, num, baseType)
	q := survey.Question{
		QuestionNum:      num,
		PageIndex:        pageIndex,
		Title:            title(container, num),
		Type:             qType,
		OptionCount:      len(labels),
		OptionLabels:     labels,
		DistributionMode: survey.DistributionRandom,
		IsLocation:       isLocation,
	}

	if fillable := fillableIndices(container, baseType, len(labels)); len(fillable) > 0 {
		q.FillableOptionIndices = fillable
		q.OptionFillTexts = make([]*string, len(labels))
	}

	switch qType {
	case survey.TypeText, survey.TypeLocation:
		q.Texts = slices.Clone(survey.DefaultTexts)
	case survey.TypeMultiple:
		q.RandomMulti = true
		if limit, ok := multiLimit(container); ok {
			q.MultiLimit = &limit
		}
	case survey.TypeMatrix:
		rows, columns := matrixInfo(doc, num)
		q.MatrixRows = rows
		q.OptionLabels = columns
		q.OptionCount = len(columns)
	case survey.TypeSlider:
		r := survey.DefaultSliderRange
		q.SliderRange = &r
		q.OptionCount = 0
	}
	return q
}

// pages returns the page containers below root, or root itself if the
// questionnaire is not paginated.
func pages(root *goquery.Selection) []*goquery.Selection {
	fieldsets := root.Find(PageSelector)
	if fieldsets.Length() == 0 {
		return []*goquery.Selection{root}
	}
	result := []*goquery.Selection{}
	fieldsets.Each(func(_ int, s *goquery.Selection) {
		result = append(result, s)
	})
	return result
}

func topicNumber(container *goquery.Selection) (int, bool) {
	topic, ok := container.Attr("topic")
	if !ok || !topicPattern.MatchString(topic) {
		return 0, false
	}
	num, err := strconv.Atoi(topic)
	if err != nil {
		return 0, false
	}
	return num, true
}

// NormalizeText collapses internal whitespace and trims both ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func title(container *goquery.Selection, num int) string {
	for _, sel := range titleSelectors {
		node := container.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := NormalizeText(node.Text()); text != "" {
			return text
		}
	}
	return fmt.Sprintf("第%d题", num)
}

func optionTexts(doc *goquery.Document, num int, baseType survey.QuestionType) []string {
	switch baseType {
	case survey.TypeDropdown:
		labels, _ := dropdownOptions(doc, num)
		return labels
	case survey.TypeMatrix:
		_, columns := matrixInfo(doc, num)
		return columns
	}
	options := doc.Find(OptionSelector(num))
	if options.Length() == 0 {
		options = doc.Find(RadioSelector(num))
	}
	return texts(options)
}

func texts(s *goquery.Selection) []string {
	result := []string{}
	s.Each(func(_ int, node *goquery.Selection) {
		result = append(result, NormalizeText(node.Text()))
	})
	return result
}

// dropdownOptions returns the labels and values of the selectable options,
// skipping disabled ones and placeholders without a value.
func dropdownOptions(doc *goquery.Document, num int) ([]string, []string) {
	labels, values := []string{}, []string{}
	doc.Find(DropdownOptionSelector(num)).Each(func(_ int, opt *goquery.Selection) {
		if _, disabled := opt.Attr("disabled"); disabled {
			return
		}
		text := NormalizeText(opt.Text())
		value, ok := opt.Attr("value")
		if !ok {
			value = text
		}
		if value == "" {
			return
		}
		labels = append(labels, text)
		values = append(values, value)
	})
	return labels, values
}

func matrixInfo(doc *goquery.Document, num int) (int, []string) {
	rows := doc.Find(MatrixRowSelector(num)).Length()
	cells := doc.Find(MatrixHeaderCellSelector(num))
	if cells.Length() == 0 {
		return rows, []string{}
	}
	return rows, texts(cells.Slice(1, cells.Length()))
}

func isLocationQuestion(container *goquery.Selection) bool {
	if container.Find(".get_Local").Length() > 0 {
		return true
	}
	found := false
	container.Find("input, textarea").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		verify := strings.ToLower(input.AttrOr("verify", ""))
		found = strings.Contains(verify, "map") || strings.Contains(verify, "地图")
		return !found
	})
	return found
}

var fillableTypes = []survey.QuestionType{survey.TypeSingle, survey.TypeMultiple, survey.TypeScale}

var textInputTypes = []string{"text", "search", "tel", "number"}

var sharedInputKeywords = []string{"其他", "请注明", "other", "填写"}

// fillableIndices returns the options with an attached free text input. If
// none has one but the question offers a shared "other" input, the last
// option is assumed to own it.
func fillableIndices(container *goquery.Selection, baseType survey.QuestionType, optionCount int) []int {
	if !slices.Contains(fillableTypes, baseType) {
		return nil
	}
	indices := []int{}
	container.Find(".ui-controlgroup > div").Each(func(i int, option *goquery.Selection) {
		if hasTextInput(option) {
			indices = append(indices, i)
		}
	})
	if len(indices) == 0 && optionCount > 0 && hasSharedInput(container) {
		indices = append(indices, optionCount-1)
	}
	return indices
}

func hasTextInput(s *goquery.Selection) bool {
	if s.Find("textarea").Length() > 0 {
		return true
	}
	found := false
	s.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		found = slices.Contains(textInputTypes, strings.ToLower(input.AttrOr("type", "")))
		return !found
	})
	return found
}

func hasSharedInput(container *goquery.Selection) bool {
	if container.Find(".ui-other input, .ui-other textarea").Length() > 0 {
		return true
	}
	text := NormalizeText(container.Text())
	if text == "" {
		return false
	}
	for _, keyword := range sharedInputKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
