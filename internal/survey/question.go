// Package survey defines the question model, the campaign configuration
// and the persisted run record.
package survey

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// QuestionType is the closed set of question variants.
type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeSingle   QuestionType = "single"
	TypeMultiple QuestionType = "multiple"
	TypeDropdown QuestionType = "dropdown"
	TypeScale    QuestionType = "scale"
	TypeMatrix   QuestionType = "matrix"
	TypeSlider   QuestionType = "slider"
	TypeReorder  QuestionType = "reorder"
	TypeLocation QuestionType = "location"
	TypeUnknown  QuestionType = "unknown"
)

// typeCodes maps the raw type attribute of a question container
// to a question type.
var typeCodes = map[string]QuestionType{
	"1":  TypeText,
	"2":  TypeText,
	"3":  TypeSingle,
	"4":  TypeMultiple,
	"5":  TypeScale,
	"6":  TypeMatrix,
	"7":  TypeDropdown,
	"8":  TypeSlider,
	"11": TypeReorder,
}

// TypeFromCode maps a raw type code. Unmapped codes become TypeUnknown.
func TypeFromCode(code string) QuestionType {
	if t, ok := typeCodes[code]; ok {
		return t
	}
	return TypeUnknown
}

var typeLabels = map[QuestionType]string{
	TypeSingle:   "单选题",
	TypeMultiple: "多选题",
	TypeDropdown: "下拉题",
	TypeMatrix:   "矩阵题",
	TypeScale:    "量表题",
	TypeText:     "填空题",
	TypeSlider:   "滑块题",
	TypeReorder:  "排序题",
	TypeLocation: "位置题",
}

// Label returns the display label of the type.
func (t QuestionType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsText reports whether the type is answered with free text.
func (t QuestionType) IsText() bool {
	return t == TypeText || t == TypeLocation
}

// DistributionMode selects between a uniform and a weighted draw.
type DistributionMode string

const (
	DistributionRandom DistributionMode = "random"
	DistributionCustom DistributionMode = "custom"
)

// Range is an inclusive integer range, used for slider scores.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// DefaultSliderRange is used when a slider question has no range configured.
var DefaultSliderRange = Range{Min: 20, Max: 90}

// DefaultTexts is the candidate pool for text questions without configured texts.
var DefaultTexts = []string{"暂无意见", "无"}

// SelectionProbabilities holds the independent per-option inclusion
// percentages of a multiple choice question. In JSON it is either an
// array or the sentinel -1, meaning fully random.
type SelectionProbabilities struct {
	Random bool
	Values []float64
}

// Configured reports whether per-option percentages are set.
func (s *SelectionProbabilities) Configured() bool {
	return s != nil && !s.Random && len(s.Values) > 0
}

func (s SelectionProbabilities) MarshalJSON() ([]byte, error) {
	if s.Random {
		return []byte("-1"), nil
	}
	return json.Marshal(s.Values)
}

func (s *SelectionProbabilities) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] != '[' {
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		s.Random = n == -1
		return nil
	}
	return json.Unmarshal(data, &s.Values)
}

func (s SelectionProbabilities) MarshalYAML() (any, error) {
	if s.Random {
		return -1, nil
	}
	return s.Values, nil
}

// Question is the structured description of one extracted question
// together with its configured answer distribution.
type Question struct {
	QuestionNum int          `json:"questionNum" yaml:"questionNum"`
	PageIndex   int          `json:"pageIndex" yaml:"pageIndex,omitempty"`
	Title       string       `json:"title" yaml:"title"`
	Type        QuestionType `json:"questionType" yaml:"questionType"`
	OptionCount int          `json:"optionCount" yaml:"optionCount,omitempty"`
	// OptionLabels are the column labels for matrix questions.
	OptionLabels     []string         `json:"optionLabels" yaml:"optionLabels,omitempty"`
	DistributionMode DistributionMode `json:"distributionMode" yaml:"distributionMode"`
	Probabilities    []float64        `json:"probabilities" yaml:"probabilities,omitempty"`
	CustomWeights    []float64        `json:"customWeights" yaml:"customWeights,omitempty"`
	// FillableOptionIndices lists the options that carry a free text sub-field.
	FillableOptionIndices []int `json:"fillableOptionIndices" yaml:"fillableOptionIndices,omitempty"`
	// OptionFillTexts holds one entry per option, nil where nothing is filled.
	OptionFillTexts        []*string               `json:"optionFillTexts" yaml:"optionFillTexts,omitempty"`
	Texts                  []string                `json:"texts" yaml:"texts,omitempty"`
	TextProbabilities      []float64               `json:"textProbabilities" yaml:"textProbabilities,omitempty"`
	MatrixRows             int                     `json:"matrixRows" yaml:"matrixRows,omitempty"`
	SliderRange            *Range                  `json:"sliderRange" yaml:"sliderRange,omitempty"`
	RandomMulti            bool                    `json:"randomMulti" yaml:"randomMulti,omitempty"`
	SelectionProbabilities *SelectionProbabilities `json:"selectionProbabilities" yaml:"selectionProbabilities,omitempty"`
	MultiLimit             *int                    `json:"multiLimit" yaml:"multiLimit,omitempty"`
	IsLocation             bool                    `json:"isLocation" yaml:"isLocation,omitempty"`
}

// FillText returns the configured sub-field text of option i, if any.
func (q *Question) FillText(i int) (string, bool) {
	if i < 0 || i >= len(q.OptionFillTexts) || q.OptionFillTexts[i] == nil || *q.OptionFillTexts[i] == "" {
		return "", false
	}
	return *q.OptionFillTexts[i], true
}

// Slider returns the configured slider range or the default one.
func (q *Question) Slider() Range {
	if q.SliderRange == nil {
		return DefaultSliderRange
	}
	return *q.SliderRange
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	c := q
	c.OptionLabels = cloneSlice(q.OptionLabels)
	c.Probabilities = cloneSlice(q.Probabilities)
	c.CustomWeights = cloneSlice(q.CustomWeights)
	c.FillableOptionIndices = cloneSlice(q.FillableOptionIndices)
	c.Texts = cloneSlice(q.Texts)
	c.TextProbabilities = cloneSlice(q.TextProbabilities)
	if q.OptionFillTexts != nil {
		c.OptionFillTexts = make([]*string, len(q.OptionFillTexts))
		for i, s := range q.OptionFillTexts {
			if s != nil {
				v := *s
				c.OptionFillTexts[i] = &v
			}
		}
	}
	if q.SliderRange != nil {
		r := *q.SliderRange
		c.SliderRange = &r
	}
	if q.SelectionProbabilities != nil {
		sp := SelectionProbabilities{Random: q.SelectionProbabilities.Random, Values: cloneSlice(q.SelectionProbabilities.Values)}
		c.SelectionProbabilities = &sp
	}
	if q.MultiLimit != nil {
		l := *q.MultiLimit
		c.MultiLimit = &l
	}
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
