package survey

import (
	"encoding/json"
	"errors"
	"fmt"
)

// editableFields are the only fields an edit may change. Everything else
// describes the structure of the form and is owned by the extractor.
var editableFields = []string{
	"distributionMode",
	"probabilities",
	"customWeights",
	"texts",
	"textProbabilities",
	"optionFillTexts",
	"fillableOptionIndices",
	"sliderRange",
	"multiLimit",
	"selectionProbabilities",
	"randomMulti",
}

// Snapshot renders the editable view of q as indented JSON.
func Snapshot(q *Question) ([]byte, error) {
	s := map[string]any{
		"questionNum":           q.QuestionNum,
		"title":                 q.Title,
		"questionType":          q.Type,
		"distributionMode":      q.DistributionMode,
		"probabilities":         q.Probabilities,
		"customWeights":         q.CustomWeights,
		"texts":                 q.Texts,
		"textProbabilities":     q.TextProbabilities,
		"optionFillTexts":       q.OptionFillTexts,
		"fillableOptionIndices": q.FillableOptionIndices,
		"sliderRange":           q.SliderRange,
		"multiLimit":            q.MultiLimit,
	}
	if q.Type == TypeMultiple {
		s["selectionProbabilities"] = q.SelectionProbabilities
		s["randomMulti"] = q.RandomMulti
	}
	if q.Type == TypeMatrix {
		s["matrixRows"] = q.MatrixRows
		s["optionCount"] = q.OptionCount
	}
	return json.MarshalIndent(s, "", "  ")
}

// ApplySnapshot copies the editable fields present in data onto q. On
// error q is left unchanged.
func ApplySnapshot(q *Question, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if raw == nil {
		return errors.New("invalid question snapshot")
	}
	updated := q.Clone()
	for _, field := range editableFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		var err error
		switch field {
		case "distributionMode":
			err = json.Unmarshal(value, &updated.DistributionMode)
		case "probabilities":
			updated.Probabilities = nil
			err = json.Unmarshal(value, &updated.Probabilities)
		case "customWeights":
			updated.CustomWeights = nil
			err = json.Unmarshal(value, &updated.CustomWeights)
		case "texts":
			updated.Texts = nil
			err = json.Unmarshal(value, &updated.Texts)
		case "textProbabilities":
			updated.TextProbabilities = nil
			err = json.Unmarshal(value, &updated.TextProbabilities)
		case "optionFillTexts":
			updated.OptionFillTexts = nil
			err = json.Unmarshal(value, &updated.OptionFillTexts)
		case "fillableOptionIndices":
			updated.FillableOptionIndices = nil
			err = json.Unmarshal(value, &updated.FillableOptionIndices)
		case "sliderRange":
			updated.SliderRange = nil
			err = json.Unmarshal(value, &updated.SliderRange)
		case "multiLimit":
			updated.MultiLimit = nil
			err = json.Unmarshal(value, &updated.MultiLimit)
		case "selectionProbabilities":
			updated.SelectionProbabilities = nil
			err = json.Unmarshal(value, &updated.SelectionProbabilities)
		case "randomMulti":
			err = json.Unmarshal(value, &updated.RandomMulti)
		}
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrConfigParse, field, err)
		}
	}
	*q = updated
	return nil
}
