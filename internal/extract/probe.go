package extract

import (
	"fmt"
	"slices"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/survey"
)

// Page lists the question numbers of one page of the rendered form.
type Page struct {
	Questions []int
}

// Layout returns the pages of the rendered form in order, each with its
// question numbers ascending. Containers without a numeric identifier are
// skipped.
func Layout(doc *goquery.Document) ([]Page, error) {
	root := doc.Find(RootSelector).First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("%w: question area %s not found", ErrExtraction, RootSelector)
	}
	layout := []Page{}
	total := 0
	for _, page := range pages(root) {
		p := Page{Questions: []int{}}
		page.Find(QuestionSelector).Each(func(_ int, container *goquery.Selection) {
			if num, ok := topicNumber(container); ok {
				p.Questions = append(p.Questions, num)
			}
		})
		slices.Sort(p.Questions)
		total += len(p.Questions)
		layout = append(layout, p)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: could not recognize the page structure", ErrExtraction)
	}
	return layout, nil
}

// Probe reads the live facts of question num from doc.
func Probe(doc *goquery.Document, num int) survey.Live {
	live := survey.Live{
		TypeCode:     doc.Find(ContainerSelector(num)).AttrOr("type", ""),
		Options:      doc.Find(OptionSelector(num)).Length(),
		ScaleItems:   doc.Find(ScaleItemSelector(num)).Length(),
		MatrixRows:   doc.Find(MatrixRowSelector(num)).Length(),
		ReorderItems: doc.Find(ReorderItemSelector(num)).Length(),
	}
	_, live.DropdownValues = dropdownOptions(doc, num)
	if cells := doc.Find(MatrixHeaderCellSelector(num)).Length(); cells > 0 {
		live.MatrixColumns = cells - 1
	}
	return live
}
