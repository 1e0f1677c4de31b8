package extract

import "fmt"

// The selectors below address the parts of a rendered questionnaire. They
// are shared by the extractor and the controller so both agree on what an
// option, a row or an input is.

const (
	RootSelector     = "#divQuestion"
	PageSelector     = `fieldset[id^="fieldset"]`
	QuestionSelector = "div[topic]"
)

func ContainerSelector(num int) string {
	return fmt.Sprintf("#div%d", num)
}

func OptionSelector(num int) string {
	return fmt.Sprintf("#div%d .ui-controlgroup > div", num)
}

func RadioSelector(num int) string {
	return fmt.Sprintf("#div%d .ui-radio", num)
}

func ScaleItemSelector(num int) string {
	return fmt.Sprintf("#div%d .ui-controlgroup li", num)
}

// InputSelector addresses the text input, slider input or select element.
func InputSelector(num int) string {
	return fmt.Sprintf("#q%d", num)
}

func DropdownOptionSelector(num int) string {
	return fmt.Sprintf("#q%d option", num)
}

func MatrixRowSelector(num int) string {
	return fmt.Sprintf("#divRefTab%d tr[rowindex]", num)
}

func MatrixHeaderCellSelector(num int) string {
	return fmt.Sprintf("#drv%d_1 > td", num)
}

// MatrixCellSelector addresses the cell of a 1-indexed row and a 0-indexed
// column. The first cell of every row is the row label.
func MatrixCellSelector(num, row, col int) string {
	return fmt.Sprintf("#drv%d_%d > td:nth-child(%d)", num, row, col+2)
}

func ReorderItemSelector(num int) string {
	return fmt.Sprintf("#div%d ul > li", num)
}

// OptionTextInputSelector addresses the free text inputs attached to the
// 0-indexed option.
func OptionTextInputSelector(num, option int) string {
	prefix := fmt.Sprintf("#div%d .ui-controlgroup > div:nth-child(%d)", num, option+1)
	return fmt.Sprintf(`%[1]s input[type="text"], %[1]s input[type="search"], %[1]s textarea`, prefix)
}

// OtherInputSelector addresses the shared "other, please specify" input.
func OtherInputSelector(num int) string {
	return fmt.Sprintf("#div%[1]d .ui-other input, #div%[1]d .ui-other textarea", num)
}
