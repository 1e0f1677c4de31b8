package survey

import (
	"fmt"
	"strings"
)

// Describe returns a one line summary of how q will be answered.
func Describe(q *Question) string {
	if q == nil {
		return "未知题目"
	}
	mode := "完全随机"
	if q.DistributionMode == DistributionCustom {
		mode = "自定义配比"
	}
	switch q.Type {
	case TypeText, TypeLocation:
		samples := []string{}
		for _, t := range q.Texts {
			if t != "" {
				samples = append(samples, t)
			}
			if len(samples) == 3 {
				break
			}
		}
		if len(samples) == 0 {
			return "自动生成随机内容"
		}
		return strings.Join(samples, " | ")
	case TypeMatrix:
		return fmt.Sprintf("%d 行 × %d 列 · %s", max(1, q.MatrixRows), max(1, q.OptionCount), mode)
	case TypeMultiple:
		if q.RandomMulti || !q.SelectionProbabilities.Configured() {
			return fmt.Sprintf("%d 个选项 · 随机多选", q.OptionCount)
		}
		return fmt.Sprintf("%d 个选项 · 自定义勾选概率", q.OptionCount)
	case TypeSlider:
		r := q.Slider()
		return fmt.Sprintf("随机得分 %d - %d", r.Min, r.Max)
	}
	return fmt.Sprintf("%d 个选项 · %s", q.OptionCount, mode)
}
