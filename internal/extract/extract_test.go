package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formHTML = `
<html><body>
<div id="divQuestion">
	<fieldset id="fieldset1">
		<div class="field ui-field-contain" id="div1" topic="1" type="3">
			<div class="field-label"><div class="topichtml">  您的
				性别 </div></div>
			<div class="ui-controlgroup">
				<div class="ui-radio"><span class="label">男</span></div>
				<div class="ui-radio"><span class="label">女</span></div>
				<div class="ui-radio"><span class="label">其他</span><input type="text" class="OtherRadioText"/></div>
			</div>
		</div>
		<div class="field" id="div2" topic="2" type="4" maxvalue="0" data-config='{"maxchoice": 2}'>
			<div class="topichtml">您喜欢的水果</div>
			<div class="ui-controlgroup">
				<div class="ui-checkbox">苹果</div>
				<div class="ui-checkbox">香蕉</div>
				<div class="ui-checkbox">橙子</div>
				<div class="ui-checkbox">葡萄</div>
			</div>
		</div>
		<div class="field" id="div3" topic="3" type="1">
			<div class="topichtml">您的住址</div>
			<input id="q3" type="text" verify="地图"/>
		</div>
		<div class="field" id="divx" topic="abc" type="3"><div class="topichtml">skipped</div></div>
	</fieldset>
	<fieldset id="fieldset2">
		<div class="field" id="div5" topic="5" type="6">
			<div class="topichtml">请评价</div>
			<table id="divRefTab5">
				<tr id="drv5_1" rowindex="0"><td>服务</td><td>好</td><td>一般</td><td>差</td></tr>
				<tr id="drv5_2" rowindex="1"><td>价格</td><td>好</td><td>一般</td><td>差</td></tr>
			</table>
		</div>
		<div class="field" id="div4" topic="4" type="7">
			<h3>您的年级</h3>
			<select id="q4">
				<option value="">请选择</option>
				<option value="1">大一</option>
				<option value="2" disabled>大二</option>
				<option value="3">大三</option>
			</select>
		</div>
		<div class="field" id="div6" topic="6" type="4">
			<div class="topichtml">选择兴趣（最多选3项）</div>
			<div class="ui-controlgroup"><div>a</div><div>b</div><div>c</div><div>d</div><div>e</div></div>
		</div>
		<div class="field" id="div7" topic="7" type="8"><div class="topichtml">打分</div><input id="q7" type="hidden"/></div>
		<div class="field" id="div8" topic="8" type="11"><div class="topichtml">排序</div><ul><li>x</li><li>y</li><li>z</li></ul></div>
		<div class="field" id="div9" topic="9" type="99"><div class="topichtml">未知</div><div class="ui-controlgroup"><div>p</div><div>q</div></div></div>
		<div class="field" id="div10" topic="10" type="5"><div class="topichtml">满意度</div><div class="ui-controlgroup"><ul><li>1</li><li>2</li><li>3</li><li>4</li><li>5</li></ul></div></div>
	</fieldset>
</div>
</body></html>`

func newDoc(t *testing.T, htmlStr string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	require.NoError(t, err)
	return doc
}

func TestQuestions(t *testing.T) {
	questions, err := FromHTML(formHTML)
	require.NoError(t, err)
	require.Len(t, questions, 10)

	nums := []int{}
	for _, q := range questions {
		nums = append(nums, q.QuestionNum)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, nums)

	q1 := questions[0]
	assert.Equal(t, "您的 性别", q1.Title)
	assert.Equal(t, survey.TypeSingle, q1.Type)
	assert.Equal(t, 0, q1.PageIndex)
	assert.Equal(t, []string{"男", "女", "其他"}, q1.OptionLabels)
	assert.Equal(t, 3, q1.OptionCount)
	assert.Equal(t, []int{2}, q1.FillableOptionIndices)
	assert.Len(t, q1.OptionFillTexts, 3)
	assert.Equal(t, survey.DistributionRandom, q1.DistributionMode)

	q2 := questions[1]
	assert.Equal(t, survey.TypeMultiple, q2.Type)
	require.NotNil(t, q2.MultiLimit)
	assert.Equal(t, 2, *q2.MultiLimit)
	assert.True(t, q2.RandomMulti)
	assert.Nil(t, q2.FillableOptionIndices)

	q3 := questions[2]
	assert.Equal(t, survey.TypeLocation, q3.Type)
	assert.True(t, q3.IsLocation)
	assert.Equal(t, survey.DefaultTexts, q3.Texts)

	q4 := questions[3]
	assert.Equal(t, survey.TypeDropdown, q4.Type)
	assert.Equal(t, "您的年级", q4.Title)
	assert.Equal(t, []string{"大一", "大三"}, q4.OptionLabels)
	assert.Equal(t, 1, q4.PageIndex)

	q5 := questions[4]
	assert.Equal(t, survey.TypeMatrix, q5.Type)
	assert.Equal(t, 2, q5.MatrixRows)
	assert.Equal(t, []string{"好", "一般", "差"}, q5.OptionLabels)
	assert.Equal(t, 3, q5.OptionCount)

	q6 := questions[5]
	require.NotNil(t, q6.MultiLimit)
	assert.Equal(t, 3, *q6.MultiLimit)

	q7 := questions[6]
	assert.Equal(t, survey.TypeSlider, q7.Type)
	assert.Equal(t, 0, q7.OptionCount)
	assert.Equal(t, survey.DefaultSliderRange, q7.Slider())

	assert.Equal(t, survey.TypeReorder, questions[7].Type)
	assert.Equal(t, survey.TypeUnknown, questions[8].Type)
	assert.Equal(t, []string{"p", "q"}, questions[8].OptionLabels)
	assert.Equal(t, survey.TypeScale, questions[9].Type)
}

func TestQuestionsIdempotent(t *testing.T) {
	first, err := FromHTML(formHTML)
	require.NoError(t, err)
	second, err := FromHTML(formHTML)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuestionsErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no question area", `<html><body><div id="other"></div></body></html>`},
		{"no numeric topics", `<html><body><div id="divQuestion"><div topic="a1" type="3"></div><div type="3"></div></div></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromHTML(tt.html)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExtraction))
		})
	}
}

func TestQuestionsWithoutPages(t *testing.T) {
	questions, err := FromHTML(`<html><body><div id="divQuestion">
		<div id="div2" topic="2" type="2"><h2>B</h2><input id="q2"/></div>
		<div id="div1" topic="1" type="3"><h2>A</h2><div class="ui-controlgroup"><div>x</div></div></div>
	</div></body></html>`)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].QuestionNum)
	assert.Equal(t, "A", questions[0].Title)
	assert.Equal(t, 0, questions[1].PageIndex)
	assert.Equal(t, survey.TypeText, questions[1].Type)
}

func TestTitleFallback(t *testing.T) {
	questions, err := FromHTML(`<html><body><div id="divQuestion"><div id="div4" topic="4" type="3"><h2>   </h2></div></div></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "第4题", questions[0].Title)
}

func TestSharedOtherInputGoesToLastOption(t *testing.T) {
	questions, err := FromHTML(`<html><body><div id="divQuestion">
		<div id="div1" topic="1" type="4"><div class="topichtml">渠道</div>
			<div class="ui-controlgroup"><div>网络</div><div>朋友</div><div>其他</div></div>
		</div></div></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, questions[0].FillableOptionIndices)
}

func TestMultiLimit(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected int
		found    bool
	}{
		{"attribute", `<div id="c" max="4">最多选5项</div>`, 4, true},
		{"data attribute", `<div id="c" data-max="2"></div>`, 2, true},
		{"zero attribute ignored", `<div id="c" maxvalue="0"></div>`, 0, false},
		{"json attribute", `<div id="c" data-rule='{"maxselect": "2"}'></div>`, 2, true},
		{"chinese", `<div id="c">本题最多可以选择 3 项</div>`, 3, true},
		{"chinese variant", `<div id="c">不超过5项</div>`, 5, true},
		{"english select", `<div id="c">Please select up to 4 options</div>`, 4, true},
		{"english at most", `<div id="c">at most 2 choices</div>`, 2, true},
		{"english max", `<div id="c">Max 3 options</div>`, 3, true},
		{"first match wins", `<div id="c">最多选2项，至多3项</div>`, 2, true},
		{"nothing", `<div id="c">请选择</div>`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(t, tt.html)
			n, ok := multiLimit(doc.Find("#c"))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestLayoutAndProbe(t *testing.T) {
	doc := newDoc(t, formHTML)
	layout, err := Layout(doc)
	require.NoError(t, err)
	require.Len(t, layout, 2)
	assert.Equal(t, []int{1, 2, 3}, layout[0].Questions)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, layout[1].Questions)

	live := Probe(doc, 1)
	assert.Equal(t, "3", live.TypeCode)
	assert.Equal(t, 3, live.Options)

	live = Probe(doc, 4)
	assert.Equal(t, []string{"1", "3"}, live.DropdownValues)

	live = Probe(doc, 5)
	assert.Equal(t, 2, live.MatrixRows)
	assert.Equal(t, 3, live.MatrixColumns)

	assert.Equal(t, 3, Probe(doc, 8).ReorderItems)
	assert.Equal(t, 5, Probe(doc, 10).ScaleItems)
	assert.Equal(t, survey.Live{DropdownValues: []string{}}, Probe(doc, 42))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \n\t b   c "))
	assert.Equal(t, "", NormalizeText(" \n "))
}
