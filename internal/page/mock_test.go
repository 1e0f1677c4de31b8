package page

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockHTML = `<html><body>
<div id="a" class="opt">one</div>
<div id="b" class="opt" style="display: none">two</div>
<div hidden><span id="c">three</span></div>
<input id="q1" type="text"/>
<a id="next">下一页</a>
</body></html>`

func TestMockVisible(t *testing.T) {
	ctx := context.Background()
	m := NewMock("https://example.com/vm/x.aspx", mockHTML)

	tests := []struct {
		target   Target
		expected bool
	}{
		{First("#a"), true},
		{Target{Selector: ".opt", Index: 1}, false},
		{First("#c"), false},
		{First("#missing"), false},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			visible, err := m.Visible(ctx, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, visible)
		})
	}
}

func TestMockClickHooks(t *testing.T) {
	ctx := context.Background()
	m := NewMock("https://example.com/vm/x.aspx", mockHTML)
	m.OnClick("#next", func(m *Mock, _ Target) {
		m.SetHTML(`<html><body><div id="divSuccess">提交成功</div></body></html>`)
	})

	require.NoError(t, m.Click(ctx, Target{Selector: ".opt", Index: 0}))
	require.NoError(t, m.Click(ctx, First("a")))

	text, err := m.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "提交成功", text)
	assert.Equal(t, []Target{{Selector: ".opt"}, {Selector: "a"}}, m.Clicks())

	err = m.Click(ctx, First("#next"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMockSetValueAndNavigate(t *testing.T) {
	ctx := context.Background()
	m := NewMock("https://example.com/vm/x.aspx", mockHTML)

	require.NoError(t, m.SetValue(ctx, First("#q1"), "无"))
	require.NoError(t, m.SetAttr(ctx, First("#q1"), "lnglat", "1,2"))
	html, err := m.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `value="无"`)
	assert.Contains(t, html, `lnglat="1,2"`)

	navigated := ""
	m.OnNavigate(func(_ *Mock, url string) { navigated = url })
	require.NoError(t, m.Navigate(ctx, "https://example.com/vm/x.aspx?r=1"))
	assert.Equal(t, "https://example.com/vm/x.aspx?r=1", navigated)
	u, err := m.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, navigated, u)

	ops := m.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, OpSetValue, ops[0].Kind)
	assert.Equal(t, OpSetAttr, ops[1].Kind)
	assert.Equal(t, OpNavigate, ops[2].Kind)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Click(cancelled, First("#a")), context.Canceled)
}
