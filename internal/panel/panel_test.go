package panel

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/supervisor"
	"github.com/jakopako/surveyfill/internal/survey"
	"github.com/jakopako/surveyfill/internal/types"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() survey.Configuration {
	cfg := survey.DefaultConfiguration("https://www.wjx.cn/vm/abc.aspx")
	cfg.TargetNum = 5
	cfg.Questions = []survey.Question{
		{QuestionNum: 1, Title: "您的性别", Type: survey.TypeSingle, OptionCount: 2, DistributionMode: survey.DistributionRandom},
		{QuestionNum: 2, Title: "您最喜欢的水果是什么，请详细说明原因并举例[可多选]，如果没有请填写无", Type: survey.TypeMultiple, OptionCount: 4, DistributionMode: survey.DistributionCustom},
	}
	return cfg
}

func TestFillTable(t *testing.T) {
	table := tview.NewTable()
	fillTable(table, testConfig())

	assert.Equal(t, 3, table.GetRowCount())
	assert.Equal(t, "#", table.GetCell(0, 0).Text)
	assert.Equal(t, "2", table.GetCell(2, 0).Text)
	assert.Equal(t, "multiple", table.GetCell(2, 1).Text)
	assert.Contains(t, table.GetCell(2, 2).Text, "...")
	assert.Equal(t, "2 个选项 · 完全随机", table.GetCell(1, 3).Text)

	fillTable(table, survey.DefaultConfiguration(""))
	assert.Equal(t, 1, table.GetRowCount())
}

func TestStatusLine(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "idle | 2 questions | target 5", statusLine(cfg, types.RunStatus{}))
	assert.Equal(t,
		"waiting | 2/5 submitted | run r1 | next https://x/?r=1",
		statusLine(cfg, types.RunStatus{RunID: "r1", Phase: types.PhaseWaiting, Completed: 2, Target: 5, NextURL: "https://x/?r=1"}))
	assert.Equal(t,
		"failed | 2/5 submitted | run r1 | last error: blocked",
		statusLine(cfg, types.RunStatus{RunID: "r1", Phase: types.PhaseFailed, Completed: 2, Target: 5, LastError: "blocked"}))
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    supervisor.Settings
		wantErr bool
	}{
		{
			name:   "complete",
			values: []string{"10", "1.5", "3", "30", "60"},
			want: supervisor.Settings{
				TargetNum:           10,
				SubmitInterval:      survey.Interval{MinSeconds: 1.5, MaxSeconds: 3},
				AnswerDurationRange: survey.Interval{MinSeconds: 30, MaxSeconds: 60},
			},
		},
		{
			name:   "empty seconds are zero",
			values: []string{"1", "", "", "", ""},
			want:   supervisor.Settings{TargetNum: 1},
		},
		{name: "invalid target", values: []string{"x", "0", "0", "0", "0"}, wantErr: true},
		{name: "invalid seconds", values: []string{"1", "0", "1..2", "0", "0"}, wantErr: true},
		{name: "missing values", values: []string{"1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSettings(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewShowsHistory(t *testing.T) {
	history := log.NewHistory(10)
	logger := slog.New(history.Handler(nil))
	logger.Info("parsed 2 questions")
	logger.Error("campaign halted", slog.Any("err", errors.New("blocked")))

	p := New(testConfig(), history, Hooks{})
	text := p.logView.GetText(true)
	assert.Contains(t, text, "parsed 2 questions")
	assert.Contains(t, text, "campaign halted err=blocked")
	assert.Equal(t, 3, p.table.GetRowCount())
	assert.Equal(t, "idle | 2 questions | target 5", p.status.GetText(true))
}
