package survey

import (
	"time"

	"github.com/google/uuid"
)

// Version is written into every exported configuration.
const Version = "1.0"

// Interval is a range of seconds.
type Interval struct {
	MinSeconds float64 `json:"minSeconds" yaml:"minSeconds"`
	MaxSeconds float64 `json:"maxSeconds" yaml:"maxSeconds"`
}

// Configuration holds the campaign parameters and the question model.
type Configuration struct {
	Version             string     `json:"version" yaml:"version"`
	URL                 string     `json:"url" yaml:"url"`
	TargetNum           int        `json:"targetNum" yaml:"targetNum"`
	SubmitInterval      Interval   `json:"submitInterval" yaml:"submitInterval"`
	AnswerDurationRange Interval   `json:"answerDurationRange" yaml:"answerDurationRange"`
	Questions           []Question `json:"questions" yaml:"questions"`
}

// DefaultConfiguration returns an empty configuration for the given url.
func DefaultConfiguration(url string) Configuration {
	return Configuration{
		Version:   Version,
		URL:       url,
		TargetNum: 1,
		Questions: []Question{},
	}
}

// Normalize enforces targetNum >= 1, non-negative interval minimums and
// maximums that are at least the minimum.
func (c *Configuration) Normalize() {
	c.TargetNum = max(1, c.TargetNum)
	c.SubmitInterval = c.SubmitInterval.normalized()
	c.AnswerDurationRange = c.AnswerDurationRange.normalized()
	if c.Questions == nil {
		c.Questions = []Question{}
	}
}

func (i Interval) normalized() Interval {
	i.MinSeconds = max(0, i.MinSeconds)
	i.MaxSeconds = max(i.MinSeconds, i.MaxSeconds)
	return i
}

// Clone returns a deep copy that can be handed out as an immutable snapshot.
func (c Configuration) Clone() Configuration {
	cc := c
	if c.Questions != nil {
		cc.Questions = make([]Question, len(c.Questions))
		for i, q := range c.Questions {
			cc.Questions[i] = q.Clone()
		}
	}
	return cc
}

// Question returns the record with the given number.
func (c *Configuration) Question(num int) (*Question, bool) {
	for i := range c.Questions {
		if c.Questions[i].QuestionNum == num {
			return &c.Questions[i], true
		}
	}
	return nil, false
}

// RunRecord is the persisted progress of a campaign. It survives page
// navigations and process restarts.
type RunRecord struct {
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	Target    int       `json:"target"`
	Completed int       `json:"completed"`
	EntryURL  string    `json:"entryUrl"`
	LastError string    `json:"lastError"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRunRecord starts a fresh, active campaign.
func NewRunRecord(target int, entryURL string) RunRecord {
	return RunRecord{
		ID:       uuid.NewString(),
		Active:   true,
		Target:   target,
		EntryURL: entryURL,
	}
}

// Done reports whether the target has been reached.
func (r RunRecord) Done() bool {
	return r.Completed >= r.Target
}
