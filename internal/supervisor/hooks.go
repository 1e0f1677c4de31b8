package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/surveyfill/internal/extract"
	"github.com/jakopako/surveyfill/internal/log"
	"github.com/jakopako/surveyfill/internal/survey"
)

// Settings are the campaign parameters editable besides the questions.
type Settings struct {
	TargetNum           int
	SubmitInterval      survey.Interval
	AnswerDurationRange survey.Interval
}

// Parse extracts the questions of the current page. Distribution settings
// of matching questions from the previous configuration are kept.
func (s *Supervisor) Parse(ctx context.Context) ([]survey.Question, error) {
	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	fresh, err := extract.Questions(doc)
	if err != nil {
		s.logger.Error(err.Error())
		return nil, err
	}
	current, err := s.page.URL(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	merged := survey.Merge(s.session.Config.Questions, fresh)
	s.session.Config.URL = stripFragment(current)
	s.session.Config.Questions = merged
	s.store.SaveConfig(s.session.Config)
	s.mu.Unlock()

	log.Success(ctx, s.logger, fmt.Sprintf("parsed %d questions", len(merged)))
	return survey.Configuration{Questions: merged}.Clone().Questions, nil
}

// Export serializes the current configuration.
func (s *Supervisor) Export(f survey.Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return survey.Export(s.session.Config, f)
}

// Import replaces the configuration with data overlaid on the current one.
// The configuration is left unchanged on error.
func (s *Supervisor) Import(data []byte, f survey.Format) error {
	s.mu.Lock()
	imported, err := survey.Import(s.session.Config, data, f)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error(fmt.Sprintf("invalid configuration: %v", err))
		return err
	}
	s.session.Config = imported
	s.store.SaveConfig(imported)
	s.mu.Unlock()

	log.Success(context.Background(), s.logger, fmt.Sprintf("imported configuration with %d questions", len(imported.Questions)))
	return nil
}

// UpdateConfig applies new campaign settings.
func (s *Supervisor) UpdateConfig(settings Settings) survey.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Config.TargetNum = settings.TargetNum
	s.session.Config.SubmitInterval = settings.SubmitInterval
	s.session.Config.AnswerDurationRange = settings.AnswerDurationRange
	s.session.Config.Normalize()
	s.store.SaveConfig(s.session.Config)
	return s.session.Config.Clone()
}

// UpdateQuestion applies an edited snapshot to question num. Only the
// distribution settings can change.
func (s *Supervisor) UpdateQuestion(num int, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.session.Config.Question(num)
	if !ok {
		return fmt.Errorf("question %d not found", num)
	}
	if err := survey.ApplySnapshot(q, snapshot); err != nil {
		return err
	}
	s.store.SaveConfig(s.session.Config)
	return nil
}
