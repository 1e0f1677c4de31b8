// Package store persists the configuration and the run record between
// page loads and process restarts.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakopako/surveyfill/internal/survey"
)

const (
	keyConfig = "config"
	keyRun    = "run"
)

var errMissing = errors.New("key not found")

// backend is a plain key value store.
type backend interface {
	get(key string) ([]byte, error)
	set(key string, value []byte) error
	delete(key string) error
	close() error
}

// Store reads and writes the typed state on top of a backend. Missing or
// corrupt data loads as defaults and failed writes are logged, so callers
// never have to handle storage errors.
type Store struct {
	kv     backend
	logger *slog.Logger
}

func newStore(kv backend, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger.With(slog.String("component", "store"))}
}

func (s *Store) Close() error {
	return s.kv.close()
}

func (s *Store) LoadConfig() survey.Configuration {
	cfg := survey.DefaultConfiguration("")
	if !s.load(keyConfig, &cfg) {
		return survey.DefaultConfiguration("")
	}
	cfg.Normalize()
	return cfg
}

func (s *Store) SaveConfig(cfg survey.Configuration) {
	s.save(keyConfig, cfg)
}

func (s *Store) LoadRun() survey.RunRecord {
	var r survey.RunRecord
	if !s.load(keyRun, &r) {
		return survey.RunRecord{}
	}
	return r
}

func (s *Store) SaveRun(r survey.RunRecord) {
	r.UpdatedAt = time.Now().UTC()
	s.save(keyRun, r)
}

func (s *Store) ClearRun() {
	if err := s.kv.delete(keyRun); err != nil {
		s.logger.Error(fmt.Sprintf("failed to clear run record: %v", err))
	}
}

func (s *Store) load(key string, v any) bool {
	data, err := s.kv.get(key)
	if errors.Is(err, errMissing) {
		return false
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("failed to read %s: %v", key, err))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn(fmt.Sprintf("stored %s is corrupt, using defaults: %v", key, err))
		return false
	}
	return true
}

func (s *Store) save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error(fmt.Sprintf("failed to encode %s: %v", key, err))
		return
	}
	if err := s.kv.set(key, data); err != nil {
		s.logger.Error(fmt.Sprintf("failed to write %s: %v", key, err))
	}
}
