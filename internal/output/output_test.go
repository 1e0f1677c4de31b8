package output

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jakopako/surveyfill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statuses() []types.RunStatus {
	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	return []types.RunStatus{
		{RunID: "r1", Phase: types.PhaseStarted, Active: true, Target: 2, Time: at},
		{RunID: "r1", Phase: types.PhaseSubmitted, Active: true, Completed: 1, Target: 2, Time: at},
		{RunID: "r1", Phase: types.PhaseFailed, Completed: 1, Target: 2, LastError: "blocked by a verification <captcha>", Time: at},
	}
}

func feed(w Writer, ss []types.RunStatus) {
	ch := make(chan types.RunStatus)
	done := make(chan struct{})
	go func() {
		w.WriteStatus(ch)
		close(done)
	}()
	for _, s := range ss {
		ch <- s
	}
	close(ch)
	<-done
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name    string
		wc      WriterConfig
		want    any
		wantErr bool
	}{
		{name: "default", wc: WriterConfig{}, want: &StdoutWriter{}},
		{name: "stdout", wc: WriterConfig{Type: STDOUT_WRITER_TYPE}, want: &StdoutWriter{}},
		{name: "file", wc: WriterConfig{Type: FILE_WRITER_TYPE, FileDir: t.TempDir()}, want: &FileWriter{}},
		{name: "file without dir", wc: WriterConfig{Type: FILE_WRITER_TYPE}, wantErr: true},
		{name: "api", wc: WriterConfig{Type: API_WRITER_TYPE, Uri: "http://localhost/status"}, want: &APIWriter{}},
		{name: "api without uri", wc: WriterConfig{Type: API_WRITER_TYPE}, wantErr: true},
		{name: "none", wc: WriterConfig{Type: NONE_WRITER_TYPE}},
		{name: "unknown", wc: WriterConfig{Type: "kafka"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newWriter(&tt.wc, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, w)
				return
			}
			assert.IsType(t, tt.want, w)
		})
	}
}

func TestStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	feed(NewStdoutWriter(buf), statuses())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], `"lastError":"blocked by a verification <captcha>"`)
	var got types.RunStatus
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, statuses()[1], got)
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "status")
	w, err := NewFileWriter(&WriterConfig{FileDir: dir})
	require.NoError(t, err)
	feed(w, statuses())

	data, err := os.ReadFile(filepath.Join(dir, statusFilename))
	require.NoError(t, err)
	var got []types.RunStatus
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, statuses(), got)
	_, err = os.Stat(filepath.Join(dir, statusFilename+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestAPIWriter(t *testing.T) {
	var (
		mu       sync.Mutex
		received []types.RunStatus
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "fill" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var s types.RunStatus
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	w, err := NewAPIWriter(&WriterConfig{Uri: srv.URL, User: "fill", Password: "secret"})
	require.NoError(t, err)
	feed(w, statuses())
	mu.Lock()
	assert.Equal(t, statuses(), received)
	mu.Unlock()

	// rejected posts are logged and skipped
	received = nil
	w, err = NewAPIWriter(&WriterConfig{Uri: srv.URL, User: "fill", Password: "wrong"})
	require.NoError(t, err)
	feed(w, statuses())
	assert.Empty(t, received)
}
