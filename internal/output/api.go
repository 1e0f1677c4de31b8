package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jakopako/surveyfill/internal/types"
)

// APIWriter posts every status to Uri.
type APIWriter struct {
	*WriterConfig
	client *http.Client
	logger *slog.Logger
}

func NewAPIWriter(wc *WriterConfig) (*APIWriter, error) {
	if wc.Uri == "" {
		return nil, errors.New("uri needs to be specified for the APIWriter")
	}
	return &APIWriter{
		WriterConfig: wc,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       slog.With(slog.String("writer", string(API_WRITER_TYPE))),
	}, nil
}

func (w *APIWriter) WriteStatus(statusChan <-chan types.RunStatus) {
	for status := range statusChan {
		if err := w.post(status); err != nil {
			w.logger.Error(fmt.Sprintf("error while posting status of run '%s': %v", status.RunID, err))
			continue
		}
		w.logger.Debug(fmt.Sprintf("posted status %s of run '%s'", status.Phase, status.RunID))
	}
}

func (w *APIWriter) post(status types.RunStatus) error {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, w.Uri, bytes.NewBuffer(statusJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.User != "" {
		req.SetBasicAuth(w.User, w.Password)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("status code %d", resp.StatusCode)
		}
		return fmt.Errorf("status code %d, response: %s", resp.StatusCode, body)
	}
	return nil
}
