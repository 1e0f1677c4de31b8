package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jakopako/surveyfill/internal/types"
)

const statusFilename = "status.json"

// FileWriter keeps the status history of the current process in
// status.json inside FileDir. The file is rewritten on every transition
// so that it is always up to date.
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}
	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}
	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) WriteStatus(statusChan <-chan types.RunStatus) {
	path := filepath.Join(w.FileDir, statusFilename)
	allStatus := []types.RunStatus{}
	for status := range statusChan {
		allStatus = append(allStatus, status)
		if err := writeJSON(path, allStatus); err != nil {
			w.logger.Error(fmt.Sprintf("error while writing status to file %s: %v", path, err))
		}
	}
	w.logger.Debug(fmt.Sprintf("wrote %d status entries to file %s", len(allStatus), path))
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	statusJson, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, statusJson, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
