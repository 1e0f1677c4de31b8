package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jakopako/surveyfill/internal/types"
)

// StdoutWriter prints every status as one line of JSON.
type StdoutWriter struct {
	out    io.Writer
	logger *slog.Logger
}

func NewStdoutWriter(out io.Writer) *StdoutWriter {
	return &StdoutWriter{
		out:    out,
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) WriteStatus(statusChan <-chan types.RunStatus) {
	encoder := json.NewEncoder(w.out)
	encoder.SetEscapeHTML(false)
	for status := range statusChan {
		if err := encoder.Encode(status); err != nil {
			w.logger.Error(fmt.Sprintf("error while writing status of run '%s': %v", status.RunID, err))
		}
	}
}
