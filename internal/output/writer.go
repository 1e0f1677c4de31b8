// Package output provides the writers that publish the run status of a
// campaign.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/jakopako/surveyfill/internal/types"
)

// Writer publishes the run status transitions it receives until the
// channel is closed.
type Writer interface {
	WriteStatus(statusChan <-chan types.RunStatus)
}

// WriterConfig defines the necessary paramters to make a new writer.
type WriterConfig struct {
	Type     WriterType `yaml:"type" env:"TYPE" env-default:"stdout"`
	Uri      string     `yaml:"uri" env:"URI"`
	User     string     `yaml:"user" env:"USER"`         // we want to be able to pass credentials via env vars
	Password string     `yaml:"password" env:"PASSWORD"` // we want to be able to pass credentials via env vars
	FileDir  string     `yaml:"filedir" env:"FILEDIR"`
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
	API_WRITER_TYPE    WriterType = "api"
	NONE_WRITER_TYPE   WriterType = "none"
)

// NewWriter returns a new writer depending on the writer type. A nil
// Writer is returned for the none type.
func NewWriter(wc *WriterConfig) (Writer, error) {
	return newWriter(wc, os.Stdout)
}

func newWriter(wc *WriterConfig, stdout io.Writer) (Writer, error) {
	switch wc.Type {
	case STDOUT_WRITER_TYPE, "":
		return NewStdoutWriter(stdout), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	case API_WRITER_TYPE:
		return NewAPIWriter(wc)
	case NONE_WRITER_TYPE:
		return nil, nil
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}
