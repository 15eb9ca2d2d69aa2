package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// FileWriter represents a writer that writes the result to a json file
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) *FileWriter {
	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", "file")),
	}
}

func (w *FileWriter) Write(r *Result) error {
	if w.FilePath == "" {
		return errors.New("file path needs to be specified for the FileWriter")
	}
	// Responses usually contain characters like < and > which should not
	// be replaced by unicode escapes.
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("error while encoding result: %w", err)
	}
	if err := os.WriteFile(w.FilePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("error while writing result to file: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote result to file %s", w.FilePath))
	return nil
}
