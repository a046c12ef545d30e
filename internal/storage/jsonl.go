package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"simpleSwap/internal/model"
)

// JSONLWriter writes JSON values to a file, one per line.
type JSONLWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLWriter opens path, creating parent directories. Without
// appendMode an existing file is truncated.
func NewJSONLWriter(path string, appendMode bool) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &JSONLWriter{file: file, writer: bufio.NewWriter(file)}, nil
}

// Write appends one value.
func (w *JSONLWriter) Write(value interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(value)
}

func (w *JSONLWriter) write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

// Flush pushes buffered lines to the file.
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Flush()
}

// PutLogBatch appends a batch of log records and flushes.
func (w *JSONLWriter) PutLogBatch(logs []model.LogRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, record := range logs {
		if err := w.write(record); err != nil {
			return fmt.Errorf("log record: %w", err)
		}
	}
	return w.writer.Flush()
}

// PutResults appends operation results and flushes.
func (w *JSONLWriter) PutResults(_ context.Context, results []model.OperationResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, result := range results {
		if err := w.write(result); err != nil {
			return fmt.Errorf("result %s: %w", result.ID, err)
		}
	}
	return w.writer.Flush()
}

// Close flushes and closes the file.
func (w *JSONLWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// EventStream writes the events carried by operation results, one event per
// line.
type EventStream struct {
	w *JSONLWriter
}

func NewEventStream(w *JSONLWriter) EventStream {
	return EventStream{w: w}
}

func (s EventStream) PutResults(_ context.Context, results []model.OperationResult) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, result := range results {
		for _, event := range result.Events {
			if err := s.w.write(event); err != nil {
				return fmt.Errorf("event %s/%d: %w", result.ID, event.LogIndex, err)
			}
		}
	}
	return s.w.writer.Flush()
}

// ScanJSONL calls fn for every non-blank line of r with its 1-based line
// number. Lines up to 10MiB are accepted.
func ScanJSONL(r io.Reader, fn func(lineNo int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
