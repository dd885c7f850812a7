package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const writeBufferSize = 1 << 20

// FileSink writes feature lines to path and the matching visitor ids to
// path+".label", line i of one file describing the same session as line i of
// the other.
type FileSink struct {
	lines     *os.File
	labels    *os.File
	linesBuf  *bufio.Writer
	labelsBuf *bufio.Writer
	written   int64
}

func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create %s: %w", dir, err)
		}
	}
	lines, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", path, err)
	}
	labels, err := os.Create(path + LabelSuffix)
	if err != nil {
		lines.Close()
		return nil, fmt.Errorf("could not create %s: %w", path+LabelSuffix, err)
	}
	return &FileSink{
		lines:     lines,
		labels:    labels,
		linesBuf:  bufio.NewWriterSize(lines, writeBufferSize),
		labelsBuf: bufio.NewWriterSize(labels, writeBufferSize),
	}, nil
}

func (s *FileSink) WriteSession(line, label string) error {
	if _, err := s.linesBuf.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("could not write line: %w", err)
	}
	if _, err := s.labelsBuf.WriteString(label + "\n"); err != nil {
		return fmt.Errorf("could not write label: %w", err)
	}
	s.written++
	return nil
}

// Close flushes both files. It reports every failure, not only the first.
func (s *FileSink) Close() error {
	err := errors.Join(
		s.linesBuf.Flush(),
		s.labelsBuf.Flush(),
		s.lines.Close(),
		s.labels.Close(),
	)
	log.Infof("Wrote %d sessions to %s", s.written, s.lines.Name())
	return err
}
