package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	ic "github.com/patricioibar/yoochoose-featurizer/innercommunication"
)

const DefaultSeparator = ','

// CSVSource reads a headerless delimited file, one event per line. Lines with
// broken quoting are logged and skipped.
type CSVSource struct {
	name      string
	file      io.Closer
	reader    *csv.Reader
	batchSize int
	line      int64
}

func NewCSVSource(name, path string, separator rune, batchSize int) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return newCSVSource(name, file, file, separator, batchSize), nil
}

// NewCSVReaderSource reads rows from r, which is not closed by Close.
func NewCSVReaderSource(name string, r io.Reader, separator rune, batchSize int) *CSVSource {
	return newCSVSource(name, r, nil, separator, batchSize)
}

func newCSVSource(name string, r io.Reader, closer io.Closer, separator rune, batchSize int) *CSVSource {
	if separator == 0 {
		separator = DefaultSeparator
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	reader := csv.NewReader(r)
	reader.Comma = separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return &CSVSource{name: name, file: closer, reader: reader, batchSize: batchSize}
}

func (s *CSVSource) Name() string {
	return s.name
}

func (s *CSVSource) Next(ctx context.Context) (*ic.RowsBatch, error) {
	rows := make([][]string, 0, s.batchSize)
	for len(rows) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := s.reader.Read()
		if err == io.EOF {
			return ic.NewRowsBatch(nil, rows), io.EOF
		}
		s.line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			log.Warningf("%s: skipping line %d: %v", s.name, s.line, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read failed at line %d: %w", s.name, s.line, err)
		}
		rows = append(rows, record)
	}
	return ic.NewRowsBatch(nil, rows), nil
}

func (s *CSVSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
