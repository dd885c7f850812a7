package source

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	ic "github.com/patricioibar/yoochoose-featurizer/innercommunication"
)

type ClickHouseOptions struct {
	Address  string
	Database string
	Username string
	Password string
}

// OpenClickHouse connects over the native protocol and pings the server.
func OpenClickHouse(ctx context.Context, opts ClickHouseOptions) (driver.Conn, error) {
	options := &clickhouse.Options{
		Addr: []string{opts.Address},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "yoochoose-featurizer", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	log.Infof("Connected to ClickHouse at %s", opts.Address)
	return conn, nil
}

// ClickHouseSource runs one query and hands its rows out as text fields, in the
// column order of the query. The query must select the same columns as the
// matching CSV file: visitor, timestamp, item, then category or price and quantity.
type ClickHouseSource struct {
	name      string
	conn      driver.Conn
	query     string
	batchSize int

	rows    driver.Rows
	columns []reflect.Type
}

func NewClickHouseSource(name string, conn driver.Conn, query string, batchSize int) *ClickHouseSource {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ClickHouseSource{name: name, conn: conn, query: query, batchSize: batchSize}
}

func (s *ClickHouseSource) Name() string {
	return s.name
}

func (s *ClickHouseSource) start(ctx context.Context) error {
	rows, err := s.conn.Query(ctx, s.query)
	if err != nil {
		return fmt.Errorf("%s: query failed: %w", s.name, err)
	}
	s.rows = rows
	for _, ct := range rows.ColumnTypes() {
		s.columns = append(s.columns, ct.ScanType())
	}
	return nil
}

func (s *ClickHouseSource) Next(ctx context.Context) (*ic.RowsBatch, error) {
	if s.rows == nil {
		if err := s.start(ctx); err != nil {
			return nil, err
		}
	}

	out := make([][]string, 0, s.batchSize)
	for len(out) < s.batchSize {
		if !s.rows.Next() {
			if err := s.rows.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", s.name, err)
			}
			return ic.NewRowsBatch(nil, out), io.EOF
		}

		dest := make([]any, len(s.columns))
		for i, t := range s.columns {
			dest[i] = reflect.New(t).Interface()
		}
		if err := s.rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", s.name, err)
		}

		fields := make([]string, len(dest))
		for i, d := range dest {
			fields[i] = fieldString(reflect.ValueOf(d).Elem().Interface())
		}
		out = append(out, fields)
	}
	return ic.NewRowsBatch(nil, out), nil
}

func (s *ClickHouseSource) Close() error {
	if s.rows != nil {
		return s.rows.Close()
	}
	return nil
}

// fieldString renders a scanned value the way it appears in the CSV files.
// NULLs become empty fields.
func fieldString(v any) string {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ""
	}

	switch x := rv.Interface().(type) {
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(events.TimestampLayout)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprint(rv.Interface())
}
