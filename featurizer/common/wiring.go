package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/sink"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/source"
	mw "github.com/patricioibar/yoochoose-featurizer/middleware"
)

// OpenInputs builds one source per configured input, in configuration order.
// The returned closer releases every source and the ClickHouse connection.
func OpenInputs(ctx context.Context, cfg *Config) ([]Input, func() error, error) {
	var (
		inputs []Input
		conn   driver.Conn
	)
	closeAll := func() error {
		var errs []error
		for _, in := range inputs {
			errs = append(errs, in.Source.Close())
		}
		if conn != nil {
			errs = append(errs, conn.Close())
		}
		return errors.Join(errs...)
	}

	for _, ic := range cfg.Inputs {
		kind, err := events.ParseKind(ic.Kind)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}

		var src source.RowSource
		switch ic.Source {
		case SourceCSV:
			sep := source.DefaultSeparator
			if ic.Separator != "" {
				sep = []rune(ic.Separator)[0]
			}
			src, err = source.NewCSVSource(ic.Name, ic.Path, sep, cfg.BatchSize)
		case SourceClickHouse:
			if conn == nil {
				conn, err = source.OpenClickHouse(ctx, source.ClickHouseOptions{
					Address:  cfg.ClickHouse.Address,
					Database: cfg.ClickHouse.Database,
					Username: cfg.ClickHouse.Username,
					Password: cfg.ClickHouse.Password,
				})
				if err != nil {
					break
				}
			}
			src = source.NewClickHouseSource(ic.Name, conn, ic.Query, cfg.BatchSize)
		default:
			err = fmt.Errorf("invalid source %q", ic.Source)
		}
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("input %s: %w", ic.Name, err)
		}
		inputs = append(inputs, Input{Kind: kind, Source: src})
	}
	return inputs, closeAll, nil
}

// OpenSink builds the configured output. Queue messages are routed with runID.
func OpenSink(cfg *Config, runID string) (sink.Sink, error) {
	switch cfg.Sink {
	case SinkFile:
		return sink.NewFileSink(cfg.OutputPath)
	case SinkQueue:
		producer, err := mw.NewProducer(cfg.OutputExchange, cfg.MiddlewareAddress, runID)
		if err != nil {
			return nil, fmt.Errorf("could not create output producer: %w", err)
		}
		return sink.NewQueueSink(producer, runID, cfg.BatchSize), nil
	}
	return nil, fmt.Errorf("invalid sink %q", cfg.Sink)
}
