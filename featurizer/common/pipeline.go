package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/analysis"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/encoder"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/ingest"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/registry"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/sink"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/source"
)

var log = logging.MustGetLogger("log")

const (
	logInterval      = 5 * time.Second
	sessionsSizeHint = 1 << 16
	itemsSizeHint    = 1 << 14
)

// Settings are the knobs of one run, already parsed.
type Settings struct {
	Format        encoder.Format
	Mode          encoder.Mode
	MaxEvents     int
	TopItems      int
	TopCategories int
	StatsShards   int
}

// Settings parses the textual options of c.
func (c *Config) Settings() (Settings, error) {
	format, err := encoder.ParseFormat(c.Format)
	if err != nil {
		return Settings{}, err
	}
	mode, err := encoder.ParseMode(c.Mode)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Format:        format,
		Mode:          mode,
		MaxEvents:     c.MaxEvents,
		TopItems:      c.TopItems,
		TopCategories: c.TopCategories,
	}, nil
}

// Input binds a row source to the kind of event its rows describe.
type Input struct {
	Kind   events.Kind
	Source source.RowSource
}

// Pipeline runs load, analyse and output in that order. Encoding reads the
// final registry and rankings, so nothing is written before every input is
// loaded and analysed.
type Pipeline struct {
	settings Settings
	runID    string
	sessions *events.Store
	items    *registry.Registry
	ingester *ingest.Ingester
	report   *analysis.Report
	loads    []LoadResult
}

func NewPipeline(settings Settings) *Pipeline {
	if settings.StatsShards <= 0 {
		settings.StatsShards = runtime.NumCPU()
	}
	sessions := events.NewStore(sessionsSizeHint)
	items := registry.New(itemsSizeHint)
	return &Pipeline{
		settings: settings,
		runID:    uuid.NewString(),
		sessions: sessions,
		items:    items,
		ingester: ingest.NewIngester(sessions, items),
	}
}

func (p *Pipeline) RunID() string {
	return p.runID
}

func (p *Pipeline) Sessions() *events.Store {
	return p.sessions
}

func (p *Pipeline) Items() *registry.Registry {
	return p.items
}

// LoadResult counts what one input contributed.
type LoadResult struct {
	Source  string
	Rows    int64
	Skipped int64
}

// Loads returns one result per loaded input, in load order.
func (p *Pipeline) Loads() []LoadResult {
	return p.loads
}

// Load drains src, ingesting every row as an event of the given kind. Rows that
// cannot be parsed are skipped and counted.
func (p *Pipeline) Load(ctx context.Context, src source.RowSource, kind events.Kind) error {
	log.Infof("[%s] Loading %s events from %s", p.runID, kind, src.Name())
	start := time.Now()
	progress := newProgress("events", start)
	res := LoadResult{Source: src.Name()}

	for {
		batch, err := src.Next(ctx)
		if batch != nil && !batch.IsEmpty() {
			for _, fields := range batch.Rows {
				if ingestErr := p.ingester.IngestFields(kind, fields); ingestErr != nil {
					res.Skipped++
				}
				res.Rows++
				progress.tick(res.Rows)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", src.Name(), err)
		}
	}
	p.loads = append(p.loads, res)

	stats := p.ingester.Stats()
	log.Infof("[%s] Loaded %d rows from %s in %s, skipped %d. Sessions: %d, items: %d, missing timestamps so far: %d",
		p.runID, res.Rows, src.Name(), time.Since(start).Round(time.Millisecond), res.Skipped,
		p.sessions.Len(), p.items.Len(), stats.MissingTimestamps)
	return nil
}

// Analyse computes the run statistics and the popularity rankings.
func (p *Pipeline) Analyse(ctx context.Context) (*analysis.Report, error) {
	report, err := analysis.Analyse(p.sessions, p.items, analysis.Config{
		TopItems:      p.settings.TopItems,
		TopCategories: p.settings.TopCategories,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	stats, err := p.items.ComputeStats(ctx, p.settings.StatsShards)
	if err != nil {
		return nil, fmt.Errorf("item statistics failed: %w", err)
	}
	log.Infof("[%s] Item statistics: %s", p.runID, stats)

	p.report = report
	return report, nil
}

// Output encodes every session in ascending visitor id order into out. It does
// not close out.
func (p *Pipeline) Output(ctx context.Context, out sink.Sink) error {
	if p.report == nil {
		return errors.New("output requested before analysis")
	}
	enc, err := encoder.New(encoder.Config{
		Format:    p.settings.Format,
		Mode:      p.settings.Mode,
		MaxEvents: p.settings.MaxEvents,
	}, p.items, p.report.Rankings)
	if err != nil {
		return err
	}

	log.Infof("[%s] Writing %s %s file", p.runID, p.settings.Format, p.settings.Mode)
	progress := newProgress("sessions", time.Now())
	var written int64
	for _, id := range p.sessions.VisitorIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, _ := p.sessions.Get(id)
		if s.Len() == 0 {
			continue
		}
		line, label := enc.Encode(s)
		if err := out.WriteSession(line, label); err != nil {
			return fmt.Errorf("writing session %d: %w", id, err)
		}
		written++
		progress.tick(written)
	}

	if m, ok := enc.Mapper().(*encoder.IndexMapper); ok {
		log.Infof("[%s] %d distinct features", p.runID, m.Len())
		if log.IsEnabledFor(logging.DEBUG) {
			log.Debugf("[%s] Feature index:\n%s", p.runID, featureIndex(m.Names()))
		}
	}
	log.Infof("[%s] Encoded %d sessions", p.runID, written)
	return nil
}

// Run loads every input, analyses and writes the result, closing out at the end.
func (p *Pipeline) Run(ctx context.Context, inputs []Input, out sink.Sink) error {
	err := p.run(ctx, inputs, out)
	return errors.Join(err, out.Close())
}

func (p *Pipeline) run(ctx context.Context, inputs []Input, out sink.Sink) error {
	for _, in := range inputs {
		if err := p.Load(ctx, in.Source, in.Kind); err != nil {
			return err
		}
	}
	if _, err := p.Analyse(ctx); err != nil {
		return err
	}
	return p.Output(ctx, out)
}

// featureIndex renders one "index name" pair per line.
func featureIndex(names []string) string {
	var sb strings.Builder
	for i, name := range names {
		fmt.Fprintf(&sb, "%d %s\n", i, name)
	}
	return sb.String()
}

// progress logs a running count at most once per logInterval.
type progress struct {
	what    string
	start   time.Time
	lastLog time.Time
}

func newProgress(what string, start time.Time) *progress {
	return &progress{what: what, start: start, lastLog: start}
}

func (pr *progress) tick(n int64) {
	if n%1024 != 0 {
		return
	}
	now := time.Now()
	if now.Sub(pr.lastLog) < logInterval {
		return
	}
	pr.lastLog = now
	rate := float64(n) / now.Sub(pr.start).Seconds()
	log.Infof("%d %s processed (rate: %.0f/sec)", n, pr.what, rate)
}
