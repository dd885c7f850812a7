package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/encoder"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/sink"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/source"
	ic "github.com/patricioibar/yoochoose-featurizer/innercommunication"
)

const clicks = `1,2014-04-07T10:51:09.277Z,214536502,0
1,2014-04-07T10:54:09.868Z,214536500,0
1,2014-04-07T10:54:46.998Z,214536506,0
2,2014-04-07T13:56:37.614Z,214662742,S
2,2014-04-07T13:57:19.373Z,214662742,S
3,2014-04-02T13:17:46.940Z,214717089,2
not-a-visitor,2014-04-02T13:17:46.940Z,214717089,2
`

const buys = `3,2014-04-02T13:30:12.318Z,214717089,1046,4

3,2014-04-02T13:30:12.318Z,214717089
`

type memorySink struct {
	lines, labels []string
	closed        bool
}

func (s *memorySink) WriteSession(line, label string) error {
	s.lines = append(s.lines, line)
	s.labels = append(s.labels, label)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func inputs() []Input {
	return []Input{
		{Kind: events.Browse, Source: source.NewCSVReaderSource("clicks", strings.NewReader(clicks), ',', 2)},
		{Kind: events.Purchase, Source: source.NewCSVReaderSource("buys", strings.NewReader(buys), ',', 2)},
	}
}

func settings(f encoder.Format, m encoder.Mode) Settings {
	return Settings{Format: f, Mode: m, MaxEvents: 400, TopItems: 400, TopCategories: 100, StatsShards: 2}
}

func TestPipelineRunVWTrain(t *testing.T) {
	out := &memorySink{}
	p := NewPipeline(settings(encoder.VW, encoder.Train))
	require.NoError(t, p.Run(context.Background(), inputs(), out))

	assert.True(t, out.closed)
	assert.Equal(t, []string{"1", "2", "3"}, out.labels)
	require.Len(t, out.lines, 3)

	assert.True(t, strings.HasPrefix(out.lines[0], "0 1.0 '1|AggregateFeatures numClicks:3 lifespan:217 "), out.lines[0])
	assert.Equal(t, 3, strings.Count(out.lines[0], "|Event"))

	assert.Contains(t, out.lines[1], "special:1 category-simplified:3")
	assert.Contains(t, out.lines[1], "catSimilarity:-1 ")

	buyer := out.lines[2]
	assert.True(t, strings.HasPrefix(buyer, "1 1.0 '3|AggregateFeatures numClicks:3 "), buyer)
	assert.Contains(t, buyer, "viewedPopularItems:1.0 viewedPopularCats:1.0 catSimilarity:2 ")
	assert.Contains(t, buyer, "214717089item-was-purchased:1 214717089item-was-multi-purchase:1 214717089item-price:1046")
	assert.Equal(t, 3, strings.Count(buyer, "|Event"))

	assert.Equal(t, []LoadResult{
		{Source: "clicks", Rows: 7, Skipped: 1},
		{Source: "buys", Rows: 2, Skipped: 0},
	}, p.Loads())

	item, ok := p.Items().Get(214717089)
	require.True(t, ok)
	assert.Equal(t, 2, item.CategoryID)
	assert.True(t, item.SeenWithPurchased)
	assert.Equal(t, 1, item.Purchases)
}

func TestPipelineFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.svm")
	out, err := sink.NewFileSink(path)
	require.NoError(t, err)

	p := NewPipeline(settings(encoder.LIBSVM, encoder.Train))
	require.NoError(t, p.Run(context.Background(), inputs(), out))

	lines, err := os.ReadFile(path)
	require.NoError(t, err)
	labels, err := os.ReadFile(path + sink.LabelSuffix)
	require.NoError(t, err)

	lineRows := strings.Split(strings.TrimSuffix(string(lines), "\n"), "\n")
	labelRows := strings.Split(strings.TrimSuffix(string(labels), "\n"), "\n")
	require.Len(t, lineRows, p.Sessions().Len())
	assert.Equal(t, []string{"1", "2", "3"}, labelRows)

	for i, line := range lineRows {
		label := "0"
		if labelRows[i] == "3" {
			label = "1"
		}
		assert.True(t, strings.HasPrefix(line, label+" 0:"), line)
		assert.NotContains(t, line, "|")
	}
}

func TestPipelineRunIsDeterministic(t *testing.T) {
	var runs [2]*memorySink
	for i := range runs {
		runs[i] = &memorySink{}
		require.NoError(t, NewPipeline(settings(encoder.LIBSVM, encoder.Test)).Run(context.Background(), inputs(), runs[i]))
	}
	assert.Equal(t, runs[0].lines, runs[1].lines)
}

func TestFeatureIndex(t *testing.T) {
	assert.Equal(t, "0 numClicks\n1 lifespan\n", featureIndex([]string{"numClicks", "lifespan"}))
	assert.Empty(t, featureIndex(nil))
}

func TestOutputBeforeAnalyse(t *testing.T) {
	p := NewPipeline(settings(encoder.VW, encoder.Train))
	assert.Error(t, p.Output(context.Background(), &memorySink{}))
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Next(context.Context) (*ic.RowsBatch, error) {
	return nil, errors.New("disk on fire")
}
func (failingSource) Close() error { return nil }

func TestRunStopsOnSourceFailure(t *testing.T) {
	out := &memorySink{}
	err := NewPipeline(settings(encoder.VW, encoder.Train)).Run(context.Background(),
		[]Input{{Kind: events.Browse, Source: failingSource{}}}, out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Empty(t, out.lines)
	assert.True(t, out.closed)
}

func TestConfigSettings(t *testing.T) {
	c := Config{Format: "libsvm", Mode: "test", MaxEvents: 5, TopItems: 3, TopCategories: 2}
	s, err := c.Settings()
	require.NoError(t, err)
	assert.Equal(t, encoder.LIBSVM, s.Format)
	assert.Equal(t, encoder.Test, s.Mode)
	assert.Equal(t, 5, s.MaxEvents)

	c.Format = "arff"
	_, err = c.Settings()
	assert.Error(t, err)
}
