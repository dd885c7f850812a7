package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/sink"
)

func TestOpenInputsCSV(t *testing.T) {
	dir := t.TempDir()
	clicksPath := filepath.Join(dir, "clicks.dat")
	buysPath := filepath.Join(dir, "buys.dat")
	require.NoError(t, os.WriteFile(clicksPath, []byte(clicks), 0o644))
	require.NoError(t, os.WriteFile(buysPath, []byte(buys), 0o644))

	cfg := &Config{
		BatchSize: 10,
		Inputs: []InputConfig{
			{Name: "clicks", Source: SourceCSV, Kind: "clicks", Path: clicksPath},
			{Name: "buys", Source: SourceCSV, Kind: "buys", Path: buysPath, Separator: ","},
		},
	}
	inputs, closeAll, err := OpenInputs(context.Background(), cfg)
	require.NoError(t, err)
	defer closeAll()

	require.Len(t, inputs, 2)
	assert.Equal(t, events.Browse, inputs[0].Kind)
	assert.Equal(t, events.Purchase, inputs[1].Kind)
	assert.Equal(t, "buys", inputs[1].Source.Name())
}

func TestOpenInputsMissingFile(t *testing.T) {
	cfg := &Config{Inputs: []InputConfig{
		{Name: "clicks", Source: SourceCSV, Kind: "browse", Path: filepath.Join(t.TempDir(), "none")},
	}}
	_, _, err := OpenInputs(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenSinkFile(t *testing.T) {
	cfg := &Config{Sink: SinkFile, OutputPath: filepath.Join(t.TempDir(), "out.vw")}
	s, err := OpenSink(cfg, "run")
	require.NoError(t, err)
	assert.IsType(t, &sink.FileSink{}, s)
	require.NoError(t, s.Close())
}

func TestOpenSinkInvalid(t *testing.T) {
	_, err := OpenSink(&Config{Sink: "kafka"}, "run")
	assert.Error(t, err)
}
