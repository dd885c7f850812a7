package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is the layout of the training file.
type Format int

const (
	// VW is the Vowpal Wabbit namespaced format.
	VW Format = iota + 1
	// LIBSVM is the sparse index:value format read by XGBoost.
	LIBSVM
)

// ParseFormat accepts any letter case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "vw":
		return VW, nil
	case "libsvm":
		return LIBSVM, nil
	}
	return 0, fmt.Errorf("unsupported format %q", s)
}

func (f Format) String() string {
	switch f {
	case VW:
		return "VW"
	case LIBSVM:
		return "LIBSVM"
	}
	return "unknown"
}

// Mode tells whether labels are known (training) or withheld (test).
type Mode int

const (
	Train Mode = iota + 1
	Test
)

// ParseMode accepts any letter case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "train":
		return Train, nil
	case "test":
		return Test, nil
	}
	return 0, fmt.Errorf("unsupported mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case Train:
		return "TRAIN"
	case Test:
		return "TEST"
	}
	return "unknown"
}

// LabelMapper turns feature names into the tokens written to the file.
type LabelMapper interface {
	Map(name string) string
}

// identityMapper keeps names as they are (VW).
type identityMapper struct{}

func (identityMapper) Map(name string) string { return name }

// IndexMapper assigns increasing integers to names in order of first use. The
// mapping is only stable within one run.
type IndexMapper struct {
	indexes map[string]int
	next    int
}

func NewIndexMapper() *IndexMapper {
	return &IndexMapper{indexes: make(map[string]int)}
}

func (m *IndexMapper) Map(name string) string {
	idx, ok := m.indexes[name]
	if !ok {
		idx = m.next
		m.indexes[name] = idx
		m.next++
	}
	return strconv.Itoa(idx)
}

func (m *IndexMapper) Len() int {
	return len(m.indexes)
}

// Names returns the feature names ordered by index.
func (m *IndexMapper) Names() []string {
	out := make([]string, len(m.indexes))
	for name, idx := range m.indexes {
		out[idx] = name
	}
	return out
}

func newMapper(f Format) LabelMapper {
	if f == LIBSVM {
		return NewIndexMapper()
	}
	return identityMapper{}
}
