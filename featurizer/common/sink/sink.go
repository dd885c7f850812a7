package sink

import "github.com/op/go-logging"

var log = logging.MustGetLogger("log")

// Sink receives one encoded line per session, in output order.
type Sink interface {
	WriteSession(line, label string) error
	Close() error
}

// LabelSuffix is appended to the output path for the parallel visitor id file.
const LabelSuffix = ".label"
