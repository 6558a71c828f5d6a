// Package tracelog wires structured logging into the translation
// pipeline the way dolthub-go-mysql-server/auth/audit.go wires an
// AuditMethod into its authentication path: a thin interface over
// *logrus.Entry, injected per call rather than held as a package global,
// so logging failures never touch translation correctness.
package tracelog

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// Logger is the subset of logrus.FieldLogger tracelog needs.
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

type nopLogger struct{}

func (nopLogger) WithFields(logrus.Fields) *logrus.Entry { return logrus.NewEntry(discard) }

// Default returns the no-op Logger used when a caller supplies none.
func Default() Logger { return nopLogger{} }

const (
	phaseMessage   = "translation phase"
	summaryMessage = "translation complete"
)

// Phase logs one pass of the translation (parse, optimize, compose) at
// Debug level, carrying whatever per-pass detail the caller has handy.
func Phase(l Logger, phase string, detail logrus.Fields) {
	if l == nil {
		l = Default()
	}
	fields := logrus.Fields{"phase": phase}
	for k, v := range detail {
		fields[k] = v
	}
	l.WithFields(fields).Debug(phaseMessage)
}

// Summary logs a single Info-level line per completed translation:
// collection, stage count, the worst-case capability verdict, warning
// count, and elapsed duration.
func Summary(l Logger, collection string, stageCount int, capability types.Capability, warningCount int, d time.Duration) {
	if l == nil {
		l = Default()
	}
	l.WithFields(logrus.Fields{
		"collection": collection,
		"stages":     stageCount,
		"capability": string(capability),
		"warnings":   warningCount,
		"duration":   d,
	}).Info(summaryMessage)
}

// Error logs a failed translation at Error level before the caller
// returns the TranslationError to its own caller.
func Error(l Logger, collection string, phase string, err error) {
	if l == nil {
		l = Default()
	}
	l.WithFields(logrus.Fields{
		"collection": collection,
		"phase":      phase,
		"err":        err,
	}).Error("translation failed")
}
