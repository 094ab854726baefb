package orchestrator

import (
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"go.uber.org/zap"
)

// Reporter surfaces advisories to the user. Implementations must not block the caller for
// long: the orchestrator reports from its event loop.
type Reporter interface {
	Report(advisory da.Advisory)
}

type ReporterFunc func(advisory da.Advisory)

func (f ReporterFunc) Report(advisory da.Advisory) {
	f(advisory)
}

type multiReporter []Reporter

func (m multiReporter) Report(advisory da.Advisory) {
	for _, r := range m {
		r.Report(advisory)
	}
}

// MultiReporter fans an advisory out to every non-nil reporter.
func MultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type logReporter struct {
	log *zap.Logger
}

// NewLogReporter writes advisories to log; error advisories at warn level.
func NewLogReporter(log *zap.Logger) Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Report(advisory da.Advisory) {
	fields := []zap.Field{zap.String("kind", string(advisory.Kind))}
	if advisory.Status != "" {
		fields = append(fields, zap.String("status", advisory.Status))
	}
	if advisory.Kind == da.ADVISORY_ERROR {
		r.log.Warn(advisory.Message, fields...)
		return
	}
	r.log.Info(advisory.Message, fields...)
}

// Journal receives one record per submission and one per resolution.
type Journal interface {
	Record(record da.SessionRecord)
}
