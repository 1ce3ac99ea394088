package ports

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=buildlog.go -destination=mocks/mock_buildlog.go -package=mocks

// BuildLog is the append-only, timestamped record of one build invocation.
type BuildLog interface {
	// Record appends one entry under tag. Multi-line messages become one
	// entry per line. A write failure is returned, never swallowed.
	Record(tag, message string) error
	// Close flushes and releases the sink. It is safe to call more than once.
	Close() error
}

// BuildLogOpener opens the build log for an invocation.
type BuildLogOpener interface {
	Open(path string) (BuildLog, error)
}

type buildLogKey struct{}

// ContextWithBuildLog returns a context carrying log.
func ContextWithBuildLog(ctx context.Context, log BuildLog) context.Context {
	return context.WithValue(ctx, buildLogKey{}, log)
}

// BuildLogFromContext returns the build log carried by ctx, or NopBuildLog.
func BuildLogFromContext(ctx context.Context) BuildLog {
	if log, ok := ctx.Value(buildLogKey{}).(BuildLog); ok && log != nil {
		return log
	}
	return NopBuildLog{}
}

// NopBuildLog discards every record.
type NopBuildLog struct{}

// Record implements BuildLog.
func (NopBuildLog) Record(string, string) error { return nil }

// Close implements BuildLog.
func (NopBuildLog) Close() error { return nil }
