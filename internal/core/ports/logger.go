package ports

// Logger defines the interface for console logging. It is distinct from the
// BuildLog, which is the persistent record of an invocation.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
}
