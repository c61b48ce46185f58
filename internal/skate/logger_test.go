package skate

import "github.com/heroiclabs/nakama-common/runtime"

// noopLogger discards everything; tests care about return values and store
// state, not log output.
type noopLogger struct{}

func (noopLogger) Debug(format string, v ...interface{}) {}
func (noopLogger) Info(format string, v ...interface{})  {}
func (noopLogger) Warn(format string, v ...interface{})  {}
func (noopLogger) Error(format string, v ...interface{}) {}
func (noopLogger) WithField(key string, v interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} { return nil }
