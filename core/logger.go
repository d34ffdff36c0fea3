package core

// Logger is the logging contract shared by the apps and services.
// Extra args may carry an error, a map[string]interface{} of custom data or the request user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
