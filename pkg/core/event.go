package core

// LogEvent is one log record captured from a host hook. It is formatted
// and sent as soon as it is created; nothing keeps it afterwards.
type LogEvent struct {
	Text     string
	Severity Severity
	Source   string
}
