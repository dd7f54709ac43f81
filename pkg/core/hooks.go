package core

// MessageHandler receives the text of a raw host log line.
type MessageHandler func(msg string)

// EventHandler receives an event from a named log source.
type EventHandler func(ev LogEvent)

// Hooks is the subscription surface a host exposes to the relay.
type Hooks interface {
	// OnLog, OnWarning and OnError register handlers for the host's own
	// log output at the matching severity.
	OnLog(h MessageHandler)
	OnWarning(h MessageHandler)
	OnError(h MessageHandler)

	// OnLogEvent registers a handler for every other log source the host
	// knows about.
	OnLogEvent(h EventHandler)
}
