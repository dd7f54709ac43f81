package viewer

import (
	"strings"
	"unicode/utf8"
)

// DisconnectMessage is printed once per run of connection resets.
const DisconnectMessage = "Disconnected from server. Attempting to reconnect..."

// State is the viewer's memory between datagrams: the color of the last
// printed record and the last message handled. Both are single slots.
type State struct {
	classifier     *Classifier
	currentColor   Color
	lastLogMessage string
}

// NewState starts with the neutral color and no previous message.
func NewState(c *Classifier) *State {
	if c == nil {
		c = NewClassifier()
	}
	return &State{classifier: c, currentColor: Gray}
}

// Process runs one raw message through the pipeline. It returns false
// when nothing should be printed.
//
// A message containing a timestamp starts a new record: after stripping
// it is filtered, classified and becomes the color for the lines that
// follow. A message without one continues the previous record and is
// printed in that record's color.
func (s *State) Process(payload []byte) (ClassifiedLine, bool) {
	msg := decode(payload)
	if isBlank(msg) {
		return ClassifiedLine{}, false
	}
	defer func() { s.lastLogMessage = msg }()

	text := StripTimestamp(msg)
	if !HasTimestamp(msg) {
		return ClassifiedLine{Text: text, Color: s.currentColor}, true
	}

	if !s.classifier.IsValid(text) {
		return ClassifiedLine{}, false
	}
	color := s.classifier.Classify(text)
	s.currentColor = color
	return ClassifiedLine{Text: text, NewRecord: true, Color: color}, true
}

// NoteDisconnect records a connection reset and reports whether the
// disconnect notice should be printed.
func (s *State) NoteDisconnect() bool {
	if s.lastLogMessage == DisconnectMessage {
		return false
	}
	s.lastLogMessage = DisconnectMessage
	return true
}

// CurrentColor returns the color continuation lines are printed in.
func (s *State) CurrentColor() Color { return s.currentColor }

// LastMessage returns the most recently handled raw message.
func (s *State) LastMessage() string { return s.lastLogMessage }

// decode interprets payload as UTF-8, replacing invalid sequences.
func decode(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	return strings.ToValidUTF8(string(payload), "\uFFFD")
}
