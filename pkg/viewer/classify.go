package viewer

import (
	"regexp"
	"strings"
)

// TimestampPattern matches a time-of-day token with optional AM/PM,
// fractional seconds, an optional "( 60 FPS)" counter and the whitespace
// that follows. Its presence anywhere marks a line as a new record.
var TimestampPattern = regexp.MustCompile(`\d{1,2}:\d{1,2}:\d{1,2}(?:\s[APap][Mm])?(?:\.\d{1,3})?(?:\s+\(\s*-*\d+\s?FPS\s?\))?\s*`)

// Rule maps a case-insensitive pattern to a color.
type Rule struct {
	Pattern *regexp.Regexp
	Color   Color
}

// ClassifiedLine is one line ready for printing.
type ClassifiedLine struct {
	Text      string
	NewRecord bool
	Color     Color
}

func rule(pattern string, c Color) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Color: c}
}

var defaultRules = []Rule{
	rule(`\[(?:error|fatal)\]|failed load: could not gather|exception(?: in runningcoroutine)?|<\w{32}>:0`, Red),
	rule(`restoring currently updating root`, DarkRed),
	rule(`\[info\]`, Green),
	rule(`\[message\]`, DarkGreen),
	rule(`\[(?:debug|trace)\]|resonite \(unity\) game pack`, Blue),
	rule(`\[(?:warn|warning)\]|updated:\s?https|lastmodifyinguser|broadcastkey|unresolved|can be modified only through the drive reference`, Yellow),
	rule(`user (?:join|joined|spawn|spawned)|spawning user|User\s+(\S+)\s+Role:`, DarkYellow),
	rule(`signalr|clearing expired status|status (?:before|after) clearing|status initialized|updated:\s+`, DarkMagenta),
	rule(`sendstatustouser:`, Magenta),
	rule(`running refresh on:`, Cyan),
	rule(`loading object from record|loading from uri|loading from record|source record`, DarkCyan),
}

var defaultInvalid = []*regexp.Regexp{
	regexp.MustCompile(`(?i)session updated, forcing status update`),
	regexp.MustCompile(`(?i)\[debug\]\[resonitemodloader\]\s+intercepting call to appdomain\.getassemblies\(\)`),
	regexp.MustCompile(`(?i)^\s*rebuild:`),
	regexp.MustCompile(`(?i)featureflag`),
}

// DefaultRules returns the classification table in priority order.
func DefaultRules() []Rule {
	return append([]Rule(nil), defaultRules...)
}

// DefaultInvalidRules returns the noise patterns of the validity filter.
func DefaultInvalidRules() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), defaultInvalid...)
}

// Classifier holds the filter and rule tables.
type Classifier struct {
	Invalid []*regexp.Regexp
	Rules   []Rule
}

// NewClassifier returns a classifier over the default tables.
func NewClassifier() *Classifier {
	return &Classifier{Invalid: DefaultInvalidRules(), Rules: DefaultRules()}
}

// HasTimestamp reports whether msg carries a timestamp token.
func HasTimestamp(msg string) bool {
	return TimestampPattern.MatchString(msg)
}

// StripTimestamp removes every timestamp token from msg.
func StripTimestamp(msg string) string {
	return TimestampPattern.ReplaceAllString(msg, "")
}

// IsValid reports whether text passes the noise filter.
func (c *Classifier) IsValid(text string) bool {
	for _, re := range c.Invalid {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

// Classify returns the color of the first matching rule, or Gray.
func (c *Classifier) Classify(text string) Color {
	for _, r := range c.Rules {
		if r.Pattern.MatchString(text) {
			return r.Color
		}
	}
	return Gray
}

// isBlank reports whether a payload carries nothing printable.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
