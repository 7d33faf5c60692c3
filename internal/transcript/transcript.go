// Package transcript turns a free-text call summary into speaker-attributed
// lines. Attribution is a prefix heuristic and is not reliable for text the
// telephony pipeline did not label.
package transcript

import "strings"

// Speaker is who said a line.
type Speaker string

const (
	Assistant    Speaker = "assistant"
	Counterparty Speaker = "counterparty"
)

var assistantPrefixes = []string{"AI:", "ServiceSaver:"}

// strippedPrefixes are removed from displayed text. Customer: lines stay
// attributed to the counterparty.
var strippedPrefixes = []string{"AI:", "ServiceSaver:", "Customer:"}

// Line is one attributed transcript line.
type Line struct {
	Speaker Speaker
	Text    string
}

// AttributeSpeaker guesses who said line from its prefix.
func AttributeSpeaker(line string) Speaker {
	for _, p := range assistantPrefixes {
		if strings.HasPrefix(line, p) {
			return Assistant
		}
	}
	return Counterparty
}

// Strip removes a single recognised speaker prefix.
func Strip(line string) string {
	for _, p := range strippedPrefixes {
		if rest, ok := strings.CutPrefix(line, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	return line
}

// Parse splits a summary into lines, dropping blank ones.
func Parse(summary string) []Line {
	var lines []Line
	for _, raw := range strings.Split(summary, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, Line{Speaker: AttributeSpeaker(raw), Text: Strip(raw)})
	}
	return lines
}

// Summaries returns the parsed transcript for provider index, or nil when
// that call has not completed.
func Summaries(summaries []string, index int) []Line {
	if index < 0 || index >= len(summaries) {
		return nil
	}
	return Parse(summaries[index])
}
