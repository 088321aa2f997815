/*
Package notation encodes musical events as the discrete symbols the markov
package consumes. An event token is a pitch and a duration code joined by a
colon, e.g. "C4:8", "F#3:q" or "R:4" for a rest. A training corpus is plain
text with one sequence per line and whitespace-separated event tokens.
*/
package notation

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Event is one discrete musical event.
type Event struct {
	Pitch    string // note name with optional accidental and octave, or "R" for a rest
	Duration string // duration code, e.g. "4", "8", "16.", "q"
}

// eventRegex splits a token into its pitch and duration parts. Pitches are
// a note letter with an optional sharp/flat and octave, or the rest marker.
var eventRegex = regexp.MustCompile(`^([A-Ga-g][#b]?-?[0-9]+|[Rr]):([A-Za-z0-9]+\.?)$`)

// Parse decodes a single event token.
func Parse(token string) (Event, error) {
	parts := eventRegex.FindStringSubmatch(token)
	if parts == nil {
		return Event{}, fmt.Errorf("notation: malformed event token %q (want pitch:duration, e.g. \"C4:8\")", token)
	}
	return Event{Pitch: parts[1], Duration: parts[2]}, nil
}

// String returns the canonical token form of an event.
func (e Event) String() string {
	return e.Pitch + ":" + e.Duration
}

// ReadCorpus reads a training corpus from r: one sequence per line, events
// separated by whitespace. Blank lines are skipped. Every token is
// validated; the first malformed one fails the whole read, naming its line.
func ReadCorpus(r io.Reader) ([][]string, error) {
	var corpus [][]string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		seq := make([]string, 0, len(fields))
		for _, tok := range fields {
			ev, err := Parse(tok)
			if err != nil {
				return nil, fmt.Errorf("notation: line %d: %w", lineNo, err)
			}
			seq = append(seq, ev.String())
		}
		corpus = append(corpus, seq)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("notation: reading corpus: %w", err)
	}
	return corpus, nil
}

// WriteSequences writes generated sequences to w in corpus format, one
// sequence per line.
func WriteSequences(w io.Writer, sequences [][]string) error {
	for _, s := range sequences {
		if _, err := fmt.Fprintln(w, strings.Join(s, " ")); err != nil {
			return fmt.Errorf("notation: writing sequences: %w", err)
		}
	}
	return nil
}
