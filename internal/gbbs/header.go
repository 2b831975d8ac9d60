package gbbs

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Party is a "number,name" line from a message header.
type Party struct {
	ID   int
	Name string
}

// MessageHeader is the four-line preamble GBBS Pro writes at the start of
// every message:
//
//	Subject
//	12,TO NAME
//	34,FROM NAME
//	Date : 02/05/88 10:15:00 PM
//
// Sysops could customize the date line, so only the word "Date" followed by
// ':' or '->' is required.
type MessageHeader struct {
	Subject  string
	To       Party
	From     Party
	DateLine string
}

// headerLines is the number of lines the header grammar needs.
const headerLines = 4

// splitLines splits on CR or LF.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}

// ParseHeader applies the header grammar to the start of text.
func ParseHeader(text string) (MessageHeader, bool) {
	lines := splitLines(text)
	if len(lines) < headerLines {
		return MessageHeader{}, false
	}
	to, ok := parseParty(lines[1])
	if !ok {
		return MessageHeader{}, false
	}
	from, ok := parseParty(lines[2])
	if !ok {
		return MessageHeader{}, false
	}
	if !isDateLine(lines[3]) {
		return MessageHeader{}, false
	}
	return MessageHeader{
		Subject:  lines[0],
		To:       to,
		From:     from,
		DateLine: lines[3],
	}, true
}

// IsMessageStart reports whether text begins with a message header.
func IsMessageStart(text string) bool {
	_, ok := ParseHeader(text)
	return ok
}

// isMessageStartBytes applies the grammar to decoded block bytes.
func isMessageStartBytes(decoded []byte) bool {
	return IsMessageStart(string(decoded))
}

// parseParty matches "digits," at the start of a line.
func parseParty(line string) (Party, bool) {
	comma := strings.IndexByte(line, ',')
	if comma <= 0 {
		return Party{}, false
	}
	for i := 0; i < comma; i++ {
		if line[i] < '0' || line[i] > '9' {
			return Party{}, false
		}
	}
	id, err := strconv.Atoi(line[:comma])
	if err != nil {
		return Party{}, false
	}
	return Party{ID: id, Name: strings.TrimSpace(line[comma+1:])}, true
}

func isDateLine(line string) bool {
	return strings.Contains(line, "Date") &&
		(strings.Contains(line, ":") || strings.Contains(line, "->"))
}

// DefaultDateLayout is the timestamp format of the stock GBBS Pro header.
const DefaultDateLayout = "1/2/06 3:04:05 PM"

var dateRe = regexp.MustCompile(`Date\s*(?:->|[:-])\s*(\d{1,2}/\d{1,2}/\d{2})\s+(\d{1,2}:\d{2}:\d{2})\s+([AP]M)`)

// DateParser extracts message timestamps. Layouts are additional Go time
// layouts tried against the text following the date marker when the stock
// format does not match.
type DateParser struct {
	Layouts  []string
	Location *time.Location
}

// Parse finds and parses the date of a message.
func (p DateParser) Parse(text string) (time.Time, bool) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		t, err := time.ParseInLocation(DefaultDateLayout, m[1]+" "+m[2]+" "+m[3], loc)
		if err == nil {
			return t, true
		}
	}
	if len(p.Layouts) == 0 {
		return time.Time{}, false
	}
	value, ok := dateValue(text)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range p.Layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateValue returns what follows the marker on the first date line.
func dateValue(text string) (string, bool) {
	for _, line := range splitLines(text) {
		i := strings.Index(line, "Date")
		if i < 0 {
			continue
		}
		rest := line[i+len("Date"):]
		if j := strings.Index(rest, "->"); j >= 0 {
			return strings.TrimSpace(rest[j+2:]), true
		}
		if j := strings.IndexByte(rest, ':'); j >= 0 {
			return strings.TrimSpace(rest[j+1:]), true
		}
	}
	return "", false
}
