package chart

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// SingleStyle is the steps type of one-pad (four panel) charts.
const SingleStyle = "dance-single"

const (
	inlineMarker     = "#NOTES:"
	structuredMarker = "#NOTEDATA:"
	styleMarker      = "#STEPSTYPE:"
	meterMarker      = "#METER:"
	notesMarker      = "#NOTES:"
	terminator       = ";"
	commentMarker    = "//"
	byteOrderMark    = "\ufeff"
)

// Record is a single rating found in a song's chart file.
type Record struct {
	Pack   string `json:"pack"`
	Song   string `json:"song"`
	Rating int    `json:"rating"`
}

// String renders the record as "pack/song: rating".
func (r Record) String() string {
	return fmt.Sprintf("%s/%s: %d", r.Pack, r.Song, r.Rating)
}

// Result holds every matching rating of a file and the subset inside the scan [Bounds].
//
// Filtered is always a subset of All and both keep the order of appearance.
type Result struct {
	All      []Record
	Filtered []Record
}

// Parsed reports whether at least one rating was found.
func (r Result) Parsed() bool { return len(r.All) > 0 }

// HasFiltered reports whether at least one rating fell inside the bounds.
func (r Result) HasFiltered() bool { return len(r.Filtered) > 0 }

// Bounds is an inclusive rating range.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether Min <= rating <= Max.
func (b Bounds) Contains(rating int) bool {
	return b.Min <= rating && rating <= b.Max
}

// Dialect identifies one of the two chart block layouts.
type Dialect int

const (
	AnyDialect Dialect = iota // recognise both block markers
	Inline                    // .sm
	Structured                // .ssc
)

func (d Dialect) String() string {
	switch d {
	case Inline:
		return "sm"
	case Structured:
		return "ssc"
	default:
		return "any"
	}
}

// Ext returns the file extension used by the dialect, including the dot.
func (d Dialect) Ext() string {
	switch d {
	case Inline, Structured:
		return "." + d.String()
	default:
		return ""
	}
}

// Richer reports whether d carries more chart metadata than other and should be preferred.
func (d Dialect) Richer(other Dialect) bool {
	return d > other
}

// DialectForPath maps a chart file name to its dialect by extension (case-insensitive).
func DialectForPath(name string) (Dialect, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".sm":
		return Inline, true
	case ".ssc":
		return Structured, true
	default:
		return AnyDialect, false
	}
}

// Scanner extracts ratings for one steps type.
//
// The zero Style means [SingleStyle]; the zero Dialect recognises both block markers.
type Scanner struct {
	Style   string
	Bounds  Bounds
	Dialect Dialect
}

// Parse scans lines for [SingleStyle] ratings of pack/song, filtering by b.
func Parse(lines []string, pack, song string, b Bounds) Result {
	return Scanner{Style: SingleStyle, Bounds: b}.Scan(lines, pack, song)
}

// Scan walks lines once and returns the records of every block whose style matches.
func (s Scanner) Scan(lines []string, pack, song string) Result {
	style := s.Style
	if style == "" {
		style = SingleStyle
	}

	var res Result
	emit := func(b block) {
		if b.style != style || !b.hasRating {
			return
		}
		rec := Record{Pack: pack, Song: song, Rating: b.rating}
		res.All = append(res.All, rec)
		if s.Bounds.Contains(b.rating) {
			res.Filtered = append(res.Filtered, rec)
		}
	}

	c := newCursor(lines)
	for !c.done() {
		switch s.classify(c.line()) {
		case Inline:
			emit(scanInline(c))
		case Structured:
			emit(scanStructured(c))
		default:
			c.advance()
		}
	}

	return res
}

// classify returns the dialect whose block opens on line, or [AnyDialect] when none does.
func (s Scanner) classify(line string) Dialect {
	if s.Dialect != Inline && strings.HasPrefix(line, structuredMarker) {
		return Structured
	}
	if s.Dialect != Structured && strings.HasPrefix(line, inlineMarker) {
		return Inline
	}
	return AnyDialect
}

// block is what a state machine learned about one chart.
type block struct {
	style     string
	rating    int
	hasRating bool
}

// setRating parses text as the block's meter; anything but an integer clears it.
func (b *block) setRating(text string) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		b.rating, b.hasRating = 0, false
		return
	}
	b.rating, b.hasRating = n, true
}

// cursor is a read position over the input lines.
type cursor struct {
	lines []string
	pos   int
}

func newCursor(lines []string) *cursor {
	return &cursor{lines: lines}
}

func (c *cursor) done() bool { return c.pos >= len(c.lines) }

func (c *cursor) advance() { c.pos++ }

// line returns the current line with surrounding whitespace removed.
func (c *cursor) line() string {
	l := c.lines[c.pos]
	if c.pos == 0 {
		l = strings.TrimPrefix(l, byteOrderMark)
	}
	return strings.TrimSpace(l)
}

// skipPastTerminator moves to the next lone ";" line and consumes it.
func (c *cursor) skipPastTerminator() {
	for !c.done() && c.line() != terminator {
		c.advance()
	}
	if !c.done() {
		c.advance()
	}
}

// stripComment drops a trailing "//" comment and trims the remainder.
func stripComment(s string) string {
	s = strings.TrimSpace(s)
	if before, _, found := strings.Cut(s, commentMarker); found {
		s = before
	}
	return strings.TrimSpace(s)
}
