package chart

import "strings"

const (
	inlineFieldCount = 6
	inlineMinFields  = 5
	inlineFieldSep   = ":"
)

type inlineState int

const (
	collectingFields inlineState = iota
	skippingToTerminator
	inlineDone
)

// scanInline consumes a "#NOTES:" block starting at the cursor.
//
// Fields are the non-empty, comment-stripped lines following the marker (the
// marker's own remainder counts as the first). Up to six are collected, then
// the note data is skipped through the next lone ";".
func scanInline(c *cursor) block {
	fields := make([]string, 0, inlineFieldCount)
	if first := stripComment(strings.TrimPrefix(c.line(), inlineMarker)); first != "" {
		fields = append(fields, first)
	}
	c.advance()

	state := collectingFields
	for state != inlineDone {
		switch state {
		case collectingFields:
			if len(fields) >= inlineFieldCount || c.done() {
				state = skippingToTerminator
				continue
			}
			if f := stripComment(c.line()); f != "" {
				fields = append(fields, f)
			}
			c.advance()
		case skippingToTerminator:
			c.skipPastTerminator()
			state = inlineDone
		}
	}

	return inlineBlock(fields)
}

// inlineBlock reads the style (field 1) and meter (field 4) out of collected fields.
func inlineBlock(fields []string) block {
	var b block
	if len(fields) < inlineMinFields {
		return b
	}
	b.style = strings.TrimRight(strings.TrimSpace(fields[0]), inlineFieldSep)
	b.setRating(strings.TrimRight(strings.TrimSpace(fields[3]), inlineFieldSep))
	return b
}
