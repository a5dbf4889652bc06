package chart

import "strings"

type structuredState int

const (
	trackingTags structuredState = iota
	skippingNoteData
	structuredDone
)

// scanStructured consumes a "#NOTEDATA:" block starting at the cursor.
//
// "#STEPSTYPE:" and "#METER:" are tracked (the last occurrence wins) until
// "#NOTES:", whose body is skipped through the next lone ";" or end of input.
func scanStructured(c *cursor) block {
	var b block
	c.advance()

	state := trackingTags
	for state != structuredDone {
		switch state {
		case trackingTags:
			if c.done() {
				state = structuredDone
				continue
			}
			line := c.line()
			switch {
			case strings.HasPrefix(line, styleMarker):
				b.style = tagValue(line, styleMarker)
			case strings.HasPrefix(line, meterMarker):
				b.setRating(tagValue(line, meterMarker))
			case strings.HasPrefix(line, notesMarker):
				state = skippingNoteData
			}
			c.advance()
		case skippingNoteData:
			c.skipPastTerminator()
			state = structuredDone
		}
	}

	return b
}

// tagValue returns the value of a "#TAG:value;" line without its terminator.
func tagValue(line, tag string) string {
	return strings.TrimRight(strings.TrimSpace(strings.TrimPrefix(line, tag)), terminator)
}
