// Package chart extracts difficulty ratings from StepMania chart files.
//
// Two block dialects are recognised:
//
//  1. [Inline] : the `.sm` layout, where a `#NOTES:` line opens a block whose
//     colon-terminated fields (style, description, difficulty, meter, radar
//     values) follow on their own lines and the note data ends with a lone `;`.
//  2. [Structured] : the `.ssc` layout, where `#NOTEDATA:` opens a block and
//     `#STEPSTYPE:` / `#METER:` appear as tagged lines before `#NOTES:`.
//
// A [Scanner] classifies each trimmed line, hands block openers to the
// matching state machine, and collects one [Record] per well-formed block
// whose style matches. Malformed blocks produce nothing; the scanner never
// returns an error.
package chart
