package shared

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// DefaultEncodings is the order chart files are decoded in when none is configured.
var DefaultEncodings = []string{"utf-8", "latin-1", "cp1252", "iso-8859-1"}

// knownEncodings maps accepted names to decoders. A nil entry is UTF-8.
var knownEncodings = map[string]encoding.Encoding{
	"utf-8":        nil,
	"utf8":         nil,
	"latin-1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"shift_jis":    japanese.ShiftJIS,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
}

type namedEncoding struct {
	name string
	enc  encoding.Encoding
}

// Decoder turns raw chart bytes into text by trying encodings in order.
type Decoder struct {
	encodings []namedEncoding
}

// NewDecoder builds a Decoder for the given encoding names; an empty list means [DefaultEncodings].
func NewDecoder(names []string) (*Decoder, error) {
	if len(names) == 0 {
		names = DefaultEncodings
	}

	d := &Decoder{encodings: make([]namedEncoding, 0, len(names))}
	for _, name := range names {
		enc, ok := knownEncodings[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		d.encodings = append(d.encodings, namedEncoding{name: name, enc: enc})
	}

	return d, nil
}

// Encodings returns the configured names in the order they are tried.
func (d *Decoder) Encodings() []string {
	names := make([]string, len(d.encodings))
	for i, e := range d.encodings {
		names[i] = e.name
	}
	return names
}

// Decode returns data as text along with the name of the first encoding that accepted it.
//
// UTF-8 accepts only valid input; other encodings are rejected when decoding
// yields replacement characters.
func (d *Decoder) Decode(data []byte) (string, string, error) {
	for _, e := range d.encodings {
		if e.enc == nil {
			if utf8.Valid(data) {
				return string(data), e.name, nil
			}
			continue
		}

		out, err := e.enc.NewDecoder().Bytes(data)
		if err != nil || strings.ContainsRune(string(out), utf8.RuneError) {
			continue
		}
		return string(out), e.name, nil
	}

	return "", "", fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(d.Encodings(), ", "))
}

// ReadLines reads and decodes the file at path and splits it into lines.
func (d *Decoder) ReadLines(path string) ([]string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines, used, err := d.DecodeLines(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	return lines, used, nil
}

// DecodeLines decodes data and splits it into lines.
func (d *Decoder) DecodeLines(data []byte) ([]string, string, error) {
	text, used, err := d.Decode(data)
	if err != nil {
		return nil, "", err
	}
	return SplitLines(text), used, nil
}

// SplitLines splits text on "\n", "\r\n" and lone "\r". A trailing newline does not produce an empty last line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
