// package formatter writes scan reports: the plain-text debug, result and mistake files, plus CSV, Markdown and JSON exports
package formatter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/packfilter/internal/chart"
	"github.com/desertthunder/packfilter/internal/shared"
	"github.com/desertthunder/packfilter/internal/tasks"
)

// Format is a report export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON:
		return f, nil
	case Markdown, "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (want csv, markdown or json)", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// WriteDebugList writes one "pack/song: rating" line per record.
func WriteDebugList(w io.Writer, records []chart.Record) error {
	return writeLines(w, len(records), func(i int) string { return records[i].String() })
}

// WriteSelection writes one selected pack name per line.
func WriteSelection(w io.Writer, packs []string) error {
	return writeLines(w, len(packs), func(i int) string { return packs[i] })
}

// WriteMistakes writes one "pack - Expected: X, Parsed: Y" line per pack.
func WriteMistakes(w io.Writer, packs []tasks.PackSummary) error {
	return writeLines(w, len(packs), func(i int) string { return packs[i].MistakeLine() })
}

func writeLines(w io.Writer, n int, line func(int) string) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		if _, err := bw.WriteString(line(i) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// OutputFiles contains the paths written by [WriteReport]. Mistake is empty when no pack mismatched.
type OutputFiles struct {
	Debug   string
	Result  string
	Mistake string
}

// WriteReport writes the debug listing, the selected packs and, when there are any, the potential mistakes
// into the files named by out.
func WriteReport(report *tasks.Report, out shared.OutputConfig) (*OutputFiles, error) {
	if out.Dir != "" {
		if err := os.MkdirAll(out.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	files := &OutputFiles{Debug: out.DebugPath(), Result: out.ResultPath()}

	if err := writeFile(files.Debug, func(w io.Writer) error { return WriteDebugList(w, report.Records()) }); err != nil {
		return nil, fmt.Errorf("failed to write debug file: %w", err)
	}

	if err := writeFile(files.Result, func(w io.Writer) error { return WriteSelection(w, report.Selected()) }); err != nil {
		return nil, fmt.Errorf("failed to write result file: %w", err)
	}

	if mistakes := report.Mistakes(); len(mistakes) > 0 {
		files.Mistake = out.MistakePath()
		if err := writeFile(files.Mistake, func(w io.Writer) error { return WriteMistakes(w, mistakes) }); err != nil {
			return nil, fmt.Errorf("failed to write mistake file: %w", err)
		}
	}

	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportToCSV converts a Report to CSV with one row per pack:
// Pack, Songs, Parsed, InRange, InRangeFraction, Selected, Mismatch
func ExportToCSV(report *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Pack", "Songs", "Parsed", "InRange", "InRangeFraction", "Selected", "Mismatch"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pack := range report.Packs {
		record := []string{
			pack.Pack,
			strconv.Itoa(pack.SongCount),
			strconv.Itoa(pack.ParsedCount),
			strconv.Itoa(pack.FilteredCount),
			strconv.FormatFloat(pack.FilteredFraction(), 'f', 3, 64),
			strconv.FormatBool(pack.Selected),
			strconv.FormatBool(pack.Mismatch()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Report to a Markdown document with a pack table and the selected packs.
func ExportToMarkdown(report *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Pack scan\n\n")
	buf.WriteString(fmt.Sprintf("**Root**: %s\n", report.Root))
	buf.WriteString(fmt.Sprintf("**Style**: %s\n", report.Style))
	buf.WriteString(fmt.Sprintf("**Range**: %d-%d\n", report.Bounds.Min, report.Bounds.Max))
	buf.WriteString(fmt.Sprintf("**Packs**: %d (%d songs)\n\n", len(report.Packs), report.SongCount()))

	buf.WriteString("## Packs\n\n")
	buf.WriteString("| Pack | Songs | Parsed | In range | Selected |\n")
	buf.WriteString("|------|------:|-------:|---------:|:--------:|\n")
	for _, pack := range report.Packs {
		mark := ""
		if pack.Selected {
			mark = "x"
		}
		buf.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s |\n",
			escapeCell(pack.Pack), pack.SongCount, pack.ParsedCount, pack.FilteredCount, mark))
	}

	buf.WriteString("\n## Selected\n\n")
	selected := report.Selected()
	if len(selected) == 0 {
		buf.WriteString("_None_\n")
	}
	for i, name := range selected {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
	}

	if mistakes := report.Mistakes(); len(mistakes) > 0 {
		buf.WriteString("\n## Potential mistakes\n\n")
		for _, pack := range mistakes {
			buf.WriteString(fmt.Sprintf("- %s\n", pack.MistakeLine()))
		}
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ToJSON renders the report, including the selected pack names, as indented JSON.
func ToJSON(report *tasks.Report) ([]byte, error) {
	doc := struct {
		*tasks.Report
		Selected []string `json:"selected"`
	}{report, report.Selected()}

	if doc.Selected == nil {
		doc.Selected = []string{}
	}

	return json.MarshalIndent(doc, "", "  ")
}

// WriteExport renders report in format f and writes it to path.
//
// Defaults to packfilter_report{ext} in the working directory.
func WriteExport(report *tasks.Report, f Format, path string) (string, error) {
	if path == "" {
		path = "packfilter_report" + f.Ext()
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case CSV:
		data, err = ExportToCSV(report)
	case Markdown:
		data, err = ExportToMarkdown(report)
	case JSON:
		data, err = ToJSON(report)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
