// package tasks implements the pack scan: file selection, aggregation and the selection policy.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/packfilter/internal/chart"
	"github.com/desertthunder/packfilter/internal/shared"
)

// SongResult is the outcome of scanning one song directory.
type SongResult struct {
	Pack     string        // Pack directory name
	Song     string        // Song directory name
	Path     string        // Chart file that was parsed, empty when the song has none
	Dialect  chart.Dialect // Dialect of Path
	Encoding string        // Encoding that decoded Path
	Result   chart.Result  // Ratings found
	Err      error         // Read or decode failure; Result is empty when set
}

// PackSummary aggregates the songs of one pack.
type PackSummary struct {
	Pack          string         `json:"pack"`
	SongCount     int            `json:"song_count"`
	ParsedCount   int            `json:"parsed_count"`
	FilteredCount int            `json:"filtered_count"`
	Selected      bool           `json:"selected"`
	Records       []chart.Record `json:"-"`
}

// Mismatch reports whether some songs produced no rating.
func (p PackSummary) Mismatch() bool {
	return p.SongCount != p.ParsedCount
}

// FilteredFraction is the share of songs with at least one in-range chart.
func (p PackSummary) FilteredFraction() float64 {
	if p.SongCount == 0 {
		return 0
	}
	return float64(p.FilteredCount) / float64(p.SongCount)
}

// MistakeFraction is the share of songs that produced no rating.
func (p PackSummary) MistakeFraction() float64 {
	if p.SongCount == 0 {
		return 0
	}
	return float64(p.SongCount-p.ParsedCount) / float64(p.SongCount)
}

// MistakeLine renders the summary as "pack - Expected: X, Parsed: Y".
func (p PackSummary) MistakeLine() string {
	return fmt.Sprintf("%s - Expected: %d, Parsed: %d", p.Pack, p.SongCount, p.ParsedCount)
}

// Policy holds the two fixed selection thresholds.
type Policy struct {
	SelectionThreshold float64 `json:"selection_threshold"`
	MaxMistakeFraction float64 `json:"max_mistake_fraction"`
}

// Selects reports whether a non-empty pack has few enough in-range songs and few enough unparsed ones.
func (p Policy) Selects(s PackSummary) bool {
	if s.SongCount == 0 {
		return false
	}
	return s.FilteredFraction() < p.SelectionThreshold && s.MistakeFraction() <= p.MaxMistakeFraction
}

// Report is the result of scanning a whole songs folder.
type Report struct {
	Root       string        `json:"root"`
	Style      string        `json:"style"`
	Bounds     chart.Bounds  `json:"bounds"`
	Policy     Policy        `json:"policy"`
	Packs      []PackSummary `json:"packs"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Selected returns the names of selected packs in scan order.
func (r *Report) Selected() []string {
	var names []string
	for _, p := range r.Packs {
		if p.Selected {
			names = append(names, p.Pack)
		}
	}
	return names
}

// Mistakes returns the packs whose parsed count differs from their song count.
func (r *Report) Mistakes() []PackSummary {
	var out []PackSummary
	for _, p := range r.Packs {
		if p.Mismatch() {
			out = append(out, p)
		}
	}
	return out
}

// Records returns every rating found, pack by pack, in scan order.
func (r *Report) Records() []chart.Record {
	var out []chart.Record
	for _, p := range r.Packs {
		out = append(out, p.Records...)
	}
	return out
}

// SongCount is the number of songs scanned across all packs.
func (r *Report) SongCount() int {
	n := 0
	for _, p := range r.Packs {
		n += p.SongCount
	}
	return n
}

// Engine scans songs folders with a fixed scanner, policy and decoder.
type Engine struct {
	scanner chart.Scanner
	policy  Policy
	decoder *shared.Decoder
	logger  *log.Logger
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Style   string
	Bounds  chart.Bounds
	Policy  Policy
	Decoder *shared.Decoder
	Logger  *log.Logger
}

// NewEngine creates an Engine, defaulting the style to [chart.SingleStyle], the decoder to
// [shared.DefaultEncodings] and the logger to stderr.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Style == "" {
		opts.Style = chart.SingleStyle
	}
	if opts.Decoder == nil {
		opts.Decoder, _ = shared.NewDecoder(nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		scanner: chart.Scanner{Style: opts.Style, Bounds: opts.Bounds},
		policy:  opts.Policy,
		decoder: opts.Decoder,
		logger:  opts.Logger,
	}
}

// NewEngineFromConfig creates an Engine from the scan and selection sections of cfg.
func NewEngineFromConfig(cfg *shared.Config, logger *log.Logger) (*Engine, error) {
	decoder, err := shared.NewDecoder(cfg.Scan.Encodings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	return NewEngine(EngineOpts{
		Style:  cfg.Scan.Style,
		Bounds: chart.Bounds{Min: cfg.Scan.MinRating, Max: cfg.Scan.MaxRating},
		Policy: Policy{
			SelectionThreshold: cfg.Selection.Threshold,
			MaxMistakeFraction: cfg.Selection.MaxMistakeFraction,
		},
		Decoder: decoder,
		Logger:  logger,
	}), nil
}

// Policy returns the selection policy the engine applies.
func (e *Engine) Policy() Policy { return e.policy }

// Bounds returns the rating range the engine filters by.
func (e *Engine) Bounds() chart.Bounds { return e.scanner.Bounds }

// Style returns the steps type the engine reads.
func (e *Engine) Style() string { return e.scanner.Style }

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SelectChartFile walks dir and returns the chart file the song is judged by.
//
// An .ssc file is preferred over an .sm file. When several files share the
// preferred dialect the last one in lexical walk order is returned; callers
// should not rely on that tie-break.
func SelectChartFile(fsys fs.FS, dir string) (string, chart.Dialect, bool) {
	found := make(map[chart.Dialect]string)

	_ = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if dialect, ok := chart.DialectForPath(p); ok {
			found[dialect] = p
		}
		return nil
	})

	best := chart.AnyDialect
	for dialect := range found {
		if dialect.Richer(best) {
			best = dialect
		}
	}
	if best == chart.AnyDialect {
		return "", chart.AnyDialect, false
	}
	return found[best], best, true
}

// ScanSong scans the song directory pack/song of fsys.
//
// A song without chart files, or whose chart cannot be read or decoded, yields an empty result.
func (e *Engine) ScanSong(fsys fs.FS, pack, song string) SongResult {
	res := SongResult{Pack: pack, Song: song}

	p, dialect, ok := SelectChartFile(fsys, path.Join(pack, song))
	if !ok {
		e.logger.Debug("no chart file", "pack", pack, "song", song)
		return res
	}
	res.Path, res.Dialect = p, dialect

	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		res.Err = fmt.Errorf("failed to read chart: %w", err)
		e.logger.Warn("failed to read chart", "path", p, "error", err)
		return res
	}

	lines, used, err := e.decoder.DecodeLines(data)
	if err != nil {
		res.Err = err
		e.logger.Warn("failed to decode chart", "path", p, "error", err)
		return res
	}
	res.Encoding = used
	if first := e.decoder.Encodings()[0]; used != first {
		e.logger.Debug("decoded chart with fallback encoding", "path", p, "encoding", used)
	}

	scanner := e.scanner
	scanner.Dialect = dialect
	res.Result = scanner.Scan(lines, pack, song)

	return res
}

// ScanPack scans every song directory of pack and returns its counts and records.
//
// The Selected field is left false; [Engine.Run] applies the policy.
func (e *Engine) ScanPack(ctx context.Context, fsys fs.FS, pack string, progress chan<- ProgressUpdate) (PackSummary, error) {
	summary := PackSummary{Pack: pack}

	songs, err := subdirs(fsys, pack)
	if err != nil {
		return summary, fmt.Errorf("failed to list songs in %s: %w", pack, err)
	}

	for i, song := range songs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		e.sendProgress(progress, scanSongUpdate(i+1, len(songs), pack, song))

		res := e.ScanSong(fsys, pack, song)
		summary.SongCount++
		if res.Result.Parsed() {
			summary.ParsedCount++
			summary.Records = append(summary.Records, res.Result.All...)
		}
		if res.Result.HasFiltered() {
			summary.FilteredCount++
		}
	}

	return summary, nil
}

// Run scans every pack directory at the top of fsys. root is recorded in the report only.
func (e *Engine) Run(ctx context.Context, fsys fs.FS, root string, progress chan<- ProgressUpdate) (*Report, error) {
	report := &Report{
		Root:      root,
		Style:     e.scanner.Style,
		Bounds:    e.scanner.Bounds,
		Policy:    e.policy,
		StartedAt: time.Now(),
	}

	e.sendProgress(progress, listPacksUpdate(root))

	packs, err := subdirs(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}

	for i, pack := range packs {
		e.sendProgress(progress, scanPackUpdate(i+1, len(packs), pack))

		summary, err := e.ScanPack(ctx, fsys, pack, progress)
		if err != nil {
			return nil, err
		}
		summary.Selected = e.policy.Selects(summary)

		e.logger.Info("scanned pack",
			"pack", pack,
			"songs", summary.SongCount,
			"parsed", summary.ParsedCount,
			"in_range", summary.FilteredCount,
			"selected", summary.Selected,
		)
		if summary.Mismatch() {
			e.logger.Warn("potential mistake", "pack", pack, "expected", summary.SongCount, "parsed", summary.ParsedCount)
		}

		report.Packs = append(report.Packs, summary)
		e.sendProgress(progress, packDoneUpdate(i+1, len(packs), summary))
	}

	report.FinishedAt = time.Now()
	e.sendProgress(progress, completeUpdate(report))
	return report, nil
}

// RunDir checks that root is a directory and runs the scan over it.
func (e *Engine) RunDir(ctx context.Context, root string, progress chan<- ProgressUpdate) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotDirectory, root)
	}

	return e.Run(ctx, os.DirFS(root), root, progress)
}

// subdirs lists the directories (following symlinks) directly inside dir, sorted by name.
func subdirs(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := fs.Stat(fsys, path.Join(dir, entry.Name())); err == nil && info.IsDir() {
				names = append(names, entry.Name())
			}
		}
	}

	return names, nil
}
