package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/desertthunder/packfilter/internal/chart"
	"github.com/desertthunder/packfilter/internal/shared"
	tu "github.com/desertthunder/packfilter/internal/testing"
)

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(EngineOpts{
		Bounds: chart.Bounds{Min: 7, Max: 10},
		Policy: Policy{SelectionThreshold: 0.25, MaxMistakeFraction: 0.1},
		Logger: shared.NewLogger(io.Discard),
	})
}

func TestSelectChartFile(t *testing.T) {
	fsys := fstest.MapFS{
		"Pack/Both/song.sm":           file(tu.SMChart("dance-single", "8")),
		"Pack/Both/song.ssc":          file(tu.SSCChart(5)),
		"Pack/OnlySM/song.sm":         file(tu.SMChart("dance-single", "8")),
		"Pack/None/song.ogg":          file("audio"),
		"Pack/Nested/charts/song.SSC": file(tu.SSCChart(9)),
		"Pack/Nested/song.sm":         file(tu.SMChart("dance-single", "8")),
		"Pack/Many/a.ssc":             file(tu.SSCChart(3)),
		"Pack/Many/b.ssc":             file(tu.SSCChart(4)),
	}

	tc := []struct {
		dir     string
		want    string
		dialect chart.Dialect
		ok      bool
	}{
		{"Pack/Both", "Pack/Both/song.ssc", chart.Structured, true},
		{"Pack/OnlySM", "Pack/OnlySM/song.sm", chart.Inline, true},
		{"Pack/None", "", chart.AnyDialect, false},
		{"Pack/Nested", "Pack/Nested/charts/song.SSC", chart.Structured, true},
		{"Pack/Many", "Pack/Many/b.ssc", chart.Structured, true},
		{"Pack/Missing", "", chart.AnyDialect, false},
	}

	for _, tt := range tc {
		t.Run(tt.dir, func(t *testing.T) {
			got, dialect, ok := SelectChartFile(fsys, tt.dir)
			if got != tt.want || dialect != tt.dialect || ok != tt.ok {
				t.Errorf("SelectChartFile(%q) = (%q, %v, %v), want (%q, %v, %v)",
					tt.dir, got, dialect, ok, tt.want, tt.dialect, tt.ok)
			}
		})
	}
}

func TestScanSong(t *testing.T) {
	t.Run("only the richer dialect is parsed", func(t *testing.T) {
		fsys := fstest.MapFS{
			"Pack/Song/song.sm":  file(tu.SMChart("dance-single", "8")),
			"Pack/Song/song.ssc": file(tu.SSCChart(5)),
		}

		res := newTestEngine(t).ScanSong(fsys, "Pack", "Song")

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Dialect != chart.Structured || res.Path != "Pack/Song/song.ssc" {
			t.Errorf("expected ssc to be parsed, got %s (%v)", res.Path, res.Dialect)
		}
		if len(res.Result.All) != 1 || res.Result.All[0].Rating != 5 {
			t.Errorf("expected only the ssc rating 5, got %v", res.Result.All)
		}
		if res.Result.HasFiltered() {
			t.Errorf("expected no filtered ratings, got %v", res.Result.Filtered)
		}
	})

	t.Run("sm file uses the inline scanner", func(t *testing.T) {
		fsys := fstest.MapFS{"Pack/Song/song.sm": file(tu.SMChart("dance-single", "8"))}

		res := newTestEngine(t).ScanSong(fsys, "Pack", "Song")

		want := chart.Record{Pack: "Pack", Song: "Song", Rating: 8}
		if len(res.Result.All) != 1 || res.Result.All[0] != want {
			t.Errorf("expected %v, got %v", want, res.Result.All)
		}
		if len(res.Result.Filtered) != 1 || res.Result.Filtered[0] != want {
			t.Errorf("expected filtered %v, got %v", want, res.Result.Filtered)
		}
		if res.Encoding != "utf-8" {
			t.Errorf("expected utf-8, got %s", res.Encoding)
		}
	})

	t.Run("latin-1 chart falls back", func(t *testing.T) {
		fsys := fstest.MapFS{"Pack/Song/song.sm": file("#TITLE:Caf\xe9;\n" + tu.SMChart("dance-single", "9"))}

		res := newTestEngine(t).ScanSong(fsys, "Pack", "Song")

		if res.Encoding != "latin-1" {
			t.Errorf("expected latin-1, got %q", res.Encoding)
		}
		if !res.Result.Parsed() {
			t.Error("expected the chart to parse")
		}
	})

	t.Run("undecodable chart yields empty result", func(t *testing.T) {
		decoder, err := shared.NewDecoder([]string{"utf-8"})
		if err != nil {
			t.Fatalf("failed to create decoder: %v", err)
		}
		engine := NewEngine(EngineOpts{Decoder: decoder, Logger: shared.NewLogger(io.Discard)})
		fsys := fstest.MapFS{"Pack/Song/song.ssc": file("#NOTEDATA:;\n#METER:\xff;\n")}

		res := engine.ScanSong(fsys, "Pack", "Song")

		if !errors.Is(res.Err, shared.ErrUndecodable) {
			t.Errorf("expected ErrUndecodable, got %v", res.Err)
		}
		if res.Result.Parsed() {
			t.Error("expected empty result")
		}
	})

	t.Run("song without charts", func(t *testing.T) {
		fsys := fstest.MapFS{"Pack/Song/song.ogg": file("audio")}

		res := newTestEngine(t).ScanSong(fsys, "Pack", "Song")

		if res.Path != "" || res.Err != nil || res.Result.Parsed() {
			t.Errorf("expected empty song result, got %+v", res)
		}
	})
}

func TestPolicy(t *testing.T) {
	policy := Policy{SelectionThreshold: 0.25, MaxMistakeFraction: 0.1}

	tc := []struct {
		name     string
		summary  PackSummary
		selected bool
	}{
		{
			name:     "too many songs in range",
			summary:  PackSummary{SongCount: 10, ParsedCount: 9, FilteredCount: 3},
			selected: false,
		},
		{
			name:     "few songs in range, mistakes at the limit",
			summary:  PackSummary{SongCount: 10, ParsedCount: 9, FilteredCount: 2},
			selected: true,
		},
		{
			name:     "too many unparsed songs",
			summary:  PackSummary{SongCount: 10, ParsedCount: 8, FilteredCount: 0},
			selected: false,
		},
		{
			name:     "fraction equal to threshold is not selected",
			summary:  PackSummary{SongCount: 4, ParsedCount: 4, FilteredCount: 1},
			selected: false,
		},
		{
			name:     "empty pack",
			summary:  PackSummary{},
			selected: false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Selects(tt.summary); got != tt.selected {
				t.Errorf("Selects(%+v) = %v, want %v", tt.summary, got, tt.selected)
			}
		})
	}

	t.Run("fractions", func(t *testing.T) {
		s := PackSummary{Pack: "P", SongCount: 10, ParsedCount: 9, FilteredCount: 3}
		if s.FilteredFraction() != 0.3 {
			t.Errorf("expected filtered fraction 0.3, got %v", s.FilteredFraction())
		}
		if s.MistakeFraction() != 0.1 {
			t.Errorf("expected mistake fraction 0.1, got %v", s.MistakeFraction())
		}
		if !s.Mismatch() {
			t.Error("expected mismatch")
		}
		if s.MistakeLine() != "P - Expected: 10, Parsed: 9" {
			t.Errorf("unexpected mistake line %q", s.MistakeLine())
		}
	})
}

// libraryFS builds two packs:
//
//	Easy Pack: 10 songs, 9 parsed, 2 with a rating in 7..10 -> selected, mismatch
//	Hard Pack: 2 songs, both parsed and in range -> not selected
func libraryFS() fstest.MapFS {
	fsys := fstest.MapFS{
		"readme.txt":               file("not a pack"),
		"Easy Pack/banner.png":     file("not a song"),
		"Hard Pack/A/a.ssc":        file(tu.SSCChart(8, 12)),
		"Hard Pack/B/b.sm":         file(tu.SMChart("dance-single", "9")),
		"Easy Pack/Song 10/x.ogg":  file("no chart"),
		"Easy Pack/Song 01/01.ssc": file(tu.SSCChart(7)),
		"Easy Pack/Song 02/02.sm":  file(tu.SMChart("dance-single", "10")),
	}
	for i := 3; i <= 9; i++ {
		fsys[fmt.Sprintf("Easy Pack/Song %02d/c.sm", i)] = file(tu.SMChart("dance-single", "3"))
	}
	return fsys
}

func TestScanPack(t *testing.T) {
	summary, err := newTestEngine(t).ScanPack(context.Background(), libraryFS(), "Easy Pack", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.SongCount != 10 || summary.ParsedCount != 9 || summary.FilteredCount != 2 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if len(summary.Records) != 9 {
		t.Errorf("expected 9 records, got %d", len(summary.Records))
	}
	if summary.Records[0].Song != "Song 01" || summary.Records[0].Rating != 7 {
		t.Errorf("expected records in song order, got %v", summary.Records[0])
	}
	if summary.Selected {
		t.Error("ScanPack should not apply the policy")
	}

	t.Run("missing pack", func(t *testing.T) {
		if _, err := newTestEngine(t).ScanPack(context.Background(), libraryFS(), "Nope", nil); err == nil {
			t.Error("expected error for missing pack")
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 100)
		report, err := newTestEngine(t).Run(context.Background(), libraryFS(), "/songs", progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		if len(report.Packs) != 2 || report.Packs[0].Pack != "Easy Pack" || report.Packs[1].Pack != "Hard Pack" {
			t.Fatalf("unexpected packs %+v", report.Packs)
		}

		selected := report.Selected()
		if len(selected) != 1 || selected[0] != "Easy Pack" {
			t.Errorf("expected only Easy Pack selected, got %v", selected)
		}

		mistakes := report.Mistakes()
		if len(mistakes) != 1 || mistakes[0].MistakeLine() != "Easy Pack - Expected: 10, Parsed: 9" {
			t.Errorf("unexpected mistakes %v", mistakes)
		}

		records := report.Records()
		if len(records) != 12 {
			t.Fatalf("expected 12 records, got %d", len(records))
		}
		last := records[len(records)-1]
		if last != (chart.Record{Pack: "Hard Pack", Song: "B", Rating: 9}) {
			t.Errorf("unexpected last record %v", last)
		}

		if report.SongCount() != 12 {
			t.Errorf("expected 12 songs, got %d", report.SongCount())
		}
		if report.Root != "/songs" || report.Style != chart.SingleStyle || report.Bounds.Min != 7 {
			t.Errorf("unexpected report settings %+v", report)
		}
		if report.FinishedAt.Before(report.StartedAt) {
			t.Error("expected finish after start")
		}

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 || phases[0] != ListPacks || phases[len(phases)-1] != Complete {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("full channel does not block", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		if _, err := newTestEngine(t).Run(context.Background(), libraryFS(), "/songs", progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestEngine(t).Run(ctx, libraryFS(), "/songs", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty library", func(t *testing.T) {
		report, err := newTestEngine(t).Run(context.Background(), fstest.MapFS{}, "/songs", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Packs) != 0 || len(report.Selected()) != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
	})
}

func TestRunDir(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := newTestEngine(t).RunDir(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
		if !errors.Is(err, shared.ErrRootNotFound) {
			t.Errorf("expected ErrRootNotFound, got %v", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.txt")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		_, err := newTestEngine(t).RunDir(context.Background(), path, nil)
		if !errors.Is(err, shared.ErrNotDirectory) {
			t.Errorf("expected ErrNotDirectory, got %v", err)
		}
	})

	t.Run("on disk", func(t *testing.T) {
		root := tu.NewLibrary(t, map[string]string{"Pack/Song/song.ssc": tu.SSCChart(9)})

		report, err := newTestEngine(t).RunDir(context.Background(), root, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Packs) != 1 || report.Packs[0].FilteredCount != 1 {
			t.Errorf("unexpected report %+v", report.Packs)
		}
	})
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Scan.Style = "dance-double"

	engine, err := NewEngineFromConfig(cfg, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.Style() != "dance-double" || engine.Bounds() != (chart.Bounds{Min: 7, Max: 10}) {
		t.Errorf("unexpected engine settings: %s %v", engine.Style(), engine.Bounds())
	}
	if engine.Policy().SelectionThreshold != 0.25 {
		t.Errorf("unexpected policy %+v", engine.Policy())
	}

	cfg.Scan.Encodings = []string{"morse"}
	if _, err := NewEngineFromConfig(cfg, nil); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
