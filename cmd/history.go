package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/repositories"
	"github.com/desertthunder/packfilter/internal/shared"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a stored run.
type runView struct {
	ID                 string     `json:"id"`
	Sequence           int        `json:"sequence"`
	Root               string     `json:"root"`
	Style              string     `json:"style"`
	MinRating          int        `json:"min_rating"`
	MaxRating          int        `json:"max_rating"`
	Threshold          float64    `json:"threshold"`
	MaxMistakeFraction float64    `json:"max_mistake_fraction"`
	PackCount          int        `json:"pack_count"`
	SelectedCount      int        `json:"selected_count"`
	MistakeCount       int        `json:"mistake_count"`
	RecordCount        int        `json:"record_count"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
	Packs              []packView `json:"packs,omitempty"`
}

// packView is the JSON shape of a stored pack result.
type packView struct {
	Pack          string `json:"pack"`
	SongCount     int    `json:"song_count"`
	ParsedCount   int    `json:"parsed_count"`
	FilteredCount int    `json:"filtered_count"`
	Selected      bool   `json:"selected"`
	Mismatch      bool   `json:"mismatch"`
}

func newRunView(run *models.ScanRun, packs []*models.PackResult) runView {
	v := runView{
		ID:                 run.ID(),
		Sequence:           run.Sequence(),
		Root:               run.Root,
		Style:              run.Style,
		MinRating:          run.MinRating,
		MaxRating:          run.MaxRating,
		Threshold:          run.Threshold,
		MaxMistakeFraction: run.MaxMistakeFraction,
		PackCount:          run.PackCount,
		SelectedCount:      run.SelectedCount,
		MistakeCount:       run.MistakeCount,
		RecordCount:        run.RecordCount,
		StartedAt:          run.StartedAt,
		FinishedAt:         run.FinishedAt,
	}
	for _, p := range packs {
		v.Packs = append(v.Packs, packView{
			Pack:          p.Pack,
			SongCount:     p.SongCount,
			ParsedCount:   p.ParsedCount,
			FilteredCount: p.FilteredCount,
			Selected:      p.Selected,
			Mismatch:      p.Mismatch,
		})
	}
	return v
}

// openStore opens the configured history database. The caller closes it with the returned func.
func (r *Runner) openStore(cmd *cli.Command) (*repositories.ReportStore, func() error, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}

	return repositories.NewReportStore(db), db.Close, nil
}

func runRef(cmd *cli.Command) (string, error) {
	ref := strings.TrimSpace(cmd.StringArg("id"))
	if ref == "" {
		return "", fmt.Errorf("%w: run ID or number", shared.ErrMissingArgument)
	}
	return ref, nil
}

// HistoryList prints stored runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run, nil)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("No stored runs. Use 'packfilter scan --save' to record one.\n")
		return nil
	}

	for _, run := range runs {
		r.writePlain("#%-4d %s  %s  %d packs, %d selected, %d potential mistakes  %s\n",
			run.Sequence(),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Root,
			run.PackCount,
			run.SelectedCount,
			run.MistakeCount,
			run.ID(),
		)
	}
	return nil
}

// HistoryShow prints one run and its packs.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	ref, err := runRef(cmd)
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := store.FindRun(ref)
	if err != nil {
		return err
	}

	packs, err := store.RunPacks(run.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("selected") {
		var selected []*models.PackResult
		for _, p := range packs {
			if p.Selected {
				selected = append(selected, p)
			}
		}
		packs = selected
	}

	if cmd.Bool("json") {
		return r.writeJSON(newRunView(run, packs), true)
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d", run.Sequence()))
	r.writePlain("ID: %s\n", run.ID())
	r.writePlain("Root: %s\n", run.Root)
	r.writePlain("Style: %s, range %d-%d\n", run.Style, run.MinRating, run.MaxRating)
	r.writePlain("Policy: in range < %.2f, unparsed <= %.2f\n", run.Threshold, run.MaxMistakeFraction)
	r.writePlain("Started: %s (%s)\n", run.StartedAt.Local().Format(time.RFC3339), run.Duration().Round(time.Millisecond))
	r.writePlain("Packs: %d, selected: %d, potential mistakes: %d, charts: %d\n",
		run.PackCount, run.SelectedCount, run.MistakeCount, run.RecordCount)

	if len(packs) > 0 {
		r.writePlain("\n")
	}
	for _, p := range packs {
		mark := " "
		if p.Selected {
			mark = "✓"
		}
		line := fmt.Sprintf("%s %s (%d/%d in range, %d parsed)", mark, p.Pack, p.FilteredCount, p.SongCount, p.ParsedCount)
		if p.Mismatch {
			line += " !"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// HistoryDelete soft-deletes a stored run and its packs.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := runRef(cmd)
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := store.FindRun(ref)
	if err != nil {
		return err
	}

	if err := store.DeleteRun(run.ID()); err != nil {
		return err
	}

	r.logger.Info("deleted scan run", "id", run.ID())
	r.writePlain("✓ Deleted run #%d\n", run.Sequence())
	return nil
}
