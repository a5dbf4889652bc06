package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/packfilter/internal/formatter"
	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/repositories"
	"github.com/desertthunder/packfilter/internal/shared"
	"github.com/desertthunder/packfilter/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Scan walks the songs folder, applies the selection policy and writes the output files.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	root := config.Scan.Root
	if override := cmd.String("root"); override != "" {
		root = override
	}

	var format formatter.Format
	if name := cmd.String("export"); name != "" {
		if format, err = formatter.ParseFormat(name); err != nil {
			return err
		}
	}

	engine, err := r.newEngine(config)
	if err != nil {
		return err
	}

	r.logger.Info("starting scan",
		"root", root,
		"style", engine.Style(),
		"min", engine.Bounds().Min,
		"max", engine.Bounds().Max,
	)

	progress, done := r.printProgress(cmd.Bool("quiet"))
	report, err := engine.RunDir(ctx, root, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	files, err := formatter.WriteReport(report, config.Output)
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Scan Complete!")
	r.writePlain("Root: %s\n", report.Root)
	r.writePlain("Packs: %d (%d songs)\n", len(report.Packs), report.SongCount())
	r.writePlain("Selected: %d\n", len(report.Selected()))
	r.writePlain("Potential mistakes: %d\n", len(report.Mistakes()))
	r.writePlain("Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	r.writePlainln("Files:")
	r.writePlain("  %s\n", files.Debug)
	r.writePlain("  %s\n", files.Result)
	if files.Mistake != "" {
		r.writePlain("  %s\n", files.Mistake)
	}

	if cmd.Bool("summary") && len(report.Packs) > 0 {
		r.writePlain("\n%s\n", summaryTable(report))
	}

	if format != "" {
		path, err := formatter.WriteExport(report, format, cmd.String("export-path"))
		if err != nil {
			return err
		}
		r.logger.Info("exported report", "format", format, "path", path)
		r.writePlain("Exported %s report to %s\n", format, path)
	}

	if cmd.Bool("save") {
		run, err := r.saveReport(config, report)
		if err != nil {
			return err
		}
		r.writePlain("Saved run #%d (%s)\n", run.Sequence(), run.ID())
	}

	return nil
}

// printProgress prints pack-level progress updates until the returned channel is closed.
//
// The second channel is closed once the printer has drained every update.
func (r *Runner) printProgress(quiet bool) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.ListPacks:
				r.writePlain("📂 %s\n", update.Message)
			case tasks.PackDone:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return progress, done
}

func (r *Runner) saveReport(config *shared.Config, report *tasks.Report) (*models.ScanRun, error) {
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	run, err := repositories.NewReportStore(db).SaveReport(report)
	if err != nil {
		return nil, err
	}

	r.logger.Info("saved scan run", "id", run.ID(), "sequence", run.Sequence())
	return run, nil
}

// summaryTable renders one row per pack.
func summaryTable(report *tasks.Report) string {
	rows := make([][]string, 0, len(report.Packs))
	for _, p := range report.Packs {
		selected := ""
		if p.Selected {
			selected = "✓"
		}
		rows = append(rows, []string{
			p.Pack,
			strconv.Itoa(p.SongCount),
			strconv.Itoa(p.ParsedCount),
			strconv.Itoa(p.FilteredCount),
			fmt.Sprintf("%.0f%%", p.FilteredFraction()*100),
			selected,
		})
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Padding(0, 1)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PACK", "SONGS", "PARSED", "IN RANGE", "%", "SELECTED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cell.Bold(true)
			case report.Packs[row].Selected:
				return ok
			case col == 2 && report.Packs[row].Mismatch():
				return warn
			default:
				return cell
			}
		})

	return t.String()
}
