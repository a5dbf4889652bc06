package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/packfilter/internal/repositories"
	"github.com/desertthunder/packfilter/internal/shared"
	"github.com/desertthunder/packfilter/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive scanner.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	root := config.Scan.Root
	if override := cmd.String("root"); override != "" {
		root = override
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.newEngine(config)
	if err != nil {
		return err
	}

	opts := ui.Options{Engine: engine, Root: root, Output: config.Output}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		r.logger.Warn("history disabled", "error", err)
	} else {
		defer db.Close()
		opts.Store = repositories.NewReportStore(db)
	}

	model := ui.NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
