// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// setupCommand writes the config template and prepares the history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file or the history database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// scanCommand runs the pack filter over the songs folder
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan the songs folder and write debug.txt, result.txt and potential-mistake.txt",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Songs folder, overrides scan.root",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Print a table of every pack",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Store the run in the history database",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Also export the report as csv, markdown or json",
			},
			&cli.StringFlag{
				Name:  "export-path",
				Usage: "Export file path",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print progress",
			},
		},
		Action: r.Scan,
	}
}

// historyCommand browses stored runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Stored scan runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored runs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show (0 for all)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one run and its packs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "selected",
						Usage: "Only list selected packs",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a stored run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.HistoryDelete,
			},
		},
	}
}

// tuiCommand launches the interactive scanner
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Scan interactively and browse the packs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Songs folder, overrides scan.root",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/packfilter-tui.log",
			},
		},
		Action: r.TUI,
	}
}
