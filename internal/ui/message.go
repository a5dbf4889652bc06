package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/packfilter/internal/formatter"
	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgScanComplete
	MsgFilesWritten
	MsgReportSaved
)

type scanResult struct {
	report *tasks.Report
	err    error
}

type filesResult struct {
	files *formatter.OutputFiles
	err   error
}

type savedResult struct {
	run *models.ScanRun
	err error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// scanCompleteMsg is the constructor for [MsgScanComplete]
func scanCompleteMsg(report *tasks.Report, err error) Msg {
	return Msg{kind: MsgScanComplete, data: scanResult{report, err}}
}

// filesWrittenMsg is the constructor for [MsgFilesWritten]
func filesWrittenMsg(files *formatter.OutputFiles, err error) Msg {
	return Msg{kind: MsgFilesWritten, data: filesResult{files, err}}
}

// reportSavedMsg is the constructor for [MsgReportSaved]
func reportSavedMsg(run *models.ScanRun, err error) Msg {
	return Msg{kind: MsgReportSaved, data: savedResult{run, err}}
}
