package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/packfilter/internal/formatter"
	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/shared"
	"github.com/desertthunder/packfilter/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ScanView ViewState = iota
	PackListView
	SongListView
)

// ReportSaver persists a finished report; satisfied by repositories.ReportStore.
type ReportSaver interface {
	SaveReport(report *tasks.Report) (*models.ScanRun, error)
}

// Options holds the TUI's dependencies. Store may be nil, which disables saving to history.
type Options struct {
	Engine *tasks.Engine
	Root   string
	Output shared.OutputConfig
	Store  ReportSaver
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	opts         Options
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan scanResult
	progress     tasks.ProgressUpdate
	packStep     int
	packTotal    int
	songStep     int
	songTotal    int
	finished     []string
	report       *tasks.Report
	packList     list.Model
	songList     list.Model
	selectedOnly bool
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		view:     ScanView,
		opts:     opts,
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient()),
		packList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		songList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the scan and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startScan())
}

// Report returns the most recent scan report, or nil while scanning.
func (m *Model) Report() *tasks.Report { return m.report }

// Err returns the error of the most recent scan.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-20, 20), 80)
		m.packList.SetSize(m.listSize())
		m.songList.SetSize(m.listSize())
		return m, nil

	case spinner.TickMsg:
		if m.view != ScanView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ScanView:
			return m.handleScanKeys(msg)
		case PackListView:
			return m.handlePackListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.applyProgress(msg.data.(tasks.ProgressUpdate))
		return m, waitForProgress(m.progressChan, m.done)

	case MsgScanComplete:
		res := msg.data.(scanResult)
		m.progressChan, m.done = nil, nil
		m.report, m.err = res.report, res.err
		if res.err == nil {
			m.buildPackList()
		}
		m.view = PackListView
		return m, nil

	case MsgFilesWritten:
		res := msg.data.(filesResult)
		if res.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Write failed: %v", res.err))
			return m, nil
		}
		written := []string{res.files.Debug, res.files.Result}
		if res.files.Mistake != "" {
			written = append(written, res.files.Mistake)
		}
		m.status = styles.ok.Render("Wrote " + strings.Join(written, ", "))
		return m, nil

	case MsgReportSaved:
		res := msg.data.(savedResult)
		if res.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Save failed: %v", res.err))
			return m, nil
		}
		m.status = styles.ok.Render(fmt.Sprintf("Saved run #%d", res.run.Sequence()))
		return m, nil
	}

	return m, nil
}

// applyProgress records the position of the scan from one update.
func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update

	switch update.Phase {
	case tasks.ScanPack:
		m.packStep, m.packTotal = update.Step, update.Total
		m.songStep, m.songTotal = 0, 0
	case tasks.ScanSong:
		m.songStep, m.songTotal = update.Step, update.Total
	case tasks.PackDone:
		m.packStep, m.packTotal = update.Step, update.Total
		m.songStep, m.songTotal = 0, 0
		m.finished = append(m.finished, update.Message)
		if len(m.finished) > 5 {
			m.finished = m.finished[len(m.finished)-5:]
		}
	}
}

// scanFraction estimates overall completion from the pack and song counters.
func (m *Model) scanFraction() float64 {
	if m.packTotal == 0 {
		return 0
	}

	done := float64(m.packStep - 1)
	if m.progress.Phase == tasks.PackDone || m.progress.Phase == tasks.Complete {
		done = float64(m.packStep)
	} else if m.songTotal > 0 {
		done += float64(m.songStep) / float64(m.songTotal)
	}

	return min(max(done/float64(m.packTotal), 0), 1)
}

func (m *Model) buildPackList() {
	var items []list.Item
	for _, pack := range m.report.Packs {
		if m.selectedOnly && !pack.Selected {
			continue
		}
		items = append(items, packItem{pack: pack, width: m.nameWidth()})
	}

	m.packList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.packList.Title = fmt.Sprintf("Packs in %s (%d of %d selected)", m.report.Root, len(m.report.Selected()), len(m.report.Packs))
	if m.selectedOnly {
		m.packList.Title += " • selected only"
	}
	m.packList.SetSize(m.listSize())
}

func (m *Model) buildSongList(pack tasks.PackSummary) {
	bounds := m.report.Bounds
	items := make([]list.Item, len(pack.Records))
	for i, rec := range pack.Records {
		items[i] = recordItem{record: rec, inRange: bounds.Contains(rec.Rating), width: m.nameWidth()}
	}

	m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = fmt.Sprintf("Charts in '%s' (%d-%d)", truncate(pack.Pack, m.nameWidth()), bounds.Min, bounds.Max)
	m.songList.SetSize(m.listSize())
}

// listSize leaves room around the lists for the summary and help lines.
func (m *Model) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-8, 10)
}

// nameWidth is the room left for a name in a list title.
func (m *Model) nameWidth() int {
	if m.width <= 12 {
		return maxNameWidth
	}
	return min(m.width-12, maxNameWidth)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ScanView:
		return m.renderScan()
	case PackListView:
		return m.renderPackList()
	case SongListView:
		return m.renderSongList()
	default:
		return ""
	}
}

func (m *Model) handleScanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handlePackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.packList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.packList, cmd = m.packList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.rescan):
		return m, m.restart()
	}

	if m.err != nil || m.report == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.packList.SelectedItem().(packItem); ok {
			m.buildSongList(item.pack)
			m.view = SongListView
		}
		return m, nil
	case key.Matches(msg, m.keys.selected):
		m.selectedOnly = !m.selectedOnly
		m.buildPackList()
		return m, nil
	case key.Matches(msg, m.keys.write):
		return m, m.writeFiles()
	case key.Matches(msg, m.keys.save):
		return m, m.saveReport()
	}

	var cmd tea.Cmd
	m.packList, cmd = m.packList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PackListView
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PackListView:
		m.packList, cmd = m.packList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) restart() tea.Cmd {
	m.view = ScanView
	m.report, m.err, m.status = nil, nil, ""
	m.progress = tasks.ProgressUpdate{}
	m.packStep, m.packTotal, m.songStep, m.songTotal = 0, 0, 0, 0
	m.finished = nil
	return tea.Batch(m.spinner.Tick, m.startScan())
}

// startScan runs the engine in a goroutine that owns the progress channel and closes it when done.
func (m *Model) startScan() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan scanResult, 1)
	m.progressChan, m.done = progress, done

	go func() {
		report, err := m.opts.Engine.RunDir(m.ctx, m.opts.Root, progress)
		done <- scanResult{report: report, err: err}
		close(progress)
	}()

	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan scanResult) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			res := <-done
			return scanCompleteMsg(res.report, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) writeFiles() tea.Cmd {
	report, output := m.report, m.opts.Output
	return func() tea.Msg {
		files, err := formatter.WriteReport(report, output)
		return filesWrittenMsg(files, err)
	}
}

func (m *Model) saveReport() tea.Cmd {
	if m.opts.Store == nil {
		m.status = styles.warn.Render("History is not configured")
		return nil
	}
	report, store := m.report, m.opts.Store
	return func() tea.Msg {
		run, err := store.SaveReport(report)
		return reportSavedMsg(run, err)
	}
}

func (m *Model) renderScan() string {
	title := styles.title.Render("Scanning " + m.opts.Root)

	var phase string
	switch m.progress.Phase {
	case tasks.ListPacks:
		phase = "Listing packs..."
	case tasks.ScanPack, tasks.PackDone:
		phase = fmt.Sprintf("Pack %d/%d", m.packStep, m.packTotal)
	case tasks.ScanSong:
		phase = fmt.Sprintf("Pack %d/%d • song %d/%d", m.packStep, m.packTotal, m.songStep, m.songTotal)
	default:
		phase = "Starting..."
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), phase))
	b.WriteString(m.bar.ViewAs(m.scanFraction()) + "\n\n")
	if m.progress.Message != "" {
		b.WriteString(styles.help.Render(truncate(m.progress.Message, m.nameWidth()*2)) + "\n")
	}
	for _, line := range m.finished {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderPackList() string {
	if m.err != nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.rescan, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Scan failed: %v", m.err)), helpView)
	}

	summary := fmt.Sprintf("%d songs • %d selected • %d potential mistakes",
		m.report.SongCount(), len(m.report.Selected()), len(m.report.Mistakes()))
	if len(m.report.Mistakes()) > 0 {
		summary = styles.warn.Render(summary)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.selected, m.keys.write}
	if m.opts.Store != nil {
		helpKeys = append(helpKeys, m.keys.save)
	}
	helpKeys = append(helpKeys, m.keys.rescan, m.keys.quit)
	helpView := m.help.ShortHelpView(helpKeys)

	view := fmt.Sprintf("%s\n%s", m.packList.View(), summary)
	if m.status != "" {
		view += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", view, helpView)
}

func (m *Model) renderSongList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}
