package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/packfilter/internal/chart"
	"github.com/desertthunder/packfilter/internal/tasks"
	"github.com/mattn/go-runewidth"
)

var (
	_ list.Item = packItem{}
	_ list.Item = recordItem{}
)

// maxNameWidth caps pack and song names in list titles, measured in terminal cells.
const maxNameWidth = 48

func truncate(s string, width int) string {
	if width <= 0 {
		width = maxNameWidth
	}
	return runewidth.Truncate(s, width, "…")
}

// packItem wraps [tasks.PackSummary] to implement [list.Item].
type packItem struct {
	pack  tasks.PackSummary
	width int
}

func (i packItem) FilterValue() string { return i.pack.Pack }
func (i packItem) Title() string {
	mark := "  "
	if i.pack.Selected {
		mark = "✓ "
	}
	return mark + truncate(i.pack.Pack, i.width)
}
func (i packItem) Description() string {
	desc := fmt.Sprintf("%d songs • %d parsed • %d in range (%.0f%%)",
		i.pack.SongCount, i.pack.ParsedCount, i.pack.FilteredCount, i.pack.FilteredFraction()*100)
	if i.pack.Mismatch() {
		desc = fmt.Sprintf("%s • %d unparsed", desc, i.pack.SongCount-i.pack.ParsedCount)
	}
	return desc
}

// recordItem wraps [chart.Record] to implement [list.Item].
type recordItem struct {
	record  chart.Record
	inRange bool
	width   int
}

func (i recordItem) FilterValue() string { return i.record.Song }
func (i recordItem) Title() string       { return truncate(i.record.Song, i.width) }
func (i recordItem) Description() string {
	desc := fmt.Sprintf("meter %d", i.record.Rating)
	if i.inRange {
		desc += " • in range"
	}
	return desc
}
