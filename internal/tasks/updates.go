package tasks

import "fmt"

// ProgressUpdate represents a progress event during a scan.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ListPacks Phase = iota
	ScanPack
	ScanSong
	PackDone
	Complete
)

func (p Phase) String() string {
	switch p {
	case ListPacks:
		return "list_packs"
	case ScanPack:
		return "scan_pack"
	case ScanSong:
		return "scan_song"
	case PackDone:
		return "pack_done"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func listPacksUpdate(root string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListPacks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Listing packs in %s...", root),
	}
}

func scanPackUpdate(step, total int, pack string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanPack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scanning %s...", step, total, pack),
	}
}

func scanSongUpdate(step, total int, pack, song string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s/%s", pack, song),
	}
}

func packDoneUpdate(step, total int, summary PackSummary) ProgressUpdate {
	mark := "·"
	if summary.Selected {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   PackDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%d/%d in range)", step, total, mark, summary.Pack, summary.FilteredCount, summary.SongCount),
		Data:    summary,
	}
}

func completeUpdate(report *Report) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    len(report.Packs),
		Total:   len(report.Packs),
		Message: fmt.Sprintf("Scanned %d packs, %d selected", len(report.Packs), len(report.Selected())),
		Data:    report,
	}
}
