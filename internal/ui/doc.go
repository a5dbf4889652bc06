// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI runs one library scan and then lets the user browse the result:
//  1. [ScanView] : spinner and progress bar while the engine walks the songs folder
//  2. [PackListView] : every pack with its counts, selected packs marked
//  3. [SongListView] : the ratings found in one pack, in-range ratings marked
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Engine], which runs in its own goroutine for the duration of a scan.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, w, p, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
