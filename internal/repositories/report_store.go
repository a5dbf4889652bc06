package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/tasks"
)

// ReportStore persists [tasks.Report] values as a run plus one pack result per pack.
type ReportStore struct {
	Runs  *ScanRunRepository
	Packs *PackResultRepository
}

// NewReportStore creates a ReportStore backed by db
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{Runs: NewScanRunRepository(db), Packs: NewPackResultRepository(db)}
}

// RunFromReport builds an unsaved [models.ScanRun] from a report's settings and totals.
func RunFromReport(report *tasks.Report) *models.ScanRun {
	run := models.NewScanRun(0)
	run.Root = report.Root
	run.Style = report.Style
	run.MinRating = report.Bounds.Min
	run.MaxRating = report.Bounds.Max
	run.Threshold = report.Policy.SelectionThreshold
	run.MaxMistakeFraction = report.Policy.MaxMistakeFraction
	run.PackCount = len(report.Packs)
	run.SelectedCount = len(report.Selected())
	run.MistakeCount = len(report.Mistakes())
	run.RecordCount = len(report.Records())
	run.StartedAt = report.StartedAt
	run.FinishedAt = report.FinishedAt
	return run
}

// SaveReport stores the run and its pack results and returns the stored run.
//
// When a pack result fails to insert the run is soft-deleted so a partial run never shows up in history.
func (s *ReportStore) SaveReport(report *tasks.Report) (*models.ScanRun, error) {
	run := RunFromReport(report)
	if err := s.Runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to save scan run: %w", err)
	}

	for _, pack := range report.Packs {
		result := models.NewPackResult(0, run.ID(), pack.Pack)
		result.SongCount = pack.SongCount
		result.ParsedCount = pack.ParsedCount
		result.FilteredCount = pack.FilteredCount
		result.Selected = pack.Selected
		result.Mismatch = pack.Mismatch()

		if err := s.Packs.Create(result); err != nil {
			_ = s.DeleteRun(run.ID())
			return nil, fmt.Errorf("failed to save pack %s: %w", pack.Pack, err)
		}
	}

	return run, nil
}

// FindRun resolves a run reference: a sequence number ("3" or "#3") or a run ID.
func (s *ReportStore) FindRun(ref string) (*models.ScanRun, error) {
	ref = strings.TrimSpace(ref)
	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return s.Runs.GetBySequence(seq)
	}
	return s.Runs.Get(ref)
}

// ListRuns returns up to limit stored runs, newest first. A limit <= 0 returns all of them.
func (s *ReportStore) ListRuns(limit int) ([]*models.ScanRun, error) {
	return s.Runs.List(map[string]any{"limit": limit})
}

// RunPacks returns the pack results stored for a run, in scan order.
func (s *ReportStore) RunPacks(runID string) ([]*models.PackResult, error) {
	return s.Packs.ListByRun(runID)
}

// DeleteRun soft-deletes a run and its pack results.
func (s *ReportStore) DeleteRun(runID string) error {
	if err := s.Runs.Delete(runID); err != nil {
		return err
	}
	if _, err := s.Packs.DeleteByRun(runID); err != nil {
		return fmt.Errorf("failed to delete pack results of %s: %w", runID, err)
	}
	return nil
}
