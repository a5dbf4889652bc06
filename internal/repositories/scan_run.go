package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/shared"
)

const scanRunColumns = `id, sequence, root, style, min_rating, max_rating, threshold, max_mistake_fraction,
	pack_count, selected_count, mistake_count, record_count, started_at, finished_at, created_at, updated_at, deleted_at`

// ScanRunRepository implements models.Repository[*models.ScanRun] for stored scans.
type ScanRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ScanRun] = (*ScanRunRepository)(nil)

// NewScanRunRepository creates a new ScanRunRepository with the given database connection
func NewScanRunRepository(db *sql.DB) *ScanRunRepository {
	return &ScanRunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *ScanRunRepository) Create(run *models.ScanRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "scan_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO scan_runs (id, sequence, root, style, min_rating, max_rating, threshold, max_mistake_fraction,
			pack_count, selected_count, mistake_count, record_count, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Root,
		run.Style,
		run.MinRating,
		run.MaxRating,
		run.Threshold,
		run.MaxMistakeFraction,
		run.PackCount,
		run.SelectedCount,
		run.MistakeCount,
		run.RecordCount,
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *ScanRunRepository) Get(id string) (*models.ScanRun, error) {
	query := `SELECT ` + scanRunColumns + ` FROM scan_runs WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a run by its sequence number, excluding soft-deleted runs
func (r *ScanRunRepository) GetBySequence(sequence int) (*models.ScanRun, error) {
	query := `SELECT ` + scanRunColumns + ` FROM scan_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// Update rewrites the counts of an existing run
func (r *ScanRunRepository) Update(run *models.ScanRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE scan_runs
		SET pack_count = ?, selected_count = ?, mistake_count = ?, record_count = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.PackCount,
		run.SelectedCount,
		run.MistakeCount,
		run.RecordCount,
		run.FinishedAt,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}

	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrScanNotFound, run.ID()))
}

// Delete soft-deletes a run by ID
func (r *ScanRunRepository) Delete(id string) error {
	query := `UPDATE scan_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete scan run: %w", err)
	}

	return checkAffected(result, fmt.Errorf("%w: %s", shared.ErrScanNotFound, id))
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "root" (string) and "limit" (int, ignored when <= 0).
func (r *ScanRunRepository) List(criteria map[string]any) ([]*models.ScanRun, error) {
	query := `SELECT ` + scanRunColumns + ` FROM scan_runs WHERE deleted_at IS NULL`
	args := []any{}

	if root, ok := criteria["root"].(string); ok && root != "" {
		query += " AND root = ?"
		args = append(args, root)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ScanRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanOne scans a single row, mapping [sql.ErrNoRows] to [shared.ErrScanNotFound]
func (r *ScanRunRepository) scanOne(row *sql.Row, ref string) (*models.ScanRun, error) {
	run, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrScanNotFound, ref)
	}
	return run, err
}

func (r *ScanRunRepository) scan(row rowScanner) (*models.ScanRun, error) {
	var (
		id        string
		sequence  int
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	run := models.NewScanRun(0)
	err := row.Scan(
		&id, &sequence, &run.Root, &run.Style, &run.MinRating, &run.MaxRating, &run.Threshold, &run.MaxMistakeFraction,
		&run.PackCount, &run.SelectedCount, &run.MistakeCount, &run.RecordCount, &run.StartedAt, &run.FinishedAt,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scan run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
