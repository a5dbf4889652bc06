package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/packfilter/internal/models"
	"github.com/desertthunder/packfilter/internal/shared"
)

const packResultColumns = `id, sequence, scan_run_id, pack, song_count, parsed_count, filtered_count, selected, mismatch,
	created_at, updated_at, deleted_at`

// PackResultRepository implements models.Repository[*models.PackResult] for per-pack summaries.
type PackResultRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.PackResult] = (*PackResultRepository)(nil)

// NewPackResultRepository creates a new PackResultRepository with the given database connection
func NewPackResultRepository(db *sql.DB) *PackResultRepository {
	return &PackResultRepository{db: db}
}

// Create inserts a new pack result with generated ID and sequence
func (r *PackResultRepository) Create(result *models.PackResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "pack_results")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO pack_results (id, sequence, scan_run_id, pack, song_count, parsed_count, filtered_count, selected, mismatch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		result.ScanRunID,
		result.Pack,
		result.SongCount,
		result.ParsedCount,
		result.FilteredCount,
		result.Selected,
		result.Mismatch,
		result.CreatedAt(),
		result.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pack result: %w", err)
	}

	result.SetID(id)
	result.SetSequence(sequence)
	return nil
}

// Get retrieves a pack result by ID, excluding soft-deleted rows
func (r *PackResultRepository) Get(id string) (*models.PackResult, error) {
	query := `SELECT ` + packResultColumns + ` FROM pack_results WHERE id = ? AND deleted_at IS NULL`

	result, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pack result not found: %s", id)
	}
	return result, err
}

// Update rewrites the counts and flags of an existing pack result
func (r *PackResultRepository) Update(result *models.PackResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	result.SetUpdatedAt(now)

	query := `
		UPDATE pack_results
		SET song_count = ?, parsed_count = ?, filtered_count = ?, selected = ?, mismatch = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	res, err := r.db.Exec(query,
		result.SongCount,
		result.ParsedCount,
		result.FilteredCount,
		result.Selected,
		result.Mismatch,
		now,
		result.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update pack result: %w", err)
	}

	return checkAffected(res, fmt.Errorf("pack result not found or already deleted: %s", result.ID()))
}

// Delete soft-deletes a pack result by ID
func (r *PackResultRepository) Delete(id string) error {
	query := `UPDATE pack_results SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	res, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete pack result: %w", err)
	}

	return checkAffected(res, fmt.Errorf("pack result not found or already deleted: %s", id))
}

// DeleteByRun soft-deletes every pack result of a run and returns how many were removed
func (r *PackResultRepository) DeleteByRun(scanRunID string) (int64, error) {
	query := `UPDATE pack_results SET deleted_at = ? WHERE scan_run_id = ? AND deleted_at IS NULL`

	res, err := r.db.Exec(query, time.Now(), scanRunID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pack results: %w", err)
	}

	return res.RowsAffected()
}

// List retrieves pack results in insertion order, excluding soft-deleted rows.
//
// Supported criteria: "scan_run_id" (string) and "selected" (bool).
func (r *PackResultRepository) List(criteria map[string]any) ([]*models.PackResult, error) {
	query := `SELECT ` + packResultColumns + ` FROM pack_results WHERE deleted_at IS NULL`
	args := []any{}

	if runID, ok := criteria["scan_run_id"].(string); ok && runID != "" {
		query += " AND scan_run_id = ?"
		args = append(args, runID)
	}

	if selected, ok := criteria["selected"].(bool); ok {
		query += " AND selected = ?"
		args = append(args, selected)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pack results: %w", err)
	}
	defer rows.Close()

	var results []*models.PackResult
	for rows.Next() {
		result, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return results, nil
}

// ListByRun retrieves the pack results of one run in scan order
func (r *PackResultRepository) ListByRun(scanRunID string) ([]*models.PackResult, error) {
	return r.List(map[string]any{"scan_run_id": scanRunID})
}

func (r *PackResultRepository) scan(row rowScanner) (*models.PackResult, error) {
	var (
		id        string
		sequence  int
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	result := models.NewPackResult(0, "", "")
	err := row.Scan(
		&id, &sequence, &result.ScanRunID, &result.Pack, &result.SongCount, &result.ParsedCount, &result.FilteredCount,
		&result.Selected, &result.Mismatch, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pack result: %w", err)
	}

	result.SetID(id)
	result.SetSequence(sequence)
	result.SetCreatedAt(createdAt)
	result.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		result.SetDeletedAt(&deletedAt.Time)
	}

	return result, nil
}
