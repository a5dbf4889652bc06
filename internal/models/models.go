// package models defines the data model for stored scan history
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// record holds the bookkeeping fields shared by every persisted model.
type record struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newRecord(sequence int) record {
	now := time.Now()
	return record{sequence: sequence, createdAt: now, updatedAt: now}
}

func (r *record) ID() string                { return r.id }
func (r *record) SetID(id string)           { r.id = id }
func (r *record) Sequence() int             { return r.sequence }
func (r *record) SetSequence(seq int)       { r.sequence = seq }
func (r *record) CreatedAt() time.Time      { return r.createdAt }
func (r *record) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *record) UpdatedAt() time.Time      { return r.updatedAt }
func (r *record) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *record) DeletedAt() *time.Time     { return r.deletedAt }
func (r *record) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// IsDeleted reports whether the model has been soft-deleted.
func (r *record) IsDeleted() bool { return r.deletedAt != nil }

// ScanRun is a stored library scan.
type ScanRun struct {
	record

	Root               string
	Style              string
	MinRating          int
	MaxRating          int
	Threshold          float64
	MaxMistakeFraction float64
	PackCount          int
	SelectedCount      int
	MistakeCount       int
	RecordCount        int
	StartedAt          time.Time
	FinishedAt         time.Time
}

var _ Model = (*ScanRun)(nil)

// NewScanRun creates an unsaved ScanRun with the given sequence number.
func NewScanRun(sequence int) *ScanRun {
	return &ScanRun{record: newRecord(sequence)}
}

// Duration is how long the scan took.
func (s *ScanRun) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Validate checks that the run has a root, a style and coherent bounds.
func (s *ScanRun) Validate() error {
	if s.Root == "" {
		return fmt.Errorf("scan run root is required")
	}
	if s.Style == "" {
		return fmt.Errorf("scan run style is required")
	}
	if s.MinRating > s.MaxRating {
		return fmt.Errorf("scan run min rating %d exceeds max rating %d", s.MinRating, s.MaxRating)
	}
	if s.FinishedAt.Before(s.StartedAt) {
		return fmt.Errorf("scan run finished before it started")
	}
	return nil
}

// PackResult is one pack's summary within a [ScanRun].
type PackResult struct {
	record

	ScanRunID     string
	Pack          string
	SongCount     int
	ParsedCount   int
	FilteredCount int
	Selected      bool
	Mismatch      bool
}

var _ Model = (*PackResult)(nil)

// NewPackResult creates an unsaved PackResult belonging to the run with the given ID.
func NewPackResult(sequence int, scanRunID, pack string) *PackResult {
	return &PackResult{record: newRecord(sequence), ScanRunID: scanRunID, Pack: pack}
}

// Validate checks the owning run, the pack name and that counts are consistent.
func (p *PackResult) Validate() error {
	if p.ScanRunID == "" {
		return fmt.Errorf("pack result scan run ID is required")
	}
	if p.Pack == "" {
		return fmt.Errorf("pack result pack name is required")
	}
	if p.SongCount < 0 || p.ParsedCount < 0 || p.FilteredCount < 0 {
		return fmt.Errorf("pack result counts must not be negative")
	}
	if p.ParsedCount > p.SongCount || p.FilteredCount > p.SongCount {
		return fmt.Errorf("pack result counts exceed song count %d", p.SongCount)
	}
	return nil
}
