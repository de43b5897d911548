package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// DeliveryRepository implements models.Repository[*models.Delivery] on top
// of SQLite.
type DeliveryRepository struct {
	db *sql.DB
}

// NewDeliveryRepository creates a repository with the given database connection.
func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Record persists a terminal delivery outcome. It satisfies the
// coordinator's history collaborator; the id is generated when absent.
func (r *DeliveryRepository) Record(ctx context.Context, d *models.Delivery) error {
	if d.DeliveryID == "" {
		d.DeliveryID = shared.GenerateID()
	}
	return r.Create(d)
}

// Create inserts a new delivery row with a generated sequence number.
func (r *DeliveryRepository) Create(d *models.Delivery) error {
	sequence, err := NextSequence(r.db, "deliveries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	d.Sequence = sequence

	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO deliveries (id, sequence, owner_id, video_id, title, duration_seconds, size_bytes, outcome, error_kind, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		d.DeliveryID,
		d.Sequence,
		d.OwnerID,
		d.VideoID,
		d.Title,
		d.DurationSec,
		d.SizeBytes,
		string(d.Outcome),
		d.ErrorKind,
		d.Created,
		d.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}

	return nil
}

// Get retrieves a delivery by ID.
func (r *DeliveryRepository) Get(id string) (*models.Delivery, error) {
	query := `
		SELECT id, sequence, owner_id, video_id, title, duration_seconds, size_bytes, outcome, error_kind, created_at, updated_at
		FROM deliveries
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing delivery row.
func (r *DeliveryRepository) Update(d *models.Delivery) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	d.Updated = now

	query := `
		UPDATE deliveries
		SET title = ?, duration_seconds = ?, size_bytes = ?, outcome = ?, error_kind = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		d.Title,
		d.DurationSec,
		d.SizeBytes,
		string(d.Outcome),
		d.ErrorKind,
		now,
		d.DeliveryID,
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delivery not found: %s", d.DeliveryID)
	}

	return nil
}

// Delete removes a delivery row by ID.
func (r *DeliveryRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delivery not found: %s", id)
	}

	return nil
}

// List retrieves deliveries matching the given criteria. Supported keys:
// owner_id, outcome, video_id. Rows come back newest first.
func (r *DeliveryRepository) List(criteria map[string]any) ([]*models.Delivery, error) {
	query := `
		SELECT id, sequence, owner_id, video_id, title, duration_seconds, size_bytes, outcome, error_kind, created_at, updated_at
		FROM deliveries
	`

	var args []any
	var where string
	for _, key := range []string{"owner_id", "outcome", "video_id"} {
		value, ok := criteria[key]
		if !ok {
			continue
		}
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += key + " = ?"
		args = append(args, value)
	}

	rows, err := r.db.Query(query+where+" ORDER BY sequence DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, rows.Err()
}

// Recent returns the most recent rows for an owner, capped at limit. An
// ownerID of zero spans all owners.
func (r *DeliveryRepository) Recent(ownerID int64, limit int) ([]*models.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, sequence, owner_id, video_id, title, duration_seconds, size_bytes, outcome, error_kind, created_at, updated_at
		FROM deliveries
	`
	var args []any
	if ownerID != 0 {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *DeliveryRepository) scanOne(row *sql.Row) (*models.Delivery, error) {
	d, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("delivery not found")
	}
	return d, err
}

func (r *DeliveryRepository) scan(row scannable) (*models.Delivery, error) {
	var d models.Delivery
	var outcome string

	err := row.Scan(
		&d.DeliveryID,
		&d.Sequence,
		&d.OwnerID,
		&d.VideoID,
		&d.Title,
		&d.DurationSec,
		&d.SizeBytes,
		&outcome,
		&d.ErrorKind,
		&d.Created,
		&d.Updated,
	)
	if err != nil {
		return nil, err
	}

	d.Outcome = models.Outcome(outcome)
	return &d, nil
}
