// package models defines the data model for the audio delivery bot
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

// CandidateItem is one playable video resolved from a locator.
//
// Items are immutable once produced by the resolver; the title is kept
// verbatim as the platform reports it, including any uploader prefix.
type CandidateItem struct {
	VideoID      string
	Title        string
	Uploader     string
	DurationSec  int
	ThumbnailURL string
	SourceURL    string
}

// Complete reports whether the item carries enough metadata to skip the
// probe step of acquisition.
func (c CandidateItem) Complete() bool {
	return c.Title != "" && c.DurationSec > 0
}

// Outcome is the terminal state of a delivery.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Delivery records the terminal outcome of one acquisition request.
type Delivery struct {
	DeliveryID  string
	Sequence    int
	OwnerID     int64
	VideoID     string
	Title       string
	DurationSec int
	SizeBytes   int64
	Outcome     Outcome
	ErrorKind   string
	Created     time.Time
	Updated     time.Time
}

// NewDelivery builds a Delivery for the given owner and item.
func NewDelivery(id string, ownerID int64, item CandidateItem) *Delivery {
	now := time.Now()
	return &Delivery{
		DeliveryID:  id,
		OwnerID:     ownerID,
		VideoID:     item.VideoID,
		Title:       item.Title,
		DurationSec: item.DurationSec,
		Created:     now,
		Updated:     now,
	}
}

func (d *Delivery) ID() string           { return d.DeliveryID }
func (d *Delivery) CreatedAt() time.Time { return d.Created }
func (d *Delivery) UpdatedAt() time.Time { return d.Updated }

// Validate checks that a delivery row is storable.
func (d *Delivery) Validate() error {
	if d.DeliveryID == "" {
		return fmt.Errorf("delivery id is required")
	}
	if d.OwnerID == 0 {
		return fmt.Errorf("owner id is required")
	}
	if d.Outcome != OutcomeSucceeded && d.Outcome != OutcomeFailed {
		return fmt.Errorf("invalid outcome: %q", d.Outcome)
	}
	return nil
}
