package entity

import (
	"strings"
	"time"
)

// Entity is the constraint shared by every record managed through a repository.
// E is the concrete pointer type, e.g. *feature.Feature, so Clone can return it.
type Entity[E any] interface {
	// GetUID returns the identifier, unique within the entity collection.
	GetUID() string

	// Touch stamps creation and last modification dates.
	// Only repositories call it; callers never set dates directly.
	Touch(createdAt, updatedAt time.Time)

	// GetCreatedAt returns the creation date set by the repository.
	GetCreatedAt() time.Time

	// Clone returns a deep copy so stored values never alias caller values.
	Clone() E
}

// Base holds the attributes common to features and properties.
type Base struct {
	UID         string    `json:"uid" yaml:"uid"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" yaml:"-"`
}

func (b *Base) GetUID() string { return b.UID }

func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }

func (b *Base) Touch(createdAt, updatedAt time.Time) {
	b.CreatedAt = createdAt
	b.UpdatedAt = updatedAt
}

// ValidateUID rejects empty and whitespace-only identifiers.
func ValidateUID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return ErrBlankUID
	}
	return nil
}
