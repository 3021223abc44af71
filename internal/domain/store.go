// File: internal/domain/store.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is a named knowledge base backed by the external engine.
// Name is the immutable internal handle; ExternalID is whatever
// identifier the engine assigned when the store was provisioned.
type Store struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"not null"`
	ExternalID  string    `json:"-" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewStoreName generates a unique internal store name.
func NewStoreName() string {
	return "kb-" + uuid.NewString()
}
