// File: internal/domain/prompt.go
package domain

import "time"

// Prompt is a named system-instruction text bound to one Store.
// At most one prompt per store carries IsActive at any time.
type Prompt struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	StoreID   uint      `json:"store_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
