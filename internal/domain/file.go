// File: internal/domain/file.go
package domain

import "time"

// File statuses. A file only exists while the external engine holds
// an indexed copy; the local row is a mirror of that state.
const FileStatusIndexed = "indexed"

// File is a document owned by a Store and indexed by the external engine.
// Name carries the engine's file identifier and is unique across stores.
type File struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	StoreID     uint      `json:"store_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}
