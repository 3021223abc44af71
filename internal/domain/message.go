// File: internal/domain/message.go
package domain

// Message roles within a chat session.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single turn in a chat session. Sessions are transient,
// so messages are plain values rather than persisted records.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
