package entity

// Role автор реплики в диалоге по отчёту.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage одна реплика диалога.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
