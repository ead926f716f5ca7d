package domain

import "time"

// Chat is a conversation between course members.
type Chat struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title,omitempty"`
	CourseID    *int64    `json:"course,omitempty"`
	IsGroup     bool      `json:"is_group"`
	UnreadCount int       `json:"unread_count"`
	LastMessage *Message  `json:"last_message,omitempty"`
	MemberIDs   []int64   `json:"members,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// ChatInput creates or updates a chat.
type ChatInput struct {
	Title     string  `json:"title,omitempty" validate:"max=255"`
	CourseID  *int64  `json:"course,omitempty" validate:"omitempty,gt=0"`
	IsGroup   bool    `json:"is_group"`
	MemberIDs []int64 `json:"members,omitempty" validate:"dive,gt=0"`
}

// Message is one chat message, optionally carrying an uploaded file.
type Message struct {
	ID         int64     `json:"id"`
	ChatID     int64     `json:"chat"`
	SenderID   int64     `json:"sender"`
	Text       string    `json:"text,omitempty"`
	FileURL    string    `json:"file,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	ModifiedAt time.Time `json:"updated_at,omitempty"`
}

// MessageInput sends a text message.
type MessageInput struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// ChatMember is a user's membership in a chat.
type ChatMember struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user"`
	ChatID   int64     `json:"chat,omitempty"`
	Role     string    `json:"role,omitempty"`
	JoinedAt time.Time `json:"joined_at,omitempty"`
}

// Upload describes a file attached to a chat.
type Upload struct {
	FileName    string `validate:"required"`
	ContentType string
	Content     []byte `validate:"required"`
	Caption     string `validate:"max=4000"`
}
