package models

import "time"

type Conversation struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	TaskTitle     string    `json:"taskTitle"`
	Participants  []string  `json:"participants"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int       `json:"unreadCount"`
}

type CreateConversationRequest struct {
	TaskerID string `json:"taskerId"`
}

type CreatedConversation struct {
	ID string `json:"id"`
}
