package models

import (
	"sort"
	"strings"
	"time"
)

// Chat is a two-party conversation between matched users
type Chat struct {
	ID           string    `dynamodbav:"id" json:"id" gorm:"primaryKey;type:varchar(140)"`
	Participants []string  `dynamodbav:"participants" json:"participants" gorm:"type:text;serializer:json"`
	Status       string    `dynamodbav:"status" json:"status"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at" gorm:"autoCreateTime:false"`
}

func (Chat) TableName() string { return "chats" }

// Message is a single chat line
type Message struct {
	ConversationID string    `dynamodbav:"conversationId" json:"conversationId" gorm:"primaryKey;type:varchar(140)"` // ✅ Partition Key
	SortKey        string    `dynamodbav:"sk" json:"-" gorm:"primaryKey;type:varchar(64)"`                           // ✅ Sort Key
	MessageID      string    `dynamodbav:"messageId" json:"messageId"`
	Sender         string    `dynamodbav:"sender" json:"sender"`
	Receiver       string    `dynamodbav:"receiver" json:"receiver"`
	Content        string    `dynamodbav:"content" json:"content" gorm:"type:text"`
	Timestamp      time.Time `dynamodbav:"timestamp" json:"timestamp"`
}

func (Message) TableName() string { return "messages" }

// ConversationID is the stable id of the chat between two users
func ConversationID(user1, user2 string) string {
	ids := []string{user1, user2}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
