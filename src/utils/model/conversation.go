package model

import (
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	TableConversation = "conversations"

	ConversationCreatedContent = "Conversation created."
)

// Message thread of a job
type Conversation struct {
	JobId              string            `gorm:"primaryKey" json:"jobId"`
	Participants       pq.StringArray    `gorm:"type:text[]" json:"participants"`
	Messages           JSONList[Message] `gorm:"type:jsonb" json:"messages"`
	LastMessageContent string            `json:"lastMessageContent"`
	LastMessageTime    time.Time         `json:"lastMessageTime"`
	Version            int64             `json:"version"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

func (Conversation) TableName() string {
	return TableConversation
}

func (self *Conversation) HasParticipant(wallet string) bool {
	for _, p := range self.Participants {
		if strings.EqualFold(p, wallet) {
			return true
		}
	}
	return false
}

// Messages ordered by timestamp, ties broken by sequence number
func (self *Conversation) SortedMessages() []Message {
	out := make([]Message, len(self.Messages))
	copy(out, self.Messages)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (self *Conversation) Clone() *Conversation {
	out := *self
	out.Participants = cloneStrings(self.Participants)
	if self.Messages != nil {
		out.Messages = make(JSONList[Message], len(self.Messages))
		copy(out.Messages, self.Messages)
	}
	return &out
}

type Message struct {
	// Position in the conversation, starts with 1
	Seq int64 `json:"seq"`

	JobId        string `json:"jobId"`
	SenderWallet string `json:"senderWallet"`
	Content      string `json:"content"`
	Attachment   string `json:"attachment,omitempty"`

	// Sender's display name and avatar
	Username string `json:"username"`
	Avatar   string `json:"avatar"`

	Timestamp time.Time `json:"timestamp"`
}

type ConversationSummary struct {
	JobId              string    `json:"jobId"`
	LastMessageContent string    `json:"lastMessageContent"`
	LastMessageTime    time.Time `json:"lastMessageTime"`
}
