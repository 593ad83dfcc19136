package message

import (
	"time"

	"github.com/google/uuid"
)

// ContentType tags one item of a chat message
type ContentType string

const (
	ContentText         ContentType = "text"
	ContentStartSession ContentType = "start-session"
	ContentEndSession   ContentType = "end-session"
)

// Content is one typed item in a chat message. Text is set only for ContentText.
type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// ChatMessage is the chat protocol message exchanged with users and the peer
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	MsgID     uuid.UUID `json:"msg_id"`
	Content   []Content `json:"content"`
}

func (ChatMessage) MessageType() Type { return TypeChatMessage }

// ChatAcknowledgement confirms receipt of a chat message by its MsgID
type ChatAcknowledgement struct {
	Timestamp         time.Time `json:"timestamp"`
	AcknowledgedMsgID uuid.UUID `json:"acknowledged_msg_id"`
}

func (ChatAcknowledgement) MessageType() Type { return TypeChatAck }

// NewTextChat builds a single-text chat message, optionally closing the session
func NewTextChat(text string, endSession bool) *ChatMessage {
	content := []Content{{Type: ContentText, Text: text}}
	if endSession {
		content = append(content, Content{Type: ContentEndSession})
	}
	return &ChatMessage{
		Timestamp: time.Now().UTC(),
		MsgID:     uuid.New(),
		Content:   content,
	}
}

// NewAcknowledgement acknowledges msg
func NewAcknowledgement(msg *ChatMessage) *ChatAcknowledgement {
	return &ChatAcknowledgement{
		Timestamp:         time.Now().UTC(),
		AcknowledgedMsgID: msg.MsgID,
	}
}

// Texts returns the text items of the message in order
func (m *ChatMessage) Texts() []string {
	var out []string
	for _, item := range m.Content {
		if item.Type == ContentText {
			out = append(out, item.Text)
		}
	}
	return out
}
