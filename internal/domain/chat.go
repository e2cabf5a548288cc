package domain

import (
	"encoding/json"
	"time"
)

// ChatHistoryLimit caps how many chats a history listing returns.
const ChatHistoryLimit = 50

// Chat is a saved resume-builder conversation. ChatData and ResumeData are
// opaque JSON documents owned by the client.
type Chat struct {
	ChatID     string          `json:"chat_id" dynamodbav:"chat_id"`
	UserID     string          `json:"user_id" dynamodbav:"user_id"`
	ChatData   json.RawMessage `json:"chat_data" dynamodbav:"chat_data"`
	ResumeData json.RawMessage `json:"resume_data" dynamodbav:"resume_data,omitempty"`
	HasResume  bool            `json:"-" dynamodbav:"has_resume"`
	Timestamp  time.Time       `json:"timestamp" dynamodbav:"timestamp"`
}

type ChatInput struct {
	ChatData   json.RawMessage `json:"chatData" validate:"required"`
	ResumeData json.RawMessage `json:"resumeData"`
}

// ResumeProfile is the subset of resume-builder output used for job matching.
type ResumeProfile struct {
	Skills     []string        `json:"skills"`
	Experience json.RawMessage `json:"experience"`
	Education  json.RawMessage `json:"education"`
	Objective  string          `json:"objective"`
	Summary    string          `json:"summary"`
}
