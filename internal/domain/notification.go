package domain

import "time"

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	ApplicationID  string    `json:"application_id,omitempty" dynamodbav:"application_id,omitempty"`
	Message        string    `json:"message" dynamodbav:"message"`
	Read           int       `json:"read" dynamodbav:"read"` // 0 = unread, 1 = read
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
