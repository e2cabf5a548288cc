package domain

import "time"

// Application statuses.
const (
	ApplicationPending      = "pending"
	ApplicationReviewed     = "reviewed"
	ApplicationAccepted     = "accepted"
	ApplicationRejected     = "rejected"
	ApplicationNotifyFailed = "notify_failed"
)

type Application struct {
	ApplicationID  string    `json:"id" dynamodbav:"application_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	JobID          string    `json:"job_id" dynamodbav:"job_id"`
	JobTitle       string    `json:"job_title" dynamodbav:"job_title"`
	Company        string    `json:"company" dynamodbav:"company"`
	FullName       string    `json:"full_name" dynamodbav:"full_name"`
	Email          string    `json:"email" dynamodbav:"email"`
	Phone          string    `json:"phone" dynamodbav:"phone"`
	CoverLetter    string    `json:"cover_letter" dynamodbav:"cover_letter"`
	ResumeFilename string    `json:"resume_filename" dynamodbav:"resume_filename"`
	ResumeObject   string    `json:"-" dynamodbav:"resume_object"`
	Status         string    `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed accepted rejected"`
}
