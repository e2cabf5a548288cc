package domain

import "time"

// MaxResumeSize is the upload limit for resume PDFs.
const MaxResumeSize = 5 << 20

type Resume struct {
	ResumeID  string    `json:"resume_id" dynamodbav:"resume_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Filename  string    `json:"filename" dynamodbav:"filename"`
	Object    string    `json:"-" dynamodbav:"object"`
	Size      int64     `json:"size" dynamodbav:"size"`
	Hash      string    `json:"hash" dynamodbav:"hash"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
