package domain

import "time"

type Job struct {
	JobID        string    `json:"id" dynamodbav:"job_id"`
	Title        string    `json:"title" dynamodbav:"title"`
	Description  string    `json:"description" dynamodbav:"description"`
	Location     string    `json:"location" dynamodbav:"location"`
	MinSalary    int       `json:"min_salary" dynamodbav:"min_salary"`
	MaxSalary    int       `json:"max_salary" dynamodbav:"max_salary"`
	VacantLeft   int       `json:"vacantleft" dynamodbav:"vacant_left"`
	Company      string    `json:"company" dynamodbav:"company"`
	CompanyEmail string    `json:"company_email" dynamodbav:"company_email"`
	Type         string    `json:"type" dynamodbav:"type"`
	Posted       string    `json:"posted" dynamodbav:"posted"` // YYYY-MM-DD
	Tags         []string  `json:"tags" dynamodbav:"tags"`
	Remote       bool      `json:"remote" dynamodbav:"remote"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type JobInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Location     string   `json:"location" validate:"required"`
	MinSalary    int      `json:"min_salary" validate:"required,gt=0"`
	MaxSalary    int      `json:"max_salary" validate:"required,gtefield=MinSalary"`
	VacantLeft   int      `json:"vacantleft" validate:"required,gt=0"`
	Company      string   `json:"company" validate:"required"`
	CompanyEmail string   `json:"company_email" validate:"required,email"`
	Type         string   `json:"type" validate:"required"`
	Tags         []string `json:"tags" validate:"required,min=1,dive,required"`
	Remote       bool     `json:"remote"`
}
