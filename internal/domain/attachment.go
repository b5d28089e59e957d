package domain

import "time"

// Attachment is a file uploaded against a task. The object lives in S3 under Object.
type Attachment struct {
	AttachmentID     string    `json:"id" dynamodbav:"attachment_id"`
	TaskID           string    `json:"task_id" dynamodbav:"task_id"`
	Object           string    `json:"-" dynamodbav:"object"`
	Name             string    `json:"name" dynamodbav:"name"`
	Type             string    `json:"type" dynamodbav:"type"`
	Size             int64     `json:"size" dynamodbav:"size"`
	Hash             string    `json:"hash" dynamodbav:"hash"`
	UploadedByUserID string    `json:"uploaded_by" dynamodbav:"uploaded_by_user_id"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
}
