package domain

import "time"

// NotificationKind identifies the task lifecycle event a notification reports.
type NotificationKind string

const (
	NotificationTaskAssigned  NotificationKind = "task_assigned"
	NotificationTaskChanged   NotificationKind = "task_changed"
	NotificationTaskAccepted  NotificationKind = "task_accepted"
	NotificationTaskCompleted NotificationKind = "task_completed"
)

type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	UserID         string           `json:"user_id" dynamodbav:"user_id"`
	TaskID         string           `json:"task_id" dynamodbav:"task_id"`
	Kind           NotificationKind `json:"kind" dynamodbav:"kind"`
	Message        string           `json:"message" dynamodbav:"message"`
	Readed         int              `json:"readed" dynamodbav:"readed"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time        `json:"updated" dynamodbav:"updated_at"`
}
