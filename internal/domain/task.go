package domain

import "time"

// DateLayout is the wire and storage format of task dates.
const DateLayout = "2006-01-02"

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// Label is the human readable status name used in notification emails.
func (s TaskStatus) Label() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskInProgress:
		return "In progress"
	case TaskCompleted:
		return "Completed"
	}
	return string(s)
}

type TaskType string

const (
	TaskTypeDeveloper TaskType = "Developer"
	TaskTypeManager   TaskType = "Manager"
	TaskTypeTester    TaskType = "Tester"
)

type Task struct {
	TaskID       string     `json:"id" dynamodbav:"task_id"`
	Name         string     `json:"name" dynamodbav:"name"`
	ProjectID    string     `json:"project_id" dynamodbav:"project_id"`
	Description  string     `json:"description" dynamodbav:"description"`
	DateFrom     string     `json:"date_from" dynamodbav:"date_from"`
	DateTo       string     `json:"date_to" dynamodbav:"date_to"`
	ContractorID string     `json:"contractor_id" dynamodbav:"contractor_id"`
	Type         TaskType   `json:"type" dynamodbav:"type"`
	Status       TaskStatus `json:"status" dynamodbav:"status"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// TaskView is a task joined with its project name and contractor email.
type TaskView struct {
	Task
	ProjectName     string `json:"project_name"`
	ContractorEmail string `json:"contractor_email"`
}

type CreateTaskRequest struct {
	Name         string   `json:"name" validate:"required,max=60"`
	ProjectID    string   `json:"project_id" validate:"required"`
	Description  string   `json:"description" validate:"max=255"`
	DateFrom     string   `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo       string   `json:"date_to" validate:"required,datetime=2006-01-02"`
	ContractorID string   `json:"contractor_id" validate:"required"`
	Type         TaskType `json:"type" validate:"required,oneof=Developer Manager Tester"`
}

type UpdateTaskRequest struct {
	Description string `json:"description" validate:"max=255"`
	DateFrom    string `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo      string `json:"date_to" validate:"required,datetime=2006-01-02"`
}

// TaskChange is one field that differs between the stored task and an update.
type TaskChange struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// taskTransitions lists the statuses each status may move to.
var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskPending:    {TaskInProgress: true},
	TaskInProgress: {TaskCompleted: true},
	TaskCompleted:  {},
}

// CanTransitionTo reports whether a task in status s may move to status to.
func (s TaskStatus) CanTransitionTo(to TaskStatus) bool {
	return taskTransitions[s][to]
}
