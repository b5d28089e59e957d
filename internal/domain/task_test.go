package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskInProgress, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskPending, TaskCompleted, false},
		{TaskInProgress, TaskPending, false},
		{TaskCompleted, TaskInProgress, false},
		{TaskCompleted, TaskCompleted, false},
		{TaskStatus("UNKNOWN"), TaskInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTaskStatus_Label(t *testing.T) {
	assert.Equal(t, "In progress", TaskInProgress.Label())
	assert.Equal(t, "ODD", TaskStatus("ODD").Label())
}

func TestUser_Role(t *testing.T) {
	assert.Equal(t, RoleDirector, (&User{IsDirector: true}).Role())
	assert.Equal(t, RoleContractor, (&User{}).Role())
}
