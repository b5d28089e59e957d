package notification

import (
	"fmt"
	"strings"

	"github.com/taskflow-api/internal/domain"
)

func compose(ev Event) (subject, body string, err error) {
	t := ev.Task
	switch ev.Kind {
	case domain.NotificationTaskAssigned:
		subject = "You have been assigned a new task"
		body = fmt.Sprintf("Hello, here is your new task!\n"+
			"Name: %s\nProject: %s\nDescription: %s\nStart date: %s\nEnd date: %s\nStatus: %s\n",
			t.Name, t.ProjectName, t.Description, t.DateFrom, t.DateTo, t.Status.Label())
	case domain.NotificationTaskChanged:
		subject = "Your task has changed"
		var b strings.Builder
		fmt.Fprintf(&b, "Hello, your task %s has changed!\nPlease review:\n", t.Name)
		for _, c := range ev.Changes {
			fmt.Fprintf(&b, "%s: %s\n", c.Field, c.Value)
		}
		body = b.String()
	case domain.NotificationTaskAccepted:
		subject = "You have accepted a task"
		body = fmt.Sprintf("Hello, you have accepted task %s\nPlease review:\n"+
			"Name: %s\nDescription: %s\nDates: from %s to %s\n",
			t.Name, t.Name, t.Description, t.DateFrom, t.DateTo)
	case domain.NotificationTaskCompleted:
		subject = "Task completed"
		body = fmt.Sprintf("Hello, task %s in project %s is now marked as %s.\n",
			t.Name, t.ProjectName, t.Status.Label())
	default:
		return "", "", fmt.Errorf("unknown notification kind %q: %w", ev.Kind, domain.ErrBadRequest)
	}
	return subject, body, nil
}
