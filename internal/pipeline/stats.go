package pipeline

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
)

// Summary counts the tasks visible to an actor.
type Summary struct {
	Total        int `json:"total"`
	Todo         int `json:"todo"`
	InProgress   int `json:"in_progress"`
	Done         int `json:"done"`
	Overdue      int `json:"overdue"`
	AssignedToMe int `json:"assigned_to_me"`
	CreatedByMe  int `json:"created_by_me"`
}

// Summarize counts tasks visible to actor. Overdue excludes finished tasks.
func Summarize(tasks []models.Task, actor models.Actor, now time.Time) Summary {
	var s Summary
	today := StartOfDay(now)

	for i := range tasks {
		task := &tasks[i]
		if !policy.CanView(actor, task) {
			continue
		}

		s.Total++
		switch task.Status {
		case models.TaskStatusTodo:
			s.Todo++
		case models.TaskStatusInProgress:
			s.InProgress++
		case models.TaskStatusDone:
			s.Done++
		}
		if task.Status != models.TaskStatusDone && task.DueDate.Before(today) {
			s.Overdue++
		}
		if task.IsAssignedTo(actor.UID) {
			s.AssignedToMe++
		}
		if task.OwnerID == actor.UID {
			s.CreatedByMe++
		}
	}

	return s
}
