// Package policy decides what an actor may do with a task.
package policy

import "github.com/yukikurage/taskboard-api/internal/models"

// CanView reports whether actor may read task: admins, the owner and the assignee.
func CanView(actor models.Actor, task *models.Task) bool {
	if actor.IsAdmin() {
		return true
	}
	return task.OwnerID == actor.UID || task.IsAssignedTo(actor.UID)
}

// CanEdit reports whether actor may modify task. Assignees cannot.
func CanEdit(actor models.Actor, task *models.Task) bool {
	return actor.IsAdmin() || task.OwnerID == actor.UID
}

// CanDelete follows the same rule as CanEdit.
func CanDelete(actor models.Actor, task *models.Task) bool {
	return CanEdit(actor, task)
}
