// Package pipeline turns a raw task collection into one actor's filtered,
// sorted and paginated view.
//
// The stages run in a fixed order: scope, status, date, search, sort,
// paginate. Totals are computed after filtering and before pagination.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
)

// Result is one page of the filtered universe.
type Result struct {
	Items       []models.Task
	TotalCount  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// Run applies q to tasks on behalf of actor. now anchors the date filter;
// its location decides where "today" starts.
//
// The input slice is not modified. A page past the end yields no items but
// still reports the totals.
func Run(tasks []models.Task, actor models.Actor, q Query, now time.Time) (Result, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if err := q.Authorize(actor); err != nil {
		return Result{}, err
	}

	filtered := make([]models.Task, 0, len(tasks))
	today := StartOfDay(now)
	search := strings.ToLower(strings.TrimSpace(q.SearchTerm))

	for i := range tasks {
		task := &tasks[i]
		if !inScope(actor, task, q.Scope) {
			continue
		}
		if q.StatusFilter != StatusAll && string(task.Status) != q.StatusFilter {
			continue
		}
		if !dueWithin(task.DueDate, q.DateFilter, today) {
			continue
		}
		if search != "" && !matches(task, search) {
			continue
		}
		filtered = append(filtered, *task)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	result := Result{
		Items:       []models.Task{},
		TotalCount:  total,
		TotalPages:  (total + q.PageSize - 1) / q.PageSize,
		CurrentPage: q.Page,
		PageSize:    q.PageSize,
	}

	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return result, nil
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	result.Items = filtered[start:end]

	return result, nil
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func inScope(actor models.Actor, task *models.Task, scope Scope) bool {
	switch scope {
	case ScopeMine:
		return policy.CanView(actor, task)
	case ScopeAssignedToMe:
		return task.IsAssignedTo(actor.UID)
	case ScopeCreatedByMe:
		return task.OwnerID == actor.UID
	case ScopeAll:
		return actor.IsAdmin()
	}
	return false
}

func dueWithin(due time.Time, filter DateFilter, today time.Time) bool {
	switch filter {
	case DateToday:
		return !due.Before(today) && due.Before(today.AddDate(0, 0, 1))
	case DateWeek:
		return !due.Before(today) && !due.After(today.AddDate(0, 0, 7))
	case DateMonth:
		return !due.Before(today) && !due.After(today.AddDate(0, 1, 0))
	case DateOverdue:
		return due.Before(today)
	}
	return true
}

func matches(task *models.Task, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(task.Title), lowerTerm) ||
		strings.Contains(strings.ToLower(task.Description), lowerTerm)
}
