package pipeline

import (
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// Scope selects the tab-level visibility rule.
type Scope string

const (
	ScopeMine         Scope = "mine"
	ScopeAssignedToMe Scope = "assignedToMe"
	ScopeCreatedByMe  Scope = "createdByMe"
	ScopeAll          Scope = "all"
)

// DateFilter buckets tasks by due date relative to the start of today.
type DateFilter string

const (
	DateAll     DateFilter = "all"
	DateToday   DateFilter = "today"
	DateWeek    DateFilter = "week"
	DateMonth   DateFilter = "month"
	DateOverdue DateFilter = "overdue"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Query holds the list parameters of one pipeline invocation.
type Query struct {
	Scope        Scope
	SearchTerm   string
	StatusFilter string
	DateFilter   DateFilter
	Page         int
	PageSize     int
}

// DefaultQuery returns the first page of the actor's own tasks without filters.
func DefaultQuery() Query {
	return Query{
		Scope:        ScopeMine,
		StatusFilter: StatusAll,
		DateFilter:   DateAll,
		Page:         1,
		PageSize:     constants.DefaultPageSize,
	}
}

// Normalize fills empty enum fields with their "no filter" defaults.
func (q Query) Normalize() Query {
	if q.Scope == "" {
		q.Scope = ScopeMine
	}
	if q.StatusFilter == "" {
		q.StatusFilter = StatusAll
	}
	if q.DateFilter == "" {
		q.DateFilter = DateAll
	}
	return q
}

// Validate rejects unknown enum values and unusable pagination.
func (q Query) Validate() error {
	switch q.Scope {
	case ScopeMine, ScopeAssignedToMe, ScopeCreatedByMe, ScopeAll:
	default:
		return apierrors.NewValidationError("scope", fmt.Sprintf("unknown scope %q", q.Scope))
	}

	if q.StatusFilter != StatusAll && !models.TaskStatus(q.StatusFilter).Valid() {
		return apierrors.NewValidationError("statusFilter", fmt.Sprintf("unknown status %q", q.StatusFilter))
	}

	switch q.DateFilter {
	case DateAll, DateToday, DateWeek, DateMonth, DateOverdue:
	default:
		return apierrors.NewValidationError("dateFilter", fmt.Sprintf("unknown date filter %q", q.DateFilter))
	}

	if q.Page < 1 {
		return apierrors.NewValidationError("page", "must be at least 1")
	}
	if q.PageSize <= 0 {
		return apierrors.NewValidationError("pageSize", "must be positive")
	}
	if q.PageSize > constants.MaxPageSize {
		return apierrors.NewValidationError("pageSize", fmt.Sprintf("must not exceed %d", constants.MaxPageSize))
	}

	return nil
}

// Authorize rejects scopes the actor may not use.
func (q Query) Authorize(actor models.Actor) error {
	if q.Scope == ScopeAll && !actor.IsAdmin() {
		return apierrors.NewAuthorizationError("list all tasks")
	}
	return nil
}
