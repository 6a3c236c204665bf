package repository

import (
	"context"

	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db    *gorm.DB
	limit int
}

// NewTaskRepository creates a new TaskRepository whose list queries return at most limit rows.
func NewTaskRepository(db *gorm.DB, limit int) TaskRepository {
	return &GormTaskRepository{db: db, limit: limit}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOwner lists tasks created by ownerID
func (r *GormTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	return r.list(ctx, r.db.Where("owner_id = ?", ownerID))
}

// ListByAssignee lists tasks assigned to assigneeID
func (r *GormTaskRepository) ListByAssignee(ctx context.Context, assigneeID string) ([]models.Task, error) {
	return r.list(ctx, r.db.Where("assigned_to = ?", assigneeID))
}

// ListAll lists every task
func (r *GormTaskRepository) ListAll(ctx context.Context) ([]models.Task, error) {
	return r.list(ctx, r.db)
}

// list applies the shared ordering and result ceiling. Newest rows win when
// the ceiling truncates; id breaks created_at ties so the order is stable.
func (r *GormTaskRepository) list(ctx context.Context, query *gorm.DB) ([]models.Task, error) {
	tasks := []models.Task{}
	query = query.WithContext(ctx).Order("created_at DESC").Order("id ASC")
	if r.limit > 0 {
		query = query.Limit(r.limit)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete deletes a task, returning gorm.ErrRecordNotFound when nothing was removed
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
