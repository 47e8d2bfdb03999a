package repositories

import (
	"errors"
	"time"

	"picoworker_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskBudgetExhausted = errors.New("task budget exhausted")
)

type TaskRepository interface {
	Create(db *gorm.DB, task *models.Task) error
	FindByID(db *gorm.DB, id string) (*models.Task, error)
	UpdateContent(db *gorm.DB, id string, fields map[string]interface{}) error
	Delete(db *gorm.DB, id string) error
	DrawBudget(db *gorm.DB, id string, amount int64) error
	ListByAuthor(db *gorm.DB, authorEmail string) ([]models.Task, error)
	ListPaged(db *gorm.DB, offset, limit int) ([]models.Task, int64, error)
	Count(db *gorm.DB) (int64, error)
}

type TaskRepositoryImpl struct{}

func NewTaskRepository() TaskRepository {
	return &TaskRepositoryImpl{}
}

func (r *TaskRepositoryImpl) Create(db *gorm.DB, task *models.Task) error {
	return db.Create(task).Error
}

func (r *TaskRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	err := db.First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// UpdateContent меняет только title/description/info; отсутствующий id - ErrTaskNotFound
func (r *TaskRepositoryImpl) UpdateContent(db *gorm.DB, id string, fields map[string]interface{}) error {
	allowed := make(map[string]interface{}, len(fields)+1)
	for _, key := range []string{"title", "description", "info"} {
		if v, ok := fields[key]; ok {
			allowed[key] = v
		}
	}
	allowed["updated_at"] = time.Now()

	result := db.Model(&models.Task{}).Where("id = ?", id).Updates(allowed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DrawBudget уменьшает оставшийся бюджет задачи, только если его хватает.
// Задача закрывается, когда остатка не хватает на еще одну оплату.
func (r *TaskRepositoryImpl) DrawBudget(db *gorm.DB, id string, amount int64) error {
	result := db.Model(&models.Task{}).
		Where("id = ? AND total >= ?", id, amount).
		Updates(map[string]interface{}{
			"status":     gorm.Expr("CASE WHEN total - ? < payable_amount THEN ? ELSE status END", amount, models.TaskStatusClosed),
			"total":      gorm.Expr("total - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTaskNotFound
	}
	return ErrTaskBudgetExhausted
}

func (r *TaskRepositoryImpl) ListByAuthor(db *gorm.DB, authorEmail string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("author_email = ?", authorEmail).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepositoryImpl) ListPaged(db *gorm.DB, offset, limit int) ([]models.Task, int64, error) {
	var tasks []models.Task
	var total int64

	if err := db.Model(&models.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC, id ASC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

func (r *TaskRepositoryImpl) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Task{}).Count(&count).Error
	return count, err
}
