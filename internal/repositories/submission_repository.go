package repositories

import (
	"errors"
	"time"

	"picoworker_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionRepository interface {
	Create(db *gorm.DB, submission *models.Submission) error
	FindByID(db *gorm.DB, id string) (*models.Submission, error)
	TransitionStatus(db *gorm.DB, id string, from, to models.SubmissionStatus, feedback string) (bool, error)
	ListByWorker(db *gorm.DB, workerEmail string, offset, limit int) ([]models.Submission, int64, error)
	ListByAuthorAndStatus(db *gorm.DB, authorEmail string, status models.SubmissionStatus) ([]models.Submission, error)
	CountByStatus(db *gorm.DB, status models.SubmissionStatus) (int64, error)
}

type SubmissionRepositoryImpl struct{}

func NewSubmissionRepository() SubmissionRepository {
	return &SubmissionRepositoryImpl{}
}

func (r *SubmissionRepositoryImpl) Create(db *gorm.DB, submission *models.Submission) error {
	return db.Create(submission).Error
}

func (r *SubmissionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Submission, error) {
	var submission models.Submission
	err := db.First(&submission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// TransitionStatus - compare-and-swap статуса. false означает, что статус уже не from.
func (r *SubmissionRepositoryImpl) TransitionStatus(db *gorm.DB, id string, from, to models.SubmissionStatus, feedback string) (bool, error) {
	fields := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if feedback != "" {
		fields["feedback"] = feedback
	}

	result := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SubmissionRepositoryImpl) ListByWorker(db *gorm.DB, workerEmail string, offset, limit int) ([]models.Submission, int64, error) {
	var submissions []models.Submission
	var total int64

	query := db.Model(&models.Submission{}).Where("worker_email = ?", workerEmail)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Where("worker_email = ?", workerEmail).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&submissions).Error
	return submissions, total, err
}

func (r *SubmissionRepositoryImpl) ListByAuthorAndStatus(db *gorm.DB, authorEmail string, status models.SubmissionStatus) ([]models.Submission, error) {
	var submissions []models.Submission
	query := db.Where("author_email = ?", authorEmail)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepositoryImpl) CountByStatus(db *gorm.DB, status models.SubmissionStatus) (int64, error) {
	var count int64
	err := db.Model(&models.Submission{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
