package repository

import (
	"time"

	"github.com/ranz0c/leakhub/internal/models"
)

// SubmissionRepository handles submission-related database operations.
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create creates a new submission in the database.
func (r *SubmissionRepository) Create(submission *models.Submission) error {
	return r.db.Create(submission).Error
}

// GetByID retrieves a submission by its ID.
func (r *SubmissionRepository) GetByID(id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// GetAll retrieves all submissions, newest first.
func (r *SubmissionRepository) GetAll() ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Order("created_at DESC").Find(&submissions).Error
	return submissions, err
}

// GetByInstance retrieves all submissions for an instance, newest first.
func (r *SubmissionRepository) GetByInstance(instance string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.
		Where("instance = ?", instance).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// GetBySource retrieves all submissions by a user, newest first.
func (r *SubmissionRepository) GetBySource(source string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.
		Where("source = ?", source).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// CountByTargetKey counts submissions that share a first-discovery key.
// Keys are exact: a bare targetType:instance key and its function-scoped
// variants are distinct targets, so the function name filter always applies
// (an empty name matches only rows without one).
func (r *SubmissionRepository) CountByTargetKey(targetType, instance, functionName string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Where("target_type = ? AND instance = ? AND function_name = ?", targetType, instance, functionName).
		Count(&count).Error
	return count, err
}

// Update updates an existing submission in the database.
func (r *SubmissionRepository) Update(submission *models.Submission) error {
	return r.db.Save(submission).Error
}

// CountAll returns the total number of submissions.
func (r *SubmissionRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).Count(&count).Error
	return count, err
}

// CountVerified returns the number of verified submissions.
func (r *SubmissionRepository) CountVerified() (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Where("was_verified = ?", true).
		Count(&count).Error
	return count, err
}

// CountDistinctInstances returns the number of distinct leaked instances.
func (r *SubmissionRepository) CountDistinctInstances() (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Distinct("instance").
		Count(&count).Error
	return count, err
}

// CountCreatedSince returns the number of submissions created after a point in time.
func (r *SubmissionRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// CountVerifiedSince returns the number of submissions verified after a point
// in time, using the update timestamp of the verified flag.
func (r *SubmissionRepository) CountVerifiedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Where("was_verified = ? AND updated_at >= ?", true, since).
		Count(&count).Error
	return count, err
}

// GetRecent retrieves the most recent submissions up to limit.
func (r *SubmissionRepository) GetRecent(limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

// ClearAll deletes every submission. Used by the bulk reset endpoint.
func (r *SubmissionRepository) ClearAll() error {
	return r.db.Where("1 = 1").Delete(&models.Submission{}).Error
}
