package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ranz0c/leakhub/internal/models"
)

// Request sort modes.
const (
	RequestSortVotes  = "votes"
	RequestSortBounty = "bounty"
	RequestSortRecent = "recent"
)

// RequestRepository handles leak request database operations.
type RequestRepository struct {
	db *DB
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create creates a new leak request.
func (r *RequestRepository) Create(request *models.LeakRequest) error {
	return r.db.Create(request).Error
}

// GetByID retrieves a request by its ID.
func (r *RequestRepository) GetByID(id uint) (*models.LeakRequest, error) {
	var request models.LeakRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetAll retrieves all requests using one of the sort modes. Unknown modes
// fall back to most voted.
func (r *RequestRepository) GetAll(sortBy string) ([]models.LeakRequest, error) {
	query := r.db.Model(&models.LeakRequest{})
	switch sortBy {
	case RequestSortBounty:
		query = query.Order("bounty DESC, votes DESC")
	case RequestSortRecent:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("votes DESC, bounty DESC")
	}

	var requests []models.LeakRequest
	err := query.Find(&requests).Error
	return requests, err
}

// GetOpenByInstance retrieves open requests matching an instance name.
func (r *RequestRepository) GetOpenByInstance(instance string) ([]models.LeakRequest, error) {
	var requests []models.LeakRequest
	err := r.db.
		Where("instance = ? AND status = ?", instance, models.RequestOpen).
		Find(&requests).Error
	return requests, err
}

// Update updates an existing request.
func (r *RequestRepository) Update(request *models.LeakRequest) error {
	return r.db.Save(request).Error
}

// ToggleVote adds or removes a user's vote on a request and adjusts the
// cached vote counter. Returns the resulting vote state.
func (r *RequestRepository) ToggleVote(username string, requestID uint) (voted bool, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var vote models.RequestVote
		findErr := tx.
			Where("username = ? AND request_id = ?", username, requestID).
			First(&vote).Error

		switch {
		case findErr == nil:
			if err := tx.Delete(&vote).Error; err != nil {
				return err
			}
			voted = false
			return tx.Model(&models.LeakRequest{}).
				Where("id = ?", requestID).
				UpdateColumn("votes", gorm.Expr("votes - 1")).Error

		case errors.Is(findErr, gorm.ErrRecordNotFound):
			vote = models.RequestVote{Username: username, RequestID: requestID}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			voted = true
			return tx.Model(&models.LeakRequest{}).
				Where("id = ?", requestID).
				UpdateColumn("votes", gorm.Expr("votes + 1")).Error

		default:
			return findErr
		}
	})
	return voted, err
}

// CountByUser returns the number of requests a user has submitted.
func (r *RequestRepository) CountByUser(username string) (int64, error) {
	var count int64
	err := r.db.Model(&models.LeakRequest{}).
		Where("requested_by = ?", username).
		Count(&count).Error
	return count, err
}
