// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"geosocial/internal/models"
	"geosocial/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for friend data operations.
// Each pair of users has at most one friendship row.
type FriendRepository interface {
	// CreatePending inserts a pending request unless the pair already has a row.
	// It returns the row for the pair and whether it was created by this call.
	CreatePending(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, bool, error)
	GetByID(ctx context.Context, id uint) (*models.Friendship, error)
	// GetBetween returns the pair's row, or nil when none exists.
	GetBetween(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error)
	// AcceptPending flips a pending request to accepted; it reports whether a row changed.
	AcceptPending(ctx context.Context, friendshipID uint) (bool, error)
	// DeletePending removes a request that is still pending; it reports whether a row was removed.
	DeletePending(ctx context.Context, friendshipID uint) (bool, error)
	// DeleteBetween removes the pair's row regardless of status.
	DeleteBetween(ctx context.Context, userID1, userID2 uint) (bool, error)
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreatePending(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, bool, error) {
	defer observability.TrackQuery("insert", "friendships")()

	friendship := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipStatusPending,
	}
	// The unique pair index makes concurrent duplicate requests collapse into one row.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(friendship)
	if result.Error != nil {
		var appErr *models.AppError
		if errors.As(result.Error, &appErr) {
			return nil, false, appErr
		}
		return nil, false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		return friendship, true, nil
	}

	existing, err := r.GetBetween(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, models.NewInternalError(errors.New("friendship insert ignored but no row found"))
	}
	return existing, false, nil
}

func (r *friendRepository) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).Preload("Requester").Preload("Addressee").First(&friendship, id).Error; err != nil {
		return nil, mapError(err, "Friendship", id)
	}
	return &friendship, nil
}

func (r *friendRepository) GetBetween(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	low, high := models.OrderedPair(userID1, userID2)

	var friendship models.Friendship
	if err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&friendship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

func (r *friendRepository) AcceptPending(ctx context.Context, friendshipID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ? AND status = ?", friendshipID, models.FriendshipStatusPending).
		Update("status", models.FriendshipStatusAccepted)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) DeletePending(ctx context.Context, friendshipID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", friendshipID, models.FriendshipStatusPending).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) DeleteBetween(ctx context.Context, userID1, userID2 uint) (bool, error) {
	low, high := models.OrderedPair(userID1, userID2)

	result := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FriendIDs reads accepted rows from both sides of the pair.
func (r *friendRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	defer observability.TrackQuery("select", "friendships")()

	var rows []models.Friendship
	if err := r.db.WithContext(ctx).
		Select("user_low_id", "user_high_id").
		Where("status = ? AND (user_low_id = ? OR user_high_id = ?)", models.FriendshipStatusAccepted, userID, userID).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(rows))
	for _, f := range rows {
		if f.UserLowID == userID {
			ids = append(ids, f.UserHighID)
		} else {
			ids = append(ids, f.UserLowID)
		}
	}
	return ids, nil
}

func (r *friendRepository) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User

	if err := r.db.WithContext(ctx).
		Joins("JOIN friendships f ON (users.id = f.user_low_id OR users.id = f.user_high_id)").
		Where("f.status = ? AND (f.user_low_id = ? OR f.user_high_id = ?) AND users.id <> ?",
			models.FriendshipStatusAccepted, userID, userID, userID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return users, nil
}

func (r *friendRepository) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship

	if err := r.db.WithContext(ctx).
		Where("addressee_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("Requester").
		Preload("Addressee").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return friendships, nil
}

func (r *friendRepository) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship

	if err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Preload("Requester").
		Preload("Addressee").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return friendships, nil
}
