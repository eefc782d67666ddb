package repository

import (
	"context"
	"errors"
	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSelfFollow is returned when a user tries to follow themselves.
// The route boundary degrades it to a silent no-op.
var ErrSelfFollow = errors.New("cannot follow yourself")

type FollowRepository struct {
	DB *gorm.DB
}

func NewFollowRepository(conn *gorm.DB) *FollowRepository {
	return &FollowRepository{DB: conn}
}

// Follow creates the (user, author) edge. Following twice is a no-op;
// the unique index on the pair backs this up under concurrent requests.
func (r *FollowRepository) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return ErrSelfFollow
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Follow
		err := tx.Where("user_id = ? AND author_id = ?", userID, authorID).First(&existing).Error
		if err == nil {
			return nil // already following
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		edge := models.Follow{UserID: userID, AuthorID: authorID}
		// DoNothing absorbs the race where another worker created the
		// edge between our check and the insert.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	})
}

// Unfollow removes the edge if present. A missing edge is a no-op.
func (r *FollowRepository) Unfollow(ctx context.Context, userID, authorID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
}

// IsFollowing reports whether the (user, author) edge exists.
func (r *FollowRepository) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FollowedAuthorIDs returns the ids of every author the user follows.
func (r *FollowRepository) FollowedAuthorIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Pluck("author_id", &ids).Error
	return ids, err
}

// Counts returns how many users follow the given user and how many
// the user follows, for the profile header.
func (r *FollowRepository) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&models.Follow{}).
		Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).Count(&following).Error
	return
}
