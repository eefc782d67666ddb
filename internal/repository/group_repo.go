package repository

import (
	"context"
	"errors"
	"yatube/internal/models"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

func NewGroupRepository(conn *gorm.DB) *GroupRepository {
	return &GroupRepository{DB: conn}
}

// BySlug returns the group with the given slug, or ErrNotFound.
func (r *GroupRepository) BySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// All returns every group, used for the post form's group selector.
func (r *GroupRepository) All(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&groups).Error
	return groups, err
}
