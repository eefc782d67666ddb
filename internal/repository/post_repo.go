package repository

import (
	"context"
	"errors"
	"log"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("record not found")

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository(conn *gorm.DB) *PostRepository {
	return &PostRepository{DB: conn}
}

// listOrder is the ordering shared by every listing: newest first,
// id as the deterministic tie-break for equal timestamps.
const listOrder = "posts.created_at DESC, posts.id DESC"

// All returns every post, newest first.
func (r *PostRepository) All(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).Preload("User").Preload("Group").
		Order(listOrder).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	r.fillCommentCounts(ctx, posts)
	return posts, nil
}

// ByGroup returns posts whose group has the given slug.
// An unknown slug yields an empty result, not an error.
func (r *PostRepository) ByGroup(ctx context.Context, slug string) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).Preload("User").Preload("Group").
		Joins(`JOIN "groups" ON "groups".id = posts.group_id`).
		Where(`"groups".slug = ?`, slug).
		Order(listOrder).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	r.fillCommentCounts(ctx, posts)
	return posts, nil
}

// ByAuthor returns posts whose author has the given username.
func (r *PostRepository) ByAuthor(ctx context.Context, username string) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.WithContext(ctx).Preload("User").Preload("Group").
		Joins("JOIN users ON users.id = posts.user_id").
		Where("users.username = ?", username).
		Order(listOrder).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	r.fillCommentCounts(ctx, posts)
	return posts, nil
}

// ByAuthors returns posts written by any of the given author ids.
func (r *PostRepository) ByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.DB.WithContext(ctx).Preload("User").Preload("Group").
		Where("user_id IN ?", authorIDs).
		Order(listOrder).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	r.fillCommentCounts(ctx, posts)
	return posts, nil
}

// Get returns a single post by id with its author and group preloaded.
func (r *PostRepository) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.DB.WithContext(ctx).Preload("User").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.DB.WithContext(ctx).Save(post).Error
}

// Comments returns a post's comments oldest first.
func (r *PostRepository) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.DB.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *PostRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.DB.WithContext(ctx).Create(comment).Error
}

// fillCommentCounts batch-fills CommentCount for a page of posts. A
// counting failure degrades to zero counts rather than failing the page.
func (r *PostRepository) fillCommentCounts(ctx context.Context, posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	err := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error
	if err != nil {
		log.Printf("count comments: %v", err)
	}

	countMap := make(map[uint]int, len(results))
	for _, res := range results {
		countMap[res.PostID] = res.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}
