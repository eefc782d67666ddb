package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	"yatube/internal/db"
	"yatube/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named in-memory database: plain ":memory:" gives every pooled
	// connection its own empty database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

func createGroup(t *testing.T, conn *gorm.DB, title, slug string) models.Group {
	t.Helper()
	group := models.Group{Title: title, Slug: slug}
	if err := conn.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create group %s: %v", slug, err)
	}
	return group
}

func createPost(t *testing.T, conn *gorm.DB, author models.User, group *models.Group, text string, createdAt time.Time) models.Post {
	t.Helper()
	post := models.Post{UserID: author.ID, Text: text, CreatedAt: createdAt}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := conn.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create post %q: %v", text, err)
	}
	return post
}

func followCount(t *testing.T, conn *gorm.DB, userID, authorID uint) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error; err != nil {
		t.Fatalf("Failed to count follows: %v", err)
	}
	return n
}

func TestFollowIdempotent(t *testing.T) {
	conn := testDB(t)
	repo := NewFollowRepository(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")

	if err := repo.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("First follow failed: %v", err)
	}
	if err := repo.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Second follow failed: %v", err)
	}
	if n := followCount(t, conn, a.ID, b.ID); n != 1 {
		t.Errorf("Expected exactly 1 edge, got %d", n)
	}

	if err := repo.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := repo.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Repeated unfollow failed: %v", err)
	}
	if n := followCount(t, conn, a.ID, b.ID); n != 0 {
		t.Errorf("Expected 0 edges after unfollow, got %d", n)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	conn := testDB(t)
	repo := NewFollowRepository(conn)

	a := createUser(t, conn, "a")

	err := repo.Follow(context.Background(), a.ID, a.ID)
	if !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("Expected ErrSelfFollow, got %v", err)
	}
	if n := followCount(t, conn, a.ID, a.ID); n != 0 {
		t.Errorf("Self-follow created %d edges", n)
	}
}

func TestIsFollowingAndFollowedAuthorIDs(t *testing.T) {
	conn := testDB(t)
	repo := NewFollowRepository(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	c := createUser(t, conn, "c")

	repo.Follow(ctx, a.ID, b.ID)
	repo.Follow(ctx, a.ID, c.ID)

	following, err := repo.IsFollowing(ctx, a.ID, b.ID)
	if err != nil || !following {
		t.Errorf("Expected a to follow b, got %v, %v", following, err)
	}
	following, _ = repo.IsFollowing(ctx, b.ID, a.ID)
	if following {
		t.Error("Follow edges must be directed: b does not follow a")
	}

	ids, err := repo.FollowedAuthorIDs(ctx, a.ID)
	if err != nil {
		t.Fatalf("FollowedAuthorIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 followed authors, got %v", ids)
	}
}

func TestFeedScoping(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	follows := NewFollowRepository(conn)
	ctx := context.Background()

	a1 := createUser(t, conn, "a1")
	a2 := createUser(t, conn, "a2")
	viewer := createUser(t, conn, "viewer")
	g1 := createGroup(t, conn, "Group One", "g1")
	g2 := createGroup(t, conn, "Group Two", "g2")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p1 := createPost(t, conn, a1, &g1, "P1", base)
	createPost(t, conn, a2, &g2, "P2", base.Add(time.Minute))
	p3 := createPost(t, conn, a1, nil, "P3", base.Add(2*time.Minute))

	byGroup, err := posts.ByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ByGroup failed: %v", err)
	}
	if len(byGroup) != 1 || byGroup[0].ID != p1.ID {
		t.Errorf("ByGroup(g1): expected [P1], got %v", byGroup)
	}

	byAuthor, err := posts.ByAuthor(ctx, "a1")
	if err != nil {
		t.Fatalf("ByAuthor failed: %v", err)
	}
	if len(byAuthor) != 2 || byAuthor[0].ID != p3.ID || byAuthor[1].ID != p1.ID {
		t.Errorf("ByAuthor(a1): expected [P3 P1], got %v", byAuthor)
	}

	if err := follows.Follow(ctx, viewer.ID, a1.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	ids, _ := follows.FollowedAuthorIDs(ctx, viewer.ID)
	followed, err := posts.ByAuthors(ctx, ids)
	if err != nil {
		t.Fatalf("ByAuthors failed: %v", err)
	}
	if len(followed) != 2 || followed[0].ID != p3.ID || followed[1].ID != p1.ID {
		t.Errorf("Followed feed: expected [P3 P1], got %v", followed)
	}
}

func TestListingOrder(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p1 := createPost(t, conn, author, nil, "t1", base)
	p2 := createPost(t, conn, author, nil, "t2", base.Add(time.Hour))
	p3 := createPost(t, conn, author, nil, "t3", base.Add(2*time.Hour))

	all, err := posts.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	want := []uint{p3.ID, p2.ID, p1.ID}
	if len(all) != 3 {
		t.Fatalf("Expected 3 posts, got %d", len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("Position %d: expected post %d, got %d", i, id, all[i].ID)
		}
	}
}

func TestListingOrderTieBreak(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := createPost(t, conn, author, nil, "first", at)
	second := createPost(t, conn, author, nil, "second", at)

	all, err := posts.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	// Equal timestamps: higher id wins.
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("Expected [%d %d], got [%d %d]", second.ID, first.ID, all[0].ID, all[1].ID)
	}
}

func TestGroupEndToEnd(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	x := createUser(t, conn, "x")
	news := createGroup(t, conn, "News", "news")
	createPost(t, conn, x, &news, "hello", time.Now())

	inNews, err := posts.ByGroup(ctx, "news")
	if err != nil {
		t.Fatalf("ByGroup(news) failed: %v", err)
	}
	if len(inNews) != 1 || inNews[0].Text != "hello" {
		t.Errorf("ByGroup(news): expected one post 'hello', got %v", inNews)
	}

	other, err := posts.ByGroup(ctx, "other")
	if err != nil {
		t.Fatalf("ByGroup(other) failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ByGroup(other): expected empty, got %v", other)
	}
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	reader := createUser(t, conn, "reader")
	post := createPost(t, conn, author, nil, "post", time.Now().Add(-time.Hour))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		comment := models.Comment{
			PostID:    post.ID,
			UserID:    reader.ID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := posts.CreateComment(ctx, &comment); err != nil {
			t.Fatalf("Failed to create comment: %v", err)
		}
	}

	comments, err := posts.Comments(ctx, post.ID)
	if err != nil {
		t.Fatalf("Comments failed: %v", err)
	}
	if len(comments) != 3 || comments[0].Text != "first" || comments[2].Text != "third" {
		t.Errorf("Comments out of order: %v", comments)
	}

	// Listing should report the count
	all, _ := posts.All(ctx)
	if len(all) != 1 || all[0].CommentCount != 3 {
		t.Errorf("Expected CommentCount 3, got %v", all)
	}
}

func TestCommentsTieBreakOnEqualTimestamps(t *testing.T) {
	conn := testDB(t)
	posts := NewPostRepository(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	reader := createUser(t, conn, "reader")
	post := createPost(t, conn, author, nil, "post", time.Now().Add(-time.Hour))

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []uint
	for _, text := range []string{"first", "second", "third"} {
		comment := models.Comment{PostID: post.ID, UserID: reader.ID, Text: text, CreatedAt: at}
		if err := posts.CreateComment(ctx, &comment); err != nil {
			t.Fatalf("Failed to create comment: %v", err)
		}
		ids = append(ids, comment.ID)
	}

	comments, err := posts.Comments(ctx, post.ID)
	if err != nil {
		t.Fatalf("Comments failed: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(comments))
	}
	// Equal timestamps: insertion order, lower id first.
	for i, id := range ids {
		if comments[i].ID != id {
			t.Errorf("Position %d: expected comment %d, got %d", i, id, comments[i].ID)
		}
	}
}

func TestGroupAndUserLookups(t *testing.T) {
	conn := testDB(t)
	groups := NewGroupRepository(conn)
	users := NewUserRepository(conn)
	ctx := context.Background()

	createGroup(t, conn, "News", "news")
	createUser(t, conn, "leo")

	if _, err := groups.BySlug(ctx, "news"); err != nil {
		t.Errorf("BySlug(news) failed: %v", err)
	}
	if _, err := groups.BySlug(ctx, "none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BySlug(none): expected ErrNotFound, got %v", err)
	}
	if _, err := users.ByUsername(ctx, "leo"); err != nil {
		t.Errorf("ByUsername(leo) failed: %v", err)
	}
	if _, err := users.ByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByUsername(nobody): expected ErrNotFound, got %v", err)
	}
}
