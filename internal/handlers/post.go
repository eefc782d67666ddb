package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"
	"yatube/internal/cache"
	"yatube/internal/feed"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	// postsPerPage is shared by every listing route.
	postsPerPage = 10
	// indexCacheTTL bounds how stale the front page may get. Writes do
	// not invalidate; readers see new posts within one TTL.
	indexCacheTTL = 20 * time.Second

	mediaDir = "./web/media"
)

type PostHandler struct {
	composer *feed.Composer
	pages    *cache.PageCache
	posts    *repository.PostRepository
	groups   *repository.GroupRepository
}

func NewPostHandler(composer *feed.Composer, pages *cache.PageCache, posts *repository.PostRepository, groups *repository.GroupRepository) *PostHandler {
	return &PostHandler{
		composer: composer,
		pages:    pages,
		posts:    posts,
		groups:   groups,
	}
}

// pageParam reads ?page=, falling back to 1 on absent or garbage input.
func pageParam(c *gin.Context) int {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum := utils.StringToInt(p); pageNum > 0 {
			page = pageNum
		}
	}
	return page
}

// Index is the global listing. Only the viewer-independent page of
// posts is memoized; the render map is built fresh per request so the
// per-request keys Render injects never touch the shared cached value.
func (h *PostHandler) Index(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("posts:index:page:%d", page)
	data, err := h.pages.GetOrCompute(cacheKey, indexCacheTTL, func() (any, error) {
		posts, err := h.composer.Compose(c.Request.Context(), feed.All, nil, "")
		if err != nil {
			return nil, err
		}
		return feed.Paginate(posts, postsPerPage, page), nil
	})
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}

	Render(c, http.StatusOK, "posts/index.html", gin.H{
		"Page":   data.(feed.Page[models.Post]),
		"Active": "index",
		"Title":  "Latest posts",
	})
}

// GroupPosts lists posts in one group. An unknown slug is a 404 here:
// the group itself is the missing resource, not the listing.
func (h *PostHandler) GroupPosts(c *gin.Context) {
	slug := c.Param("slug")

	group, err := h.groups.BySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c)
			return
		}
		RenderError(c, http.StatusInternalServerError, "Failed to load group")
		return
	}

	posts, err := h.composer.Compose(c.Request.Context(), feed.ByGroup, nil, slug)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	pageObj := feed.Paginate(posts, postsPerPage, pageParam(c))

	Render(c, http.StatusOK, "posts/group.html", gin.H{
		"Page":   pageObj,
		"Group":  group,
		"Active": "group",
		"Title":  group.Title,
	})
}

// FollowIndex is the followed-authors feed. AuthRequired guarantees a viewer.
func (h *PostHandler) FollowIndex(c *gin.Context) {
	viewer := c.MustGet(middleware.CheckUserKey).(*models.User)

	posts, err := h.composer.Compose(c.Request.Context(), feed.Followed, viewer, "")
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load your feed")
		return
	}
	pageObj := feed.Paginate(posts, postsPerPage, pageParam(c))

	Render(c, http.StatusOK, "posts/follow.html", gin.H{
		"Page":   pageObj,
		"Active": "follow",
		"Title":  "Your feed",
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		NotFound(c)
		return
	}

	post, err := h.posts.Get(c.Request.Context(), uint(id))
	if err != nil {
		NotFound(c)
		return
	}

	comments, err := h.posts.Comments(c.Request.Context(), post.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	type renderedComment struct {
		models.Comment
		TextHTML template.HTML
	}
	rendered := make([]renderedComment, len(comments))
	for i, com := range comments {
		rendered[i] = renderedComment{Comment: com, TextHTML: utils.RenderMarkdown(com.Text)}
	}

	Render(c, http.StatusOK, "posts/detail.html", gin.H{
		"Post":     post,
		"PostText": utils.RenderMarkdown(post.Text),
		"Comments": rendered,
		"Title":    "Post by " + post.User.Username,
	})
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	groups, _ := h.groups.All(c.Request.Context())
	Render(c, http.StatusOK, "posts/create.html", gin.H{
		"Title":  "New post",
		"Groups": groups,
	})
}

func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	text := c.PostForm("text")
	if text == "" {
		groups, _ := h.groups.All(c.Request.Context())
		Render(c, http.StatusBadRequest, "posts/create.html", gin.H{
			"Error":  "Post text must not be empty",
			"Groups": groups,
		})
		return
	}

	post := models.Post{
		UserID:  user.ID,
		Text:    text,
		GroupID: h.groupIDParam(c),
		Image:   h.saveImage(c),
	}

	if err := h.posts.Create(c.Request.Context(), &post); err != nil {
		groups, _ := h.groups.All(c.Request.Context())
		Render(c, http.StatusInternalServerError, "posts/create.html", gin.H{
			"Error":  "Failed to save post",
			"Groups": groups,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	post, ok := h.ownPost(c, user)
	if !ok {
		return
	}

	groups, _ := h.groups.All(c.Request.Context())
	Render(c, http.StatusOK, "posts/create.html", gin.H{
		"Title":  "Edit post",
		"Post":   post,
		"IsEdit": true,
		"Groups": groups,
	})
}

func (h *PostHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	post, ok := h.ownPost(c, user)
	if !ok {
		return
	}

	text := c.PostForm("text")
	if text == "" {
		groups, _ := h.groups.All(c.Request.Context())
		Render(c, http.StatusBadRequest, "posts/create.html", gin.H{
			"Error":  "Post text must not be empty",
			"Post":   post,
			"IsEdit": true,
			"Groups": groups,
		})
		return
	}

	post.Text = text
	post.GroupID = h.groupIDParam(c)
	if image := h.saveImage(c); image != "" {
		post.Image = image
	}

	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save post")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}

func (h *PostHandler) AddComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		NotFound(c)
		return
	}

	post, err := h.posts.Get(c.Request.Context(), uint(id))
	if err != nil {
		NotFound(c)
		return
	}

	text := c.PostForm("text")
	if text == "" {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Text:   text,
	}
	if err := h.posts.CreateComment(c.Request.Context(), &comment); err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save comment")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}

// ownPost loads the post from the :id param and checks ownership.
// Non-authors get a 404 rather than a 403 so the route does not reveal
// whether the resource exists.
func (h *PostHandler) ownPost(c *gin.Context, user *models.User) (*models.Post, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		NotFound(c)
		return nil, false
	}

	post, err := h.posts.Get(c.Request.Context(), uint(id))
	if err != nil {
		NotFound(c)
		return nil, false
	}
	if post.UserID != user.ID {
		NotFound(c)
		return nil, false
	}
	return post, true
}

func (h *PostHandler) groupIDParam(c *gin.Context) *uint {
	idStr := c.PostForm("group_id")
	if idStr == "" {
		return nil
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return nil
	}
	gid := uint(id)
	return &gid
}

// saveImage stores an optional uploaded image under the media dir and
// returns the stored file name, or "" when nothing was uploaded.
func (h *PostHandler) saveImage(c *gin.Context) string {
	file, err := c.FormFile("image")
	if err != nil {
		return ""
	}
	name := utils.RandString(12) + filepath.Ext(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(mediaDir, name)); err != nil {
		return ""
	}
	return name
}
