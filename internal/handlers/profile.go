package handlers

import (
	"errors"
	"net/http"
	"yatube/internal/feed"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	composer *feed.Composer
	users    *repository.UserRepository
	follows  *repository.FollowRepository
}

func NewProfileHandler(composer *feed.Composer, users *repository.UserRepository, follows *repository.FollowRepository) *ProfileHandler {
	return &ProfileHandler{
		composer: composer,
		users:    users,
		follows:  follows,
	}
}

// Profile - 用户主页 /profile/:username
func (h *ProfileHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	author, err := h.users.ByUsername(c.Request.Context(), username)
	if err != nil {
		NotFound(c)
		return
	}

	posts, err := h.composer.Compose(c.Request.Context(), feed.ByAuthor, nil, username)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	pageObj := feed.Paginate(posts, postsPerPage, pageParam(c))

	followers, following, err := h.follows.Counts(c.Request.Context(), author.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	isFollowing := false
	isSelf := false
	if viewer := middleware.CurrentUser(c); viewer != nil {
		isSelf = viewer.ID == author.ID
		if !isSelf {
			isFollowing, _ = h.follows.IsFollowing(c.Request.Context(), viewer.ID, author.ID)
		}
	}

	Render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Author":      author,
		"Page":        pageObj,
		"PostCount":   len(posts),
		"Followers":   followers,
		"Following":   following,
		"IsFollowing": isFollowing,
		"IsSelf":      isSelf,
		"Title":       author.Username,
	})
}

// Follow creates the follow edge and bounces back to the profile.
// Self-follow is swallowed here: no edge, no error page.
func (h *ProfileHandler) Follow(c *gin.Context) {
	viewer := c.MustGet(middleware.CheckUserKey).(*models.User)
	username := c.Param("username")

	author, err := h.users.ByUsername(c.Request.Context(), username)
	if err != nil {
		NotFound(c)
		return
	}

	if err := h.follows.Follow(c.Request.Context(), viewer.ID, author.ID); err != nil {
		if !errors.Is(err, repository.ErrSelfFollow) {
			RenderError(c, http.StatusInternalServerError, "Failed to follow")
			return
		}
	}

	c.Redirect(http.StatusFound, "/profile/"+username)
}

// Unfollow removes the edge; a missing edge is fine.
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	viewer := c.MustGet(middleware.CheckUserKey).(*models.User)
	username := c.Param("username")

	author, err := h.users.ByUsername(c.Request.Context(), username)
	if err != nil {
		NotFound(c)
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), viewer.ID, author.ID); err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to unfollow")
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+username)
}
