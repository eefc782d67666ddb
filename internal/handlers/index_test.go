package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"yatube/internal/cache"
	"yatube/internal/db"
	"yatube/internal/feed"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Minimal stand-ins for the real templates: enough to observe which
// viewer a page was rendered for.
const indexTemplates = `
{{define "posts/index.html"}}{{if .CurrentUser}}{{.CurrentUser.Username}}{{end}}|{{len .Page.Items}}{{end}}
{{define "posts/group.html"}}{{.Group.Title}}|{{len .Page.Items}}{{end}}
{{define "error.html"}}{{.Code}}:{{.Error}}{{end}}
`

func setupPostRouter(t *testing.T) (*gin.Engine, *gorm.DB, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	viewer := &models.User{Username: "viewer", Email: "viewer@example.com", Password: "x"}
	author := &models.User{Username: "author", Email: "author@example.com", Password: "x"}
	conn.Create(viewer)
	conn.Create(author)
	conn.Create(&models.Post{UserID: author.ID, Text: "hello"})

	postRepo := repository.NewPostRepository(conn)
	followRepo := repository.NewFollowRepository(conn)
	groupRepo := repository.NewGroupRepository(conn)
	composer := feed.NewComposer(postRepo, followRepo)
	pages, err := cache.New(10)
	if err != nil {
		t.Fatalf("Failed to create page cache: %v", err)
	}
	handler := NewPostHandler(composer, pages, postRepo, groupRepo)

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(indexTemplates)))
	// Stand-in for the session middleware: the viewer is logged in only
	// when the request carries the marker header.
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Viewer") != "" {
			c.Set(middleware.CheckUserKey, viewer)
		}
		c.Next()
	})
	r.GET("/", handler.Index)
	r.GET("/group/:slug", handler.GroupPosts)

	return r, conn, viewer
}

// A logged-in request warming the index cache must not leak its viewer
// into the page served to a later anonymous visitor.
func TestIndexCacheDoesNotLeakViewer(t *testing.T) {
	r, _, _ := setupPostRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Viewer", "1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "viewer") {
		t.Fatalf("Logged-in page missing viewer: %q", body)
	}

	// Cache hit: same page, no viewer.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "viewer") {
		t.Errorf("Anonymous page rendered with the previous viewer: %q", body)
	}
	if !strings.Contains(body, "|1") {
		t.Errorf("Anonymous page lost the cached posts: %q", body)
	}
}

func TestGroupPostsUnknownSlugIs404(t *testing.T) {
	r, _, _ := setupPostRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/group/none", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown slug, got %d", w.Code)
	}
}

func TestGroupPostsLookupFailureIs500(t *testing.T) {
	r, conn, _ := setupPostRouter(t)

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/group/none", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 when the lookup fails, got %d", w.Code)
	}
}
