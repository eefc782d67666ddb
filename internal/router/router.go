package router

import (
	"yatube/internal/cache"
	"yatube/internal/db"
	"yatube/internal/feed"
	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every handler onto the engine. The page cache is
// injected so its lifecycle stays explicit (created once in main).
func RegisterRoutes(r *gin.Engine, pages *cache.PageCache) {
	// Repositories
	postRepo := repository.NewPostRepository(db.DB)
	groupRepo := repository.NewGroupRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)

	composer := feed.NewComposer(postRepo, followRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo)
	postHandler := handlers.NewPostHandler(composer, pages, postRepo, groupRepo)
	profileHandler := handlers.NewProfileHandler(composer, userRepo, followRepo)
	aboutHandler := handlers.NewAboutHandler()

	// Public Routes
	r.GET("/", postHandler.Index)
	r.GET("/group/:slug", postHandler.GroupPosts)
	r.GET("/posts/:id", postHandler.Detail)
	r.GET("/profile/:username", profileHandler.Profile)

	r.GET("/about/author", aboutHandler.Author)
	r.GET("/about/tech", aboutHandler.Tech)

	auth := r.Group("/auth")
	{
		auth.GET("/signup", authHandler.ShowRegister)
		auth.POST("/signup", authHandler.Register)
		auth.GET("/login", authHandler.ShowLogin)
		auth.POST("/login", authHandler.Login)
		auth.GET("/logout", authHandler.Logout)
		auth.GET("/password-reset", authHandler.ShowForgotPassword)
		auth.POST("/password-reset", authHandler.ForgotPassword)
		auth.GET("/password-reset/confirm", authHandler.ShowResetPassword)
		auth.POST("/password-reset/confirm", authHandler.ResetPassword)
	}

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		// 关注作者的文章
		authorized.GET("/follow", postHandler.FollowIndex)
		authorized.GET("/create", postHandler.ShowCreate)
		authorized.POST("/create", postHandler.Create)
		authorized.GET("/posts/:id/edit", postHandler.ShowEdit)
		authorized.POST("/posts/:id/edit", postHandler.Update)
		authorized.POST("/posts/:id/comment", postHandler.AddComment)
		authorized.POST("/profile/:username/follow", profileHandler.Follow)
		authorized.POST("/profile/:username/unfollow", profileHandler.Unfollow)
	}

	// Fallbacks
	r.NoRoute(handlers.NotFound)
}
